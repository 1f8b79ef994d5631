package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `workdesk is a client for the company, department, user, role, project and task services.

Every screen renders from a local cache that is refreshed from the server on each list call:
- A list call always returns data. Warnings mean part of it is the last known copy.
- auth_required=true means credentials were rejected; call set_credentials and list again.

Changes:
- When the server cannot be reached, creates and updates are "saved locally" and marked
  provenance=pending-local-only until the next successful list replaces them.
- Department updates and deletes need the department's timestamp. List departments first.
- Task status changes and roadmap updates need the record loaded. List tasks or projects first.
- Conflicts are never retried automatically. List again, then retry.

Use recent_activity to review what happened to earlier changes.`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "workdesk://docs/provenance",
		Name:        "provenance",
		Title:       "Synced and local records",
		Description: "How locally saved changes are marked and when they go away",
		Content: `# Provenance

Every row carries a provenance:

- ` + "`synced`" + `: the row came from the server, or the server accepted the change.
- ` + "`pending-local-only`" + `: the change was applied to the local cache because the
  server was unreachable, unavailable or failed. It has not been sent again.

Local rows are replaced by the next successful read of their collection. A create that
was saved locally gets an id starting with ` + "`local-`" + ` and will not exist on the
server until it is created again.

A resource whose endpoints fail is skipped for 60 seconds. set_credentials clears that window.
`,
	},
	{
		URI:         "workdesk://docs/tasks",
		Name:        "tasks",
		Title:       "Task workflow",
		Description: "Task statuses and dependency blocking",
		Content: `# Task workflow

Statuses: TODO, IN_PROGRESS, ON_HOLD, COMPLETED.

A task ON_HOLD whose dependency is not COMPLETED is blocked. Moving it to any other status
is refused before a request is sent. Complete the dependency first.

User statistics on list_users are derived from the task board:
efficiency is completed / assigned, total hours sums estimates of completed tasks and
workload is low up to 3 open tasks, medium up to 6, high above.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
