package integration_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/workdesk/internal/testserver"
	"github.com/stretchr/testify/require"
)

// TestStdioProtocolCompliance drives the built binary over stdio with the SDK
// client, against the fake backend.
func TestStdioProtocolCompliance(t *testing.T) {
	binaryPath := os.Getenv("WORKDESK_BIN")
	if binaryPath == "" {
		binaryPath = "../../bin/workdesk"
	}
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skip("workdesk binary not found; build it to ../../bin/workdesk or set WORKDESK_BIN")
	}

	b := testserver.New(t)
	b.Seed("companies", map[string]any{"id": "c1", "name": "Acme", "createdAt": "2024-01-01T00:00:00Z"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "serve")
	cmd.Env = append(os.Environ(),
		"WORKDESK_TRANSPORT=stdio",
		"WORKDESK_DB_PATH=:memory:",
		"WORKDESK_ENV_FILE="+t.TempDir()+"/none.env",
		"WORKDESK_ENDPOINT_BASE="+b.Server.URL,
	)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "workdesk", initResult.ServerInfo.Name)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "tools/list failed")

		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}
		for _, name := range []string{"list_companies", "create_company", "update_task_status", "set_credentials"} {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	t.Run("ListCompanies", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "list_companies",
			Arguments: map[string]any{},
		})
		require.NoError(t, err)
		require.False(t, result.IsError, "list_companies returned error: %v", result)

		data, err := json.Marshal(result.StructuredContent)
		require.NoError(t, err)
		var out struct {
			State string `json:"state"`
			Data  []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &out))
		require.Equal(t, "ready", out.State)
		require.Len(t, out.Data, 1)
		require.Equal(t, "Acme", out.Data[0].Name)
	})

	t.Run("ReadDocResource", func(t *testing.T) {
		res, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "workdesk://docs/provenance"})
		require.NoError(t, err)
		require.NotEmpty(t, res.Contents)
		require.Contains(t, res.Contents[0].Text, "pending-local-only")
	})
}
