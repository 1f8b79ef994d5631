package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Resource names a logical REST collection.
type Resource string

const (
	Companies   Resource = "companies"
	Departments Resource = "departments"
	Users       Resource = "users"
	Roles       Resource = "roles"
	Projects    Resource = "projects"
	Tasks       Resource = "tasks"
)

// AllResources lists every resource in load order.
var AllResources = []Resource{Companies, Departments, Users, Roles, Projects, Tasks}

// RequiresToken reports whether deletes need a concurrency token.
func (r Resource) RequiresToken() bool {
	return r == Departments
}

// Singular returns the resource name for messages.
func (r Resource) Singular() string {
	return strings.TrimSuffix(string(r), "s")
}

func list[T any](ctx context.Context, c *Client, sess *Session, res Resource, query url.Values) Result[[]T] {
	resp, gwErr := c.do(ctx, sess, request{resource: res, method: http.MethodGet, query: query})
	if gwErr != nil {
		return fail[[]T](gwErr)
	}
	records, err := Normalize(resp.body)
	if err != nil {
		return fail[[]T](&Error{Kind: KindServer, Message: err.Error(), Status: resp.status, Endpoint: resp.endpoint})
	}

	now := c.now()
	out := make([]T, 0, len(records))
	for _, rec := range records {
		Repair(res, rec, now)
		item, err := decodeRecord[T](rec)
		if err != nil {
			c.logger.Warn("dropping undecodable record", "resource", res, "id", rec["id"], "error", err)
			continue
		}
		out = append(out, item)
	}
	return succeed(out, resp.status, resp.endpoint)
}

// write sends payload and decodes the returned record. Fields the server
// returns win over the ones the client sent.
func write[T any](ctx context.Context, c *Client, sess *Session, res Resource, t target, payload any) Result[T] {
	body, gwErr := encode(payload)
	if gwErr != nil {
		return fail[T](gwErr)
	}
	base := map[string]any{}
	_ = json.Unmarshal(body, &base)
	if t.id != "" {
		base["id"] = t.id
	}
	if t.stampField {
		base["updatedAt"] = c.now().UTC().Format(time.RFC3339)
		if body, gwErr = encode(base); gwErr != nil {
			return fail[T](gwErr)
		}
	}

	resp, gwErr := c.do(ctx, sess, request{resource: res, method: t.method, path: t.path, query: t.query, body: body})
	if gwErr != nil {
		return fail[T](gwErr)
	}

	if raw, err := decodeBody(resp.body); err == nil {
		for k, v := range singleRecord(raw) {
			base[k] = v
		}
	}
	Repair(res, base, c.now())
	item, err := decodeRecord[T](base)
	if err != nil {
		return fail[T](&Error{Kind: KindServer, Message: "undecodable record: " + err.Error(), Status: resp.status, Endpoint: resp.endpoint})
	}
	return succeed(item, resp.status, resp.endpoint)
}

func create[T any](ctx context.Context, c *Client, sess *Session, res Resource, payload any) Result[T] {
	return write[T](ctx, c, sess, res, target{method: http.MethodPost}, payload)
}

func update[T any](ctx context.Context, c *Client, sess *Session, res Resource, strategy UpdateStrategy, payload any) Result[T] {
	t, gwErr := resolve(strategy)
	if gwErr != nil {
		return fail[T](gwErr)
	}
	return write[T](ctx, c, sess, res, t, payload)
}

func remove(ctx context.Context, c *Client, sess *Session, res Resource, id, token string) Result[string] {
	t, gwErr := deleteTarget(res, id, token)
	if gwErr != nil {
		return fail[string](gwErr)
	}
	resp, gwErr := c.do(ctx, sess, request{resource: res, method: t.method, path: t.path, query: t.query})
	if gwErr != nil {
		return fail[string](gwErr)
	}
	return succeed(id, resp.status, resp.endpoint)
}

func decodeRecord[T any](rec map[string]any) (T, error) {
	var out T
	data, err := json.Marshal(rec)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
