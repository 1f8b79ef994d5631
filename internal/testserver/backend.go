// Package testserver provides a fake REST backend that mimics the response
// shapes and version-token rules of the real workdesk endpoints.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

// Shape selects how list responses are wrapped.
type Shape int

const (
	ShapeArray Shape = iota
	ShapeItems
	ShapeData
	ShapeProxy
)

var known = map[string]bool{
	"companies":   true,
	"departments": true,
	"users":       true,
	"roles":       true,
	"projects":    true,
	"tasks":       true,
}

// RecordedRequest is a request the backend received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// Backend is an in-memory REST backend served over httptest.
type Backend struct {
	Server *httptest.Server

	// APIKey, when set, must be sent as x-api-key or the request gets 403.
	APIKey string

	mu          sync.Mutex
	collections map[string][]map[string]any
	shapes      map[string]Shape
	failures    map[string]int
	requests    []RecordedRequest
	seq         int
	clock       time.Time
}

// New starts a backend and closes it with the test.
func New(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		collections: make(map[string][]map[string]any),
		shapes:      make(map[string]Shape),
		failures:    make(map[string]int),
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base URL of a resource collection.
func (b *Backend) URL(resource string) string {
	return b.Server.URL + "/" + resource
}

// Seed appends records to a collection.
func (b *Backend) Seed(resource string, records ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collections[resource] = append(b.collections[resource], records...)
}

// SetShape changes how GET wraps the collection.
func (b *Backend) SetShape(resource string, shape Shape) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shapes[resource] = shape
}

// FailWith makes every request to resource answer with status until Recover.
func (b *Backend) FailWith(resource string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[resource] = status
}

// Recover clears a forced failure.
func (b *Backend) Recover(resource string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, resource)
}

// Requests returns a copy of the received requests.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// Records returns a copy of a collection.
func (b *Backend) Records(resource string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.collections[resource]...)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	resource := parts[0]
	id := ""
	if len(parts) > 1 {
		id = parts[1]
	}

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})

	if b.APIKey != "" && r.Header.Get("x-api-key") != b.APIKey {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
		return
	}
	if !known[resource] {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
		return
	}
	if status, ok := b.failures[resource]; ok {
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		b.list(w, r, resource)
	case r.Method == http.MethodPost && id == "":
		b.create(w, resource, body)
	case r.Method == http.MethodPut && id != "":
		b.replace(w, resource, id, body)
	case r.Method == http.MethodPatch && id != "":
		b.patch(w, r, resource, id, body)
	case r.Method == http.MethodDelete && id != "":
		b.remove(w, r, resource, id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request, resource string) {
	records := make([]map[string]any, 0)
	projectID := r.URL.Query().Get("projectId")
	for _, rec := range b.collections[resource] {
		if projectID != "" && rec["projectId"] != projectID {
			continue
		}
		records = append(records, rec)
	}

	switch b.shapes[resource] {
	case ShapeItems:
		writeJSON(w, http.StatusOK, map[string]any{"items": records})
	case ShapeData:
		writeJSON(w, http.StatusOK, map[string]any{"data": records, "count": len(records)})
	case ShapeProxy:
		inner, _ := json.Marshal(records)
		writeJSON(w, http.StatusOK, map[string]any{"statusCode": 200, "body": string(inner)})
	default:
		writeJSON(w, http.StatusOK, records)
	}
}

func (b *Backend) create(w http.ResponseWriter, resource string, body map[string]any) {
	if body == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing body"})
		return
	}
	b.seq++
	stamp := b.tick()
	rec := make(map[string]any, len(body)+3)
	for k, v := range body {
		rec[k] = v
	}
	rec["id"] = fmt.Sprintf("%s%d", resource[:1], b.seq)
	rec["createdAt"] = stamp
	if resource == "departments" {
		rec["timestamp"] = stamp
	}
	b.collections[resource] = append([]map[string]any{rec}, b.collections[resource]...)
	writeJSON(w, http.StatusCreated, rec)
}

func (b *Backend) replace(w http.ResponseWriter, resource, id string, body map[string]any) {
	idx := b.find(resource, id)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	rec := b.collections[resource][idx]
	for k, v := range body {
		if k == "id" || k == "createdAt" {
			continue
		}
		rec[k] = v
	}
	writeJSON(w, http.StatusOK, rec)
}

func (b *Backend) patch(w http.ResponseWriter, r *http.Request, resource, id string, body map[string]any) {
	idx := b.find(resource, id)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	rec := b.collections[resource][idx]
	if status, msg := checkToken(r, rec, tokenField(resource), false); status != 0 {
		writeJSON(w, status, map[string]any{"error": msg})
		return
	}
	for k, v := range body {
		if k == "id" || k == "createdAt" || k == "timestamp" {
			continue
		}
		rec[k] = v
	}
	if resource == "departments" {
		rec["timestamp"] = b.tick()
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

func (b *Backend) remove(w http.ResponseWriter, r *http.Request, resource, id string) {
	idx := b.find(resource, id)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	rec := b.collections[resource][idx]
	if resource == "departments" {
		if status, msg := checkToken(r, rec, "timestamp", true); status != 0 {
			writeJSON(w, status, map[string]any{"error": msg})
			return
		}
	}
	list := b.collections[resource]
	b.collections[resource] = append(list[:idx:idx], list[idx+1:]...)
	writeJSON(w, http.StatusOK, map[string]any{"message": "deleted"})
}

func (b *Backend) find(resource, id string) int {
	for i, rec := range b.collections[resource] {
		if rec["id"] == id {
			return i
		}
	}
	return -1
}

func (b *Backend) tick() string {
	b.clock = b.clock.Add(time.Minute)
	return b.clock.Format(time.RFC3339)
}

func tokenField(resource string) string {
	if resource == "departments" {
		return "timestamp"
	}
	return "createdAt"
}

func checkToken(r *http.Request, rec map[string]any, field string, strict bool) (int, string) {
	q := r.URL.Query()
	token := q.Get("timestamp")
	if token == "" {
		if !strict && q.Get("latest") == "1" {
			return 0, ""
		}
		return http.StatusBadRequest, "missing timestamp"
	}
	if rec[field] != token {
		return http.StatusConflict, "timestamp mismatch"
	}
	return 0, ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
