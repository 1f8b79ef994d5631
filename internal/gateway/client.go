package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultTimeout           = 15 * time.Second
	DefaultUnavailableWindow = 60 * time.Second
	DefaultMaxBodyBytes      = 4 << 20
)

// Config describes the remote endpoints and call limits.
type Config struct {
	// Endpoints maps each resource to its ordered candidate base URLs.
	Endpoints         map[Resource][]string
	Timeout           time.Duration
	UnavailableWindow time.Duration
	MaxBodyBytes      int64
}

// Client translates logical operations into HTTP calls. It keeps no per-user
// state; that lives in Session.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for availability windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a gateway client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UnavailableWindow <= 0 {
		cfg.UnavailableWindow = DefaultUnavailableWindow
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	resource Resource
	method   string
	path     string
	query    url.Values
	body     []byte
}

type response struct {
	body     []byte
	status   int
	endpoint string
}

// do runs a request against the resource's candidates in order. 404, 5xx and
// network failures move on to the next candidate, 401/403 stop immediately.
// When every candidate fails that way the resource is marked unavailable for
// the configured window.
func (c *Client) do(ctx context.Context, sess *Session, req request) (response, *Error) {
	candidates := c.cfg.Endpoints[req.resource]
	if len(candidates) == 0 {
		return response{}, newError(KindUnavailable, "no endpoint configured for %s", req.resource)
	}

	now := c.now()
	if ok, until := sess.allow(req.resource, now); !ok {
		return response{}, newError(KindUnavailable, "%s unavailable until %s", req.resource, until.Format(time.RFC3339))
	}

	auth := sess.Auth()
	var lastErr *Error
	exhausted := 0
	for _, base := range candidates {
		endpoint := joinURL(base, req.path, req.query)
		started := time.Now()
		resp, err := c.send(ctx, auth, req.method, endpoint, req.body)
		if err != nil {
			c.logger.Debug("gateway call failed", "resource", req.resource, "method", req.method, "endpoint", endpoint, "error", err, "elapsed", time.Since(started))
			lastErr = err
			exhausted++
			continue
		}
		c.logger.Debug("gateway call", "resource", req.resource, "method", req.method, "endpoint", endpoint, "status", resp.status, "elapsed", time.Since(started))

		switch {
		case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
			sess.markAvailable(req.resource)
			return resp, c.statusError(KindAuth, resp)
		case resp.status == http.StatusNotFound && len(candidates) > 1:
			lastErr = c.statusError(KindNotFound, resp)
			exhausted++
			continue
		case resp.status == http.StatusNotFound:
			sess.markAvailable(req.resource)
			return resp, c.statusError(KindNotFound, resp)
		case resp.status == http.StatusConflict || resp.status == http.StatusPreconditionFailed:
			sess.markAvailable(req.resource)
			return resp, c.statusError(KindConflict, resp)
		case resp.status >= 500 && len(candidates) > 1:
			lastErr = c.statusError(KindServer, resp)
			exhausted++
			continue
		case resp.status < 200 || resp.status > 299:
			sess.markAvailable(req.resource)
			return resp, c.statusError(KindServer, resp)
		}

		sess.markAvailable(req.resource)
		raw, decodeErr := decodeBody(resp.body)
		if decodeErr != nil {
			return resp, &Error{Kind: KindServer, Message: "malformed response body", Status: resp.status, Endpoint: endpoint}
		}
		if msg, isErr := errorBody(raw); isErr {
			if msg == "" {
				msg = "the server reported a failure"
			}
			return resp, &Error{Kind: KindServer, Message: msg, Status: resp.status, Endpoint: endpoint}
		}
		return resp, nil
	}

	if exhausted == len(candidates) {
		until := now.Add(c.cfg.UnavailableWindow)
		sess.markUnavailable(req.resource, until)
		c.logger.Warn("resource marked unavailable", "resource", req.resource, "until", until, "error", lastErr)
	}
	return response{}, lastErr
}

func (c *Client) send(ctx context.Context, auth Auth, method, endpoint string, body []byte) (response, *Error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return response{}, &Error{Kind: KindValidation, Message: fmt.Sprintf("build request: %v", err), Endpoint: endpoint}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if auth.APIKey != "" {
		httpReq.Header.Set("x-api-key", auth.APIKey)
	}
	if auth.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+auth.Token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("request timed out after %s", c.cfg.Timeout)
		}
		return response{}, &Error{Kind: KindNetwork, Message: msg, Endpoint: endpoint}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	if err != nil {
		return response{}, &Error{Kind: KindNetwork, Message: fmt.Sprintf("read response: %v", err), Status: resp.StatusCode, Endpoint: endpoint}
	}
	return response{body: data, status: resp.StatusCode, endpoint: endpoint}, nil
}

// maxMessageRunes caps server messages carried in errors.
const maxMessageRunes = 300

func (c *Client) statusError(kind Kind, resp response) *Error {
	msg := serverMessage(resp.body)
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", resp.status)
	}
	if utf8.RuneCountInString(msg) > maxMessageRunes {
		msg = string([]rune(msg)[:maxMessageRunes])
	}
	return &Error{Kind: kind, Message: msg, Status: resp.status, Endpoint: resp.endpoint}
}

func joinURL(base, path string, query url.Values) string {
	u := strings.TrimRight(base, "/") + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}
	return u
}

func encode(payload any) ([]byte, *Error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, newError(KindValidation, "encode payload: %v", err)
	}
	return data, nil
}
