package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/gateway"
	"github.com/rpggio/workdesk/internal/reconcile"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps gateway and domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, reconcile.ErrNotCached):
		return &APIError{Code: "NOT_LOADED", Message: "record not loaded", RecoveryHint: "Call the matching list tool first"}
	case errors.Is(err, task.ErrBlockedByDependency):
		return &APIError{Code: "BLOCKED_BY_DEPENDENCY", Message: "task is blocked by an unfinished dependency", RecoveryHint: "Complete the dependency first"}
	case errors.Is(err, gateway.ErrAuth):
		return &APIError{Code: "AUTH_REQUIRED", Message: "credentials were rejected", RecoveryHint: "Call set_credentials"}
	case errors.Is(err, gateway.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "record modified on the server", RecoveryHint: "List again and retry"}
	case errors.Is(err, gateway.ErrConcurrencyTokenMissing):
		return &APIError{Code: "TIMESTAMP_MISSING", Message: "record has no timestamp", RecoveryHint: "List again to load the timestamp"}
	case errors.Is(err, gateway.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "record not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, gateway.ErrValidation):
		return &APIError{Code: "VALIDATION_FAILED", Message: "invalid input"}
	case errors.Is(err, gateway.ErrNetwork), errors.Is(err, gateway.ErrUnavailable):
		return &APIError{Code: "UNAVAILABLE", Message: "server unreachable", RecoveryHint: "Retry later"}
	case errors.Is(err, gateway.ErrServer):
		return &APIError{Code: "SERVER_ERROR", Message: "server error"}
	default:
		return nil
	}
}

// outcomeError turns a failed outcome into a tool error carrying the
// user-facing message.
func outcomeError[T any](o reconcile.Outcome[T]) error {
	apiErr := MapError(o.Err)
	if apiErr == nil {
		apiErr = &APIError{Code: "INTERNAL_ERROR"}
	}
	if o.Message != "" {
		apiErr.Message = o.Message
	}
	if o.Detail != "" {
		apiErr.Details = o.Detail
	}
	return apiErr
}
