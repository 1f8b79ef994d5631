package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure.
type Kind string

const (
	KindNetwork                 Kind = "network"
	KindUnavailable             Kind = "unavailable"
	KindAuth                    Kind = "auth"
	KindNotFound                Kind = "not_found"
	KindValidation              Kind = "validation"
	KindConcurrencyTokenMissing Kind = "concurrency_token_missing"
	KindConflict                Kind = "conflict"
	KindServer                  Kind = "server"
)

var (
	// ErrNetwork is returned when the request never got a response.
	ErrNetwork = errors.New("network error")
	// ErrUnavailable is returned while a resource is inside its unavailability window.
	ErrUnavailable = errors.New("resource unavailable")
	// ErrAuth is returned for 401 and 403 responses.
	ErrAuth = errors.New("authentication failed")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when input is rejected before any request is made.
	ErrValidation = errors.New("validation failed")
	// ErrConcurrencyTokenMissing is returned when a mutation needs a version token the record lacks.
	ErrConcurrencyTokenMissing = errors.New("missing timestamp")
	// ErrConflict is returned when the server rejects a stale version token.
	ErrConflict = errors.New("record modified since last read")
	// ErrServer is returned for 5xx responses and error bodies sent with 2xx.
	ErrServer = errors.New("server error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindUnavailable:
		return ErrUnavailable
	case KindAuth:
		return ErrAuth
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindConcurrencyTokenMissing:
		return ErrConcurrencyTokenMissing
	case KindConflict:
		return ErrConflict
	default:
		return ErrServer
	}
}

// Error is a classified gateway failure.
type Error struct {
	Kind     Kind
	Message  string
	Status   int
	Endpoint string
	// Cause is the local error behind a failure raised before any request.
	Cause error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.sentinel(), e.Message)
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error { return e.Cause }

// Fallback reports whether a caller should fall back to the local cache.
// Auth, validation, token and not-found failures are surfaced instead.
func (e *Error) Fallback() bool {
	switch e.Kind {
	case KindNetwork, KindUnavailable, KindServer:
		return true
	}
	return false
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Cause: err}
}
