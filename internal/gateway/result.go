package gateway

// Result is the uniform envelope returned by every gateway operation. Success
// is the only reliable failure signal; Status alone is not, because some
// endpoints answer 200 with an error body.
type Result[T any] struct {
	Success  bool   `json:"success"`
	Data     T      `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	Kind     Kind   `json:"kind,omitempty"`
	Status   int    `json:"status,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// Err returns nil on success and a *Error otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Error, Status: r.Status, Endpoint: r.Endpoint}
}

func succeed[T any](data T, status int, endpoint string) Result[T] {
	return Result[T]{Success: true, Data: data, Status: status, Endpoint: endpoint}
}

func fail[T any](err *Error) Result[T] {
	return Result[T]{
		Success:  false,
		Error:    err.Message,
		Kind:     err.Kind,
		Status:   err.Status,
		Endpoint: err.Endpoint,
	}
}
