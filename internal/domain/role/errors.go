package role

import "errors"

// ErrInvalidInput indicates invalid role input.
var ErrInvalidInput = errors.New("invalid role input")
