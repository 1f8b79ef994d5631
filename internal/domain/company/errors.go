package company

import "errors"

// ErrInvalidInput indicates invalid company input.
var ErrInvalidInput = errors.New("invalid company input")
