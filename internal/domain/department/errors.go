package department

import "errors"

// ErrInvalidInput indicates invalid department input.
var ErrInvalidInput = errors.New("invalid department input")
