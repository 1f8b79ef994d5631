package user

import "errors"

// ErrInvalidInput indicates invalid user input.
var ErrInvalidInput = errors.New("invalid user input")
