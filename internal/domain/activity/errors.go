package activity

import "errors"

// ErrInvalidInput indicates an empty or incomplete entry.
var ErrInvalidInput = errors.New("invalid activity entry")
