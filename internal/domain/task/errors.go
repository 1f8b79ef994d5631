package task

import "errors"

var (
	// ErrInvalidInput indicates invalid task input.
	ErrInvalidInput = errors.New("invalid task input")
	// ErrInvalidStatus indicates an unknown task status.
	ErrInvalidStatus = errors.New("invalid task status")
	// ErrBlockedByDependency indicates an on-hold task whose dependency is not complete.
	ErrBlockedByDependency = errors.New("blocked by dependency")
)
