package project

import "errors"

var (
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrInvalidMilestone indicates a roadmap entry failed validation.
	ErrInvalidMilestone = errors.New("invalid milestone")
)
