package planner

import "errors"

// Sentinel errors returned by the planner. Use errors.Is to check.
var (
	// ErrInvalidConfig reports a configuration under which no session could ever be placed.
	ErrInvalidConfig = errors.New("planner: invalid configuration")
	// ErrInvalidInput reports a malformed deadline or busy interval.
	ErrInvalidInput = errors.New("planner: invalid input")
)
