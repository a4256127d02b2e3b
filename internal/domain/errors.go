package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound = errors.New("domain: not found")
	ErrConflict = errors.New("domain: conflict")
	ErrInvalid  = errors.New("domain: invalid input")
	// ErrInvalidTarget marks a drop or move whose column/index no longer
	// resolves, e.g. after a concurrent delete.
	ErrInvalidTarget = errors.New("domain: invalid target")
)
