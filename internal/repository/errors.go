package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when a uniqueness constraint is violated.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrPreconditionFailed is returned by conditional updates when the stored
	// record no longer matches the expected state.
	ErrPreconditionFailed = errors.New("stored state no longer matches")
)
