package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert loses a uniqueness race,
	// e.g. two trips drawing the same share code.
	ErrDuplicate = errors.New("duplicate entity")
)
