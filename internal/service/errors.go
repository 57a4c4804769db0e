package service

import "errors"

var (
	// ErrInvalidShareCode is returned when a share code is malformed.
	ErrInvalidShareCode = errors.New("invalid share code")

	// ErrDestinationNameRequired is returned when a destination has no name.
	ErrDestinationNameRequired = errors.New("destination name is required")

	// ErrInvalidCoordinates is returned when latitude or longitude is out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrStopNameRequired is returned when a stop has no name.
	ErrStopNameRequired = errors.New("stop name is required")

	// ErrStopTooClose is returned when a stop would land within the proximity
	// threshold of an existing stop on the same trip.
	ErrStopTooClose = errors.New("stop already exists at this location")

	// ErrNotPermutation is returned when a reorder request is not exactly a
	// permutation of the trip's current stop ids.
	ErrNotPermutation = errors.New("stop ids must be a permutation of the trip's current stops")

	// ErrEmptyUpdate is returned when an update request supplies no fields.
	ErrEmptyUpdate = errors.New("no fields to update")

	// ErrShareCodeExhausted is returned when no unique share code could be
	// allocated within the retry bound.
	ErrShareCodeExhausted = errors.New("could not allocate a unique share code")
)
