package repository

import "context"

// Store bundles the repositories and opens transactional scopes over them.
// Every trip-scoped mutation runs through InTx so interleaved writes to the
// same trip cannot corrupt the dense-ordering invariant.
type Store interface {
	Trips() TripRepository
	Stops() StopRepository

	// InTx runs fn with repositories bound to a single serializable
	// transaction, committing if fn returns nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(trips TripRepository, stops StopRepository) error) error
}
