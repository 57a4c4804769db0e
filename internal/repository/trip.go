package repository

import (
	"context"

	"tripsync/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByShareCode retrieves an active trip by its normalized share code.
	// Returns ErrNotFound for unknown or deleted trips.
	GetByShareCode(ctx context.Context, code string) (*domain.Trip, error)

	// GetByShareCodeForUpdate is GetByShareCode with a row lock, used inside
	// transactions to serialize mutations of one trip.
	GetByShareCodeForUpdate(ctx context.Context, code string) (*domain.Trip, error)

	// ExistsShareCode reports whether any trip, active or deleted, holds the
	// code. Deleted trips keep their codes to prevent reuse.
	ExistsShareCode(ctx context.Context, code string) (bool, error)

	// Update updates an existing trip. Returns ErrNotFound if the row is gone.
	Update(ctx context.Context, trip *domain.Trip) error
}

// StopRepository defines the persistence operations for stops.
type StopRepository interface {
	// Create persists a new stop.
	Create(ctx context.Context, stop *domain.Stop) error

	// GetByID retrieves a stop owned by the given trip.
	GetByID(ctx context.Context, tripID, stopID string) (*domain.Stop, error)

	// ListByTrip returns the trip's stops in order.
	ListByTrip(ctx context.Context, tripID string) ([]domain.Stop, error)

	// CountByTrip returns the number of stops on the trip.
	CountByTrip(ctx context.Context, tripID string) (int, error)

	// Update updates a stop in place. Order is not touched here.
	Update(ctx context.Context, stop *domain.Stop) error

	// Delete removes a stop owned by the given trip.
	Delete(ctx context.Context, tripID, stopID string) error

	// CloseGap decrements the order of every stop of the trip whose order
	// exceeds the given value.
	CloseGap(ctx context.Context, tripID string, deletedOrder int) error

	// SetOrders assigns order = index for each id, in one pass. Callers are
	// responsible for ids being exactly the trip's stop set.
	SetOrders(ctx context.Context, tripID string, orderedIDs []string) error
}
