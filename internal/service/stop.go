package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"tripsync/internal/domain"
	"tripsync/internal/geo"
	"tripsync/internal/repository"
)

// StopService handles the ordered stop list of a trip. Every mutation runs
// in a serializable transaction that locks the trip row first, so the dense
// order invariant {0..N-1} holds as a postcondition of each call.
type StopService struct {
	store     repository.Store
	guard     *geo.Guard
	cache     TripCache
	publisher Publisher
	locks     *TripLocks
}

// NewStopService creates a new StopService.
func NewStopService(
	store repository.Store,
	guard *geo.Guard,
	cache TripCache,
	publisher Publisher,
	locks *TripLocks,
) *StopService {
	return &StopService{
		store:     store,
		guard:     guard,
		cache:     cache,
		publisher: publisher,
		locks:     locks,
	}
}

// AddStopRequest contains the parameters for adding a stop.
type AddStopRequest struct {
	Name    string
	Lat     float64
	Lon     float64
	Address string
}

// UpdateStopRequest contains a partial stop update. Nil fields are left
// untouched; order never changes here.
type UpdateStopRequest struct {
	Name    *string
	Lat     *float64
	Lon     *float64
	Address *string
}

// Add appends a stop at the tail of the trip's order sequence, rejecting
// coordinates within the proximity threshold of an existing stop.
func (s *StopService) Add(ctx context.Context, code string, req AddStopRequest) (*domain.Stop, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, ErrStopNameRequired
	}
	if !geo.ValidLat(req.Lat) || !geo.ValidLon(req.Lon) {
		return nil, ErrInvalidCoordinates
	}

	unlock := s.locks.Lock(code)
	defer unlock()

	var created domain.Stop
	err = s.store.InTx(ctx, func(trips repository.TripRepository, stops repository.StopRepository) error {
		trip, err := trips.GetByShareCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		existing, err := stops.ListByTrip(ctx, trip.ID)
		if err != nil {
			return err
		}
		if _, conflict := s.guard.Conflict(existing, req.Lat, req.Lon, ""); conflict {
			return ErrStopTooClose
		}

		created = domain.Stop{
			ID:      uuid.NewString(),
			TripID:  trip.ID,
			Name:    req.Name,
			Lat:     req.Lat,
			Lon:     req.Lon,
			Address: req.Address,
			Order:   len(existing),
			AddedAt: time.Now().UTC(),
		}
		return stops.Create(ctx, &created)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, code)
	s.publisher.Publish(code, domain.EventStopAdded, stopPayload(created))

	return &created, nil
}

// Update applies a partial update to a stop. A coordinate change re-runs
// the proximity guard against the other stops of the trip.
func (s *StopService) Update(ctx context.Context, code, stopID string, req UpdateStopRequest) (*domain.Stop, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	if req.Name == nil && req.Lat == nil && req.Lon == nil && req.Address == nil {
		return nil, ErrEmptyUpdate
	}
	if req.Name != nil && *req.Name == "" {
		return nil, ErrStopNameRequired
	}
	if req.Lat != nil && !geo.ValidLat(*req.Lat) {
		return nil, ErrInvalidCoordinates
	}
	if req.Lon != nil && !geo.ValidLon(*req.Lon) {
		return nil, ErrInvalidCoordinates
	}

	unlock := s.locks.Lock(code)
	defer unlock()

	var updated domain.Stop
	err = s.store.InTx(ctx, func(trips repository.TripRepository, stops repository.StopRepository) error {
		trip, err := trips.GetByShareCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		stop, err := stops.GetByID(ctx, trip.ID, stopID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			stop.Name = *req.Name
		}
		if req.Address != nil {
			stop.Address = *req.Address
		}
		if req.Lat != nil || req.Lon != nil {
			if req.Lat != nil {
				stop.Lat = *req.Lat
			}
			if req.Lon != nil {
				stop.Lon = *req.Lon
			}
			existing, err := stops.ListByTrip(ctx, trip.ID)
			if err != nil {
				return err
			}
			if _, conflict := s.guard.Conflict(existing, stop.Lat, stop.Lon, stop.ID); conflict {
				return ErrStopTooClose
			}
		}

		if err := stops.Update(ctx, stop); err != nil {
			return err
		}
		updated = *stop
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, code)
	s.publisher.Publish(code, domain.EventStopUpdated, stopPayload(updated))

	return &updated, nil
}

// Remove deletes a stop and closes the order gap it leaves behind.
func (s *StopService) Remove(ctx context.Context, code, stopID string) error {
	code, err := normalizeCode(code)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(code)
	defer unlock()

	var remaining []domain.Stop
	err = s.store.InTx(ctx, func(trips repository.TripRepository, stops repository.StopRepository) error {
		trip, err := trips.GetByShareCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		stop, err := stops.GetByID(ctx, trip.ID, stopID)
		if err != nil {
			return err
		}

		if err := stops.Delete(ctx, trip.ID, stop.ID); err != nil {
			return err
		}
		if err := stops.CloseGap(ctx, trip.ID, stop.Order); err != nil {
			return err
		}

		remaining, err = stops.ListByTrip(ctx, trip.ID)
		if err != nil {
			return err
		}
		if remaining == nil {
			remaining = []domain.Stop{}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, code)
	s.publisher.Publish(code, domain.EventStopRemoved, StopRemovedPayload{
		StopID: stopID,
		Stops:  stopPayloads(remaining),
	})

	return nil
}

// Reorder atomically assigns order = index for each id. The id list must be
// exactly a permutation of the trip's current stop set; anything else,
// including duplicate ids, fails validation with no writes.
func (s *StopService) Reorder(ctx context.Context, code string, orderedIDs []string) ([]domain.Stop, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(code)
	defer unlock()

	var reordered []domain.Stop
	err = s.store.InTx(ctx, func(trips repository.TripRepository, stops repository.StopRepository) error {
		trip, err := trips.GetByShareCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		current, err := stops.ListByTrip(ctx, trip.ID)
		if err != nil {
			return err
		}
		if len(orderedIDs) != len(current) {
			return ErrNotPermutation
		}

		byID := make(map[string]domain.Stop, len(current))
		for _, stop := range current {
			byID[stop.ID] = stop
		}

		seen := make(map[string]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			if _, ok := byID[id]; !ok || seen[id] {
				return ErrNotPermutation
			}
			seen[id] = true
		}

		if err := stops.SetOrders(ctx, trip.ID, orderedIDs); err != nil {
			return err
		}

		reordered = make([]domain.Stop, 0, len(orderedIDs))
		for i, id := range orderedIDs {
			stop := byID[id]
			stop.Order = i
			reordered = append(reordered, stop)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, code)
	s.publisher.Publish(code, domain.EventStopsReordered, StopsReorderedPayload{
		Stops: stopPayloads(reordered),
	})

	return reordered, nil
}

func (s *StopService) invalidate(ctx context.Context, code string) {
	if err := s.cache.Invalidate(ctx, code); err != nil {
		log.Printf("trip cache invalidate %s: %v", code, err)
	}
}
