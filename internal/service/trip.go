package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"tripsync/internal/domain"
	"tripsync/internal/geo"
	"tripsync/internal/repository"
	"tripsync/internal/sharecode"
)

// DefaultShareCodeAttempts bounds share-code generation retries. With a
// 32^6 code space a handful of attempts is already overkill.
const DefaultShareCodeAttempts = 10

// TripService handles trip lifecycle operations.
type TripService struct {
	store        repository.Store
	gen          *sharecode.Generator
	cache        TripCache
	publisher    Publisher
	locks        *TripLocks
	codeAttempts int
}

// NewTripService creates a new TripService.
func NewTripService(
	store repository.Store,
	gen *sharecode.Generator,
	cache TripCache,
	publisher Publisher,
	locks *TripLocks,
	codeAttempts int,
) *TripService {
	if codeAttempts <= 0 {
		codeAttempts = DefaultShareCodeAttempts
	}
	return &TripService{
		store:        store,
		gen:          gen,
		cache:        cache,
		publisher:    publisher,
		locks:        locks,
		codeAttempts: codeAttempts,
	}
}

// DestinationInput carries a destination supplied by a client.
type DestinationInput struct {
	Name    string
	Lat     float64
	Lon     float64
	Address string
}

// CreateTripRequest contains the parameters for creating a trip.
type CreateTripRequest struct {
	Name        string
	Destination DestinationInput
}

// UpdateTripRequest contains a partial trip update. Nil fields are left
// untouched.
type UpdateTripRequest struct {
	Name        *string
	Destination *DestinationInput
	Route       json.RawMessage
}

func validateDestination(dest DestinationInput) error {
	if dest.Name == "" {
		return ErrDestinationNameRequired
	}
	if !geo.ValidLat(dest.Lat) || !geo.ValidLon(dest.Lon) {
		return ErrInvalidCoordinates
	}
	return nil
}

// normalizeCode maps client input to canonical share-code form, rejecting
// anything malformed before the store is touched.
func normalizeCode(code string) (string, error) {
	code = sharecode.Normalize(code)
	if !sharecode.Valid(code) {
		return "", ErrInvalidShareCode
	}
	return code, nil
}

// Create validates the destination, allocates a unique share code with a
// bounded number of attempts and persists the trip. No fan-out happens
// here: a fresh trip has no subscribers yet.
func (s *TripService) Create(ctx context.Context, req CreateTripRequest) (*domain.TripWithStops, error) {
	if err := validateDestination(req.Destination); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	trip := &domain.Trip{
		ID:   uuid.NewString(),
		Name: req.Name,
		Destination: domain.Destination{
			Name:    req.Destination.Name,
			Lat:     req.Destination.Lat,
			Lon:     req.Destination.Lon,
			Address: req.Destination.Address,
		},
		Status:    domain.TripStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		code := s.gen.Generate()

		exists, err := s.store.Trips().ExistsShareCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		trip.ShareCode = code
		err = s.store.Trips().Create(ctx, trip)
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the race to a concurrent create; draw again.
			continue
		}
		if err != nil {
			return nil, err
		}

		return &domain.TripWithStops{Trip: *trip, Stops: []domain.Stop{}}, nil
	}

	return nil, ErrShareCodeExhausted
}

// GetByShareCode resolves a share code to the trip and its ordered stops.
func (s *TripService) GetByShareCode(ctx context.Context, code string) (*domain.TripWithStops, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	if view, err := s.cache.Get(ctx, code); err != nil {
		log.Printf("trip cache get %s: %v", code, err)
	} else if view != nil {
		return view, nil
	}

	trip, err := s.store.Trips().GetByShareCode(ctx, code)
	if err != nil {
		return nil, err
	}
	stops, err := s.store.Stops().ListByTrip(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	if stops == nil {
		stops = []domain.Stop{}
	}

	view := &domain.TripWithStops{Trip: *trip, Stops: stops}
	if err := s.cache.Set(ctx, view); err != nil {
		log.Printf("trip cache set %s: %v", code, err)
	}

	return view, nil
}

// Update applies a partial update to a trip, bumps updated_at, and fans out
// trip:updated to the room.
func (s *TripService) Update(ctx context.Context, code string, req UpdateTripRequest) (*domain.TripWithStops, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	if req.Name == nil && req.Destination == nil && req.Route == nil {
		return nil, ErrEmptyUpdate
	}
	if req.Destination != nil {
		if err := validateDestination(*req.Destination); err != nil {
			return nil, err
		}
	}

	unlock := s.locks.Lock(code)
	defer unlock()

	var view domain.TripWithStops
	err = s.store.InTx(ctx, func(trips repository.TripRepository, stops repository.StopRepository) error {
		trip, err := trips.GetByShareCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		if req.Name != nil {
			trip.Name = *req.Name
		}
		if req.Destination != nil {
			trip.Destination = domain.Destination{
				Name:    req.Destination.Name,
				Lat:     req.Destination.Lat,
				Lon:     req.Destination.Lon,
				Address: req.Destination.Address,
			}
		}
		if req.Route != nil {
			trip.Route = req.Route
		}
		trip.UpdatedAt = time.Now().UTC()

		if err := trips.Update(ctx, trip); err != nil {
			return err
		}

		tripStops, err := stops.ListByTrip(ctx, trip.ID)
		if err != nil {
			return err
		}
		if tripStops == nil {
			tripStops = []domain.Stop{}
		}

		view = domain.TripWithStops{Trip: *trip, Stops: tripStops}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, code)
	s.publisher.Publish(code, domain.EventTripUpdated, tripPayload(&view))

	return &view, nil
}

// SoftDelete marks a trip deleted. The row and its share code survive so
// the code is never reissued. Deleting an already-deleted trip reports
// ErrNotFound: callers must learn the call had no effect.
func (s *TripService) SoftDelete(ctx context.Context, code string) error {
	code, err := normalizeCode(code)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(code)
	defer unlock()

	err = s.store.InTx(ctx, func(trips repository.TripRepository, stops repository.StopRepository) error {
		trip, err := trips.GetByShareCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		trip.Status = domain.TripStatusDeleted
		trip.UpdatedAt = time.Now().UTC()
		return trips.Update(ctx, trip)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, code)
	s.publisher.Publish(code, domain.EventTripDeleted, TripDeletedPayload{ShareCode: code})

	return nil
}

// Stats reports the stop count and timestamps of a trip.
func (s *TripService) Stats(ctx context.Context, code string) (*domain.TripStats, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	trip, err := s.store.Trips().GetByShareCode(ctx, code)
	if err != nil {
		return nil, err
	}
	count, err := s.store.Stops().CountByTrip(ctx, trip.ID)
	if err != nil {
		return nil, err
	}

	return &domain.TripStats{
		ShareCode: trip.ShareCode,
		StopCount: count,
		CreatedAt: trip.CreatedAt,
		UpdatedAt: trip.UpdatedAt,
	}, nil
}

func (s *TripService) invalidate(ctx context.Context, code string) {
	if err := s.cache.Invalidate(ctx, code); err != nil {
		log.Printf("trip cache invalidate %s: %v", code, err)
	}
}
