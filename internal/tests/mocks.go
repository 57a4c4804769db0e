package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"tripsync/internal/domain"
	"tripsync/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of repository.TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip // keyed by share code

	// Counters for verification
	CreateCallCount int32
	GetCallCount    int32
	ExistsCallCount int32

	// Error/behavior injection
	CreateError  error
	ExistsAlways bool
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{trips: make(map[string]*domain.Trip)}
}

// AddTrip seeds a trip into the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *trip
	m.trips[trip.ShareCode] = &copied
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.trips[trip.ShareCode]; exists {
		return repository.ErrDuplicate
	}
	copied := *trip
	m.trips[trip.ShareCode] = &copied
	return nil
}

func (m *MockTripRepository) GetByShareCode(ctx context.Context, code string) (*domain.Trip, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[code]
	if !ok || trip.Status != domain.TripStatusActive {
		return nil, repository.ErrNotFound
	}
	copied := *trip
	return &copied, nil
}

func (m *MockTripRepository) GetByShareCodeForUpdate(ctx context.Context, code string) (*domain.Trip, error) {
	return m.GetByShareCode(ctx, code)
}

func (m *MockTripRepository) ExistsShareCode(ctx context.Context, code string) (bool, error) {
	atomic.AddInt32(&m.ExistsCallCount, 1)
	if m.ExistsAlways {
		return true, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.trips[code]
	return ok, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ShareCode]; !ok {
		return repository.ErrNotFound
	}
	copied := *trip
	m.trips[trip.ShareCode] = &copied
	return nil
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK STOP REPOSITORY
// ──────────────────────────────────────────────

// MockStopRepository is a mock implementation of repository.StopRepository.
type MockStopRepository struct {
	mu    sync.RWMutex
	stops map[string]*domain.Stop // keyed by stop id

	CreateCallCount int32
	CreateError     error
}

// NewMockStopRepository creates a new mock stop repository.
func NewMockStopRepository() *MockStopRepository {
	return &MockStopRepository{stops: make(map[string]*domain.Stop)}
}

func (m *MockStopRepository) Create(ctx context.Context, stop *domain.Stop) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *stop
	m.stops[stop.ID] = &copied
	return nil
}

func (m *MockStopRepository) GetByID(ctx context.Context, tripID, stopID string) (*domain.Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stop, ok := m.stops[stopID]
	if !ok || stop.TripID != tripID {
		return nil, repository.ErrNotFound
	}
	copied := *stop
	return &copied, nil
}

func (m *MockStopRepository) ListByTrip(ctx context.Context, tripID string) ([]domain.Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stops []domain.Stop
	for _, stop := range m.stops {
		if stop.TripID == tripID {
			stops = append(stops, *stop)
		}
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].Order < stops[j].Order })
	return stops, nil
}

func (m *MockStopRepository) CountByTrip(ctx context.Context, tripID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, stop := range m.stops {
		if stop.TripID == tripID {
			count++
		}
	}
	return count, nil
}

func (m *MockStopRepository) Update(ctx context.Context, stop *domain.Stop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.stops[stop.ID]
	if !ok || existing.TripID != stop.TripID {
		return repository.ErrNotFound
	}
	// Order is preserved: Update never touches it.
	copied := *stop
	copied.Order = existing.Order
	m.stops[stop.ID] = &copied
	return nil
}

func (m *MockStopRepository) Delete(ctx context.Context, tripID, stopID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stop, ok := m.stops[stopID]
	if !ok || stop.TripID != tripID {
		return repository.ErrNotFound
	}
	delete(m.stops, stopID)
	return nil
}

func (m *MockStopRepository) CloseGap(ctx context.Context, tripID string, deletedOrder int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stop := range m.stops {
		if stop.TripID == tripID && stop.Order > deletedOrder {
			stop.Order--
		}
	}
	return nil
}

func (m *MockStopRepository) SetOrders(ctx context.Context, tripID string, orderedIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range orderedIDs {
		stop, ok := m.stops[id]
		if !ok || stop.TripID != tripID {
			return repository.ErrNotFound
		}
		stop.Order = i
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore implements repository.Store over the mock repositories. InTx
// serializes callers and restores a snapshot if fn fails, mimicking a
// rolled-back transaction.
type MockStore struct {
	mu        sync.Mutex
	TripRepo  *MockTripRepository
	StopRepo  *MockStopRepository
	TxCount   int32
	InTxError error
}

// NewMockStore creates a store over fresh mock repositories.
func NewMockStore() *MockStore {
	return &MockStore{
		TripRepo: NewMockTripRepository(),
		StopRepo: NewMockStopRepository(),
	}
}

func (s *MockStore) Trips() repository.TripRepository { return s.TripRepo }
func (s *MockStore) Stops() repository.StopRepository { return s.StopRepo }

func (s *MockStore) InTx(ctx context.Context, fn func(trips repository.TripRepository, stops repository.StopRepository) error) error {
	atomic.AddInt32(&s.TxCount, 1)
	if s.InTxError != nil {
		return s.InTxError
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tripSnapshot := snapshotTrips(s.TripRepo)
	stopSnapshot := snapshotStops(s.StopRepo)

	if err := fn(s.TripRepo, s.StopRepo); err != nil {
		restoreTrips(s.TripRepo, tripSnapshot)
		restoreStops(s.StopRepo, stopSnapshot)
		return err
	}
	return nil
}

func snapshotTrips(r *MockTripRepository) map[string]domain.Trip {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[string]domain.Trip, len(r.trips))
	for k, v := range r.trips {
		snap[k] = *v
	}
	return snap
}

func restoreTrips(r *MockTripRepository, snap map[string]domain.Trip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips = make(map[string]*domain.Trip, len(snap))
	for k, v := range snap {
		copied := v
		r.trips[k] = &copied
	}
}

func snapshotStops(r *MockStopRepository) map[string]domain.Stop {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[string]domain.Stop, len(r.stops))
	for k, v := range r.stops {
		snap[k] = *v
	}
	return snap
}

func restoreStops(r *MockStopRepository, snap map[string]domain.Stop) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = make(map[string]*domain.Stop, len(snap))
	for k, v := range snap {
		copied := v
		r.stops[k] = &copied
	}
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// PublishedEvent records one fan-out call.
type PublishedEvent struct {
	ShareCode string
	Event     string
	Payload   any
}

// MockPublisher records published events in order.
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (p *MockPublisher) Publish(shareCode, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{ShareCode: shareCode, Event: event, Payload: payload})
}

// Events returns a copy of the recorded events.
func (p *MockPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// ──────────────────────────────────────────────
// MOCK TRIP CACHE
// ──────────────────────────────────────────────

// MockTripCache is an in-memory implementation of service.TripCache.
type MockTripCache struct {
	mu    sync.Mutex
	views map[string]*domain.TripWithStops

	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32

	GetError        error
	SetError        error
	InvalidateError error
}

// NewMockTripCache creates a new MockTripCache.
func NewMockTripCache() *MockTripCache {
	return &MockTripCache{views: make(map[string]*domain.TripWithStops)}
}

func (c *MockTripCache) Get(ctx context.Context, shareCode string) (*domain.TripWithStops, error) {
	atomic.AddInt32(&c.GetCallCount, 1)
	if c.GetError != nil {
		return nil, c.GetError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[shareCode], nil
}

func (c *MockTripCache) Set(ctx context.Context, view *domain.TripWithStops) error {
	atomic.AddInt32(&c.SetCallCount, 1)
	if c.SetError != nil {
		return c.SetError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[view.Trip.ShareCode] = view
	return nil
}

func (c *MockTripCache) Invalidate(ctx context.Context, shareCode string) error {
	atomic.AddInt32(&c.InvalidateCallCount, 1)
	if c.InvalidateError != nil {
		return c.InvalidateError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, shareCode)
	return nil
}
