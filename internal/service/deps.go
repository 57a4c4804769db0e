package service

import (
	"context"
	"sync"

	"tripsync/internal/domain"
)

// Publisher pushes a realtime event to every subscriber of a trip's room.
// Delivery is fire-and-forget: a publish failure must never fail the
// mutation that triggered it.
type Publisher interface {
	Publish(shareCode, event string, payload any)
}

// TripCache caches resolved trip views. A Get miss returns (nil, nil).
// Cache errors are logged and treated as misses, never surfaced to callers.
type TripCache interface {
	Get(ctx context.Context, shareCode string) (*domain.TripWithStops, error)
	Set(ctx context.Context, view *domain.TripWithStops) error
	Invalidate(ctx context.Context, shareCode string) error
}

// TripLocks serializes mutation-plus-publish per trip so that fan-out order
// always matches commit order. The database already serializes the writes
// themselves; this lock extends that sequence across the publish call.
type TripLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTripLocks creates an empty lock table.
func NewTripLocks() *TripLocks {
	return &TripLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a share code and returns its unlock func.
func (t *TripLocks) Lock(shareCode string) func() {
	t.mu.Lock()
	l, ok := t.locks[shareCode]
	if !ok {
		l = &sync.Mutex{}
		t.locks[shareCode] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
