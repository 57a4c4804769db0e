package tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tripsync/internal/domain"
	"tripsync/internal/geo"
	"tripsync/internal/repository"
	"tripsync/internal/service"
	"tripsync/internal/sharecode"
)

type fixture struct {
	store     *MockStore
	publisher *MockPublisher
	cache     *MockTripCache
	trips     *service.TripService
	stops     *service.StopService
}

func newFixture() *fixture {
	store := NewMockStore()
	publisher := NewMockPublisher()
	cache := NewMockTripCache()
	locks := service.NewTripLocks()
	gen := sharecode.NewGenerator(6)
	guard := geo.NewGuard(10)

	return &fixture{
		store:     store,
		publisher: publisher,
		cache:     cache,
		trips:     service.NewTripService(store, gen, cache, publisher, locks, 10),
		stops:     service.NewStopService(store, guard, cache, publisher, locks),
	}
}

func (f *fixture) mustCreateTrip(t *testing.T) *domain.TripWithStops {
	t.Helper()
	view, err := f.trips.Create(context.Background(), service.CreateTripRequest{
		Name: "Coast run",
		Destination: service.DestinationInput{
			Name: "New York",
			Lat:  40.7128,
			Lon:  -74.0060,
		},
	})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	return view
}

func TestCreateTrip_IssuesValidShareCode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)

	code := view.Trip.ShareCode
	if len(code) != 6 {
		t.Errorf("expected 6-character code, got %q", code)
	}
	for _, r := range code {
		if !strings.ContainsRune(sharecode.Alphabet, r) {
			t.Errorf("code %q uses %q outside the restricted alphabet", code, r)
		}
	}
	if view.Trip.Status != domain.TripStatusActive {
		t.Errorf("expected ACTIVE trip, got %s", view.Trip.Status)
	}
	if len(view.Stops) != 0 {
		t.Errorf("expected empty stop list, got %d", len(view.Stops))
	}

	// Creation has no subscribers yet, so nothing is published.
	if got := len(f.publisher.Events()); got != 0 {
		t.Errorf("expected no fan-out on creation, got %d events", got)
	}
}

func TestCreateTrip_UniqueCodesAtScale(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	const n = 10000
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		view, err := f.trips.Create(ctx, service.CreateTripRequest{
			Destination: service.DestinationInput{Name: "X", Lat: 1, Lon: 1},
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[view.Trip.ShareCode] {
			t.Fatalf("duplicate share code %q", view.Trip.ShareCode)
		}
		seen[view.Trip.ShareCode] = true
	}
	if f.store.TripRepo.CountTrips() != n {
		t.Errorf("expected %d trips, got %d", n, f.store.TripRepo.CountTrips())
	}
}

func TestCreateTrip_InvalidDestination(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	cases := []service.DestinationInput{
		{Name: "", Lat: 10, Lon: 10},
		{Name: "Pole", Lat: 90.5, Lon: 10},
		{Name: "Wrap", Lat: 10, Lon: -180.5},
	}
	for _, dest := range cases {
		_, err := f.trips.Create(ctx, service.CreateTripRequest{Destination: dest})
		if err == nil {
			t.Errorf("expected validation error for %+v", dest)
		}
	}
	if f.store.TripRepo.CountTrips() != 0 {
		t.Errorf("expected no trips persisted, got %d", f.store.TripRepo.CountTrips())
	}
}

func TestCreateTrip_CodeSpaceExhausted(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.store.TripRepo.ExistsAlways = true

	_, err := f.trips.Create(context.Background(), service.CreateTripRequest{
		Destination: service.DestinationInput{Name: "X", Lat: 1, Lon: 1},
	})
	if !errors.Is(err, service.ErrShareCodeExhausted) {
		t.Fatalf("expected ErrShareCodeExhausted, got %v", err)
	}
	if got := f.store.TripRepo.ExistsCallCount; got != 10 {
		t.Errorf("expected 10 attempts, got %d", got)
	}
}

func TestGetByShareCode_NormalizesInput(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)
	ctx := context.Background()

	display := sharecode.Format(view.Trip.ShareCode)
	lower := strings.ToLower(display)

	for _, input := range []string{view.Trip.ShareCode, display, lower, " " + display} {
		got, err := f.trips.GetByShareCode(ctx, input)
		if err != nil {
			t.Fatalf("resolve %q: %v", input, err)
		}
		if got.Trip.ID != view.Trip.ID {
			t.Errorf("resolve %q returned wrong trip", input)
		}
	}
}

func TestGetByShareCode_MalformedCode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	for _, input := range []string{"", "AB", "ABCDE0", "WAYTOOLONGCODE"} {
		_, err := f.trips.GetByShareCode(ctx, input)
		if !errors.Is(err, service.ErrInvalidShareCode) {
			t.Errorf("expected ErrInvalidShareCode for %q, got %v", input, err)
		}
	}
	// Malformed codes never reach the store.
	if f.store.TripRepo.GetCallCount != 0 {
		t.Errorf("expected no store lookups, got %d", f.store.TripRepo.GetCallCount)
	}
}

func TestGetByShareCode_UnknownCode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.trips.GetByShareCode(context.Background(), "ABCDEF")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByShareCode_ServedFromCacheOnSecondRead(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)
	ctx := context.Background()

	if _, err := f.trips.GetByShareCode(ctx, view.Trip.ShareCode); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	first := f.store.TripRepo.GetCallCount

	if _, err := f.trips.GetByShareCode(ctx, view.Trip.ShareCode); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if f.store.TripRepo.GetCallCount != first {
		t.Errorf("expected cache hit on second read, store lookups went %d -> %d",
			first, f.store.TripRepo.GetCallCount)
	}
}

func TestGetByShareCode_CacheFailureFallsThrough(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)
	f.cache.GetError = errors.New("redis down")
	f.cache.SetError = errors.New("redis down")

	got, err := f.trips.GetByShareCode(context.Background(), view.Trip.ShareCode)
	if err != nil {
		t.Fatalf("expected store fallback, got %v", err)
	}
	if got.Trip.ID != view.Trip.ID {
		t.Error("fallback returned wrong trip")
	}
}

func TestUpdateTrip_PartialUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)
	ctx := context.Background()

	name := "Renamed run"
	updated, err := f.trips.Update(ctx, view.Trip.ShareCode, service.UpdateTripRequest{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Trip.Name != name {
		t.Errorf("expected name %q, got %q", name, updated.Trip.Name)
	}
	// Destination untouched by a name-only update.
	if updated.Trip.Destination.Name != "New York" {
		t.Errorf("destination changed unexpectedly: %+v", updated.Trip.Destination)
	}
	if !updated.Trip.UpdatedAt.After(view.Trip.UpdatedAt) && !updated.Trip.UpdatedAt.Equal(view.Trip.UpdatedAt) {
		t.Error("updated_at was not bumped")
	}

	events := f.publisher.Events()
	if len(events) != 1 || events[0].Event != domain.EventTripUpdated {
		t.Fatalf("expected one trip:updated event, got %+v", events)
	}
	if f.cache.InvalidateCallCount == 0 {
		t.Error("expected cache invalidation on update")
	}
}

func TestUpdateTrip_EmptyUpdateRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)

	_, err := f.trips.Update(context.Background(), view.Trip.ShareCode, service.UpdateTripRequest{})
	if !errors.Is(err, service.ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}
	if got := len(f.publisher.Events()); got != 0 {
		t.Errorf("expected no fan-out, got %d events", got)
	}
}

func TestUpdateTrip_InvalidDestinationRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)

	_, err := f.trips.Update(context.Background(), view.Trip.ShareCode, service.UpdateTripRequest{
		Destination: &service.DestinationInput{Name: "Bad", Lat: 120, Lon: 0},
	})
	if !errors.Is(err, service.ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestSoftDelete_Finality(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)
	ctx := context.Background()
	code := view.Trip.ShareCode

	if err := f.trips.SoftDelete(ctx, code); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Resolution now fails.
	if _, err := f.trips.GetByShareCode(ctx, code); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// A second delete must report that it had no effect.
	if err := f.trips.SoftDelete(ctx, code); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	// The row survives, so the code can never be reissued.
	exists, err := f.store.TripRepo.ExistsShareCode(ctx, code)
	if err != nil || !exists {
		t.Errorf("expected share code to remain claimed, exists=%v err=%v", exists, err)
	}

	events := f.publisher.Events()
	if len(events) != 1 || events[0].Event != domain.EventTripDeleted {
		t.Fatalf("expected one trip:deleted event, got %+v", events)
	}
}

func TestSoftDelete_HidesStopsFromWrites(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)
	ctx := context.Background()
	code := view.Trip.ShareCode

	if _, err := f.stops.Add(ctx, code, service.AddStopRequest{Name: "A", Lat: 40.71, Lon: -74.00}); err != nil {
		t.Fatalf("add stop: %v", err)
	}
	if err := f.trips.SoftDelete(ctx, code); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := f.stops.Add(ctx, code, service.AddStopRequest{Name: "B", Lat: 41.0, Lon: -75.0})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound adding stop to deleted trip, got %v", err)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	f := newFixture()
	view := f.mustCreateTrip(t)
	ctx := context.Background()
	code := view.Trip.ShareCode

	if _, err := f.stops.Add(ctx, code, service.AddStopRequest{Name: "A", Lat: 40.71, Lon: -74.00}); err != nil {
		t.Fatalf("add stop: %v", err)
	}
	if _, err := f.stops.Add(ctx, code, service.AddStopRequest{Name: "B", Lat: 40.72, Lon: -74.01}); err != nil {
		t.Fatalf("add stop: %v", err)
	}

	stats, err := f.trips.Stats(ctx, code)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.StopCount != 2 {
		t.Errorf("expected 2 stops, got %d", stats.StopCount)
	}
	if stats.CreatedAt.IsZero() || stats.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	_, err = f.trips.Stats(ctx, "ABCDEF")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown code, got %v", err)
	}
}
