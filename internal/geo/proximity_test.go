package geo

import (
	"testing"

	"tripsync/internal/domain"
)

func TestGuard_ConflictWithinThreshold(t *testing.T) {
	t.Parallel()

	guard := NewGuard(10)
	stops := []domain.Stop{
		{ID: "stop-1", Lat: 40.7128, Lon: -74.0060},
	}

	// ~1m away: conflict.
	id, ok := guard.Conflict(stops, 40.71281, -74.00601, "")
	if !ok || id != "stop-1" {
		t.Errorf("expected conflict with stop-1, got (%q, %v)", id, ok)
	}

	// Identical point: conflict.
	if _, ok := guard.Conflict(stops, 40.7128, -74.0060, ""); !ok {
		t.Error("expected conflict at identical point")
	}

	// ~1.4km away: no conflict.
	if _, ok := guard.Conflict(stops, 40.72, -74.01, ""); ok {
		t.Error("expected no conflict beyond the threshold")
	}
}

func TestGuard_ExcludesOwnStop(t *testing.T) {
	t.Parallel()

	guard := NewGuard(10)
	stops := []domain.Stop{
		{ID: "stop-1", Lat: 40.7128, Lon: -74.0060},
		{ID: "stop-2", Lat: 41.0, Lon: -75.0},
	}

	// Moving stop-1 a meter should not conflict with its own old position.
	if _, ok := guard.Conflict(stops, 40.71281, -74.00601, "stop-1"); ok {
		t.Error("expected no conflict when excluding the stop's own position")
	}

	// But it still conflicts with another stop.
	id, ok := guard.Conflict(stops, 41.000001, -75.000001, "stop-1")
	if !ok || id != "stop-2" {
		t.Errorf("expected conflict with stop-2, got (%q, %v)", id, ok)
	}
}

func TestGuard_EmptyTrip(t *testing.T) {
	t.Parallel()

	guard := NewGuard(10)
	if _, ok := guard.Conflict(nil, 40.7128, -74.0060, ""); ok {
		t.Error("expected no conflict on a trip with no stops")
	}
}

func TestNewGuard_DefaultsOnNonPositiveThreshold(t *testing.T) {
	t.Parallel()

	if got := NewGuard(0).Threshold(); got != DefaultProximityMeters {
		t.Errorf("expected default threshold, got %f", got)
	}
	if got := NewGuard(-5).Threshold(); got != DefaultProximityMeters {
		t.Errorf("expected default threshold, got %f", got)
	}
}
