package geo

import "tripsync/internal/domain"

// DefaultProximityMeters is the minimum spacing between two stops of the
// same trip.
const DefaultProximityMeters = 10.0

// Guard rejects stop coordinates that land within a threshold distance of
// an existing stop on the same trip.
type Guard struct {
	thresholdMeters float64
}

// NewGuard creates a proximity guard with the given threshold in meters.
func NewGuard(thresholdMeters float64) *Guard {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultProximityMeters
	}
	return &Guard{thresholdMeters: thresholdMeters}
}

// Threshold returns the configured threshold in meters.
func (g *Guard) Threshold() float64 {
	return g.thresholdMeters
}

// Conflict returns the id of the first stop within the threshold of
// (lat, lon), skipping excludeID so a stop's own position never conflicts
// with itself on update.
func (g *Guard) Conflict(stops []domain.Stop, lat, lon float64, excludeID string) (string, bool) {
	for _, stop := range stops {
		if stop.ID == excludeID {
			continue
		}
		if Distance(stop.Lat, stop.Lon, lat, lon) < g.thresholdMeters {
			return stop.ID, true
		}
	}
	return "", false
}
