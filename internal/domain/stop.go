package domain

import "time"

// Stop is one waypoint on a trip. Order values within a trip are dense:
// for N stops they are exactly {0..N-1} after every mutation.
type Stop struct {
	ID      string
	TripID  string
	Name    string
	Lat     float64
	Lon     float64
	Address string
	Order   int
	AddedAt time.Time
}
