package domain

import (
	"encoding/json"
	"time"
)

// TripStatus represents the lifecycle state of a trip.
type TripStatus string

const (
	TripStatusActive  TripStatus = "ACTIVE"
	TripStatusDeleted TripStatus = "DELETED"
)

// Destination is the fixed endpoint of a trip.
type Destination struct {
	Name    string
	Lat     float64
	Lon     float64
	Address string
}

// Trip represents a shared road trip, identified publicly by its share code.
// Deleted trips keep their row so share codes are never reissued; they are
// invisible to every normal operation.
type Trip struct {
	ID          string
	ShareCode   string
	Name        string
	Destination Destination
	Route       json.RawMessage // opaque routing-provider result, stored as-is
	Status      TripStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TripWithStops is the full client-facing view: the trip plus its stops in
// order.
type TripWithStops struct {
	Trip  Trip
	Stops []Stop
}

// TripStats summarizes a trip without materializing its stop list.
type TripStats struct {
	ShareCode string
	StopCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}
