package service

import (
	"encoding/json"
	"time"

	"tripsync/internal/domain"
)

// Event payloads pushed through the realtime hub. These mirror the HTTP
// response shapes so a subscriber can apply them without a re-fetch.

// TripPayload is the wire form of a trip carried by trip:updated.
type TripPayload struct {
	ShareCode   string          `json:"share_code"`
	Name        string          `json:"name,omitempty"`
	DestName    string          `json:"destination_name"`
	DestLat     float64         `json:"destination_lat"`
	DestLon     float64         `json:"destination_lon"`
	DestAddress string          `json:"destination_address,omitempty"`
	Route       json.RawMessage `json:"route,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Stops       []StopPayload   `json:"stops"`
}

// StopPayload is the wire form of a stop.
type StopPayload struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	Address string    `json:"address,omitempty"`
	Order   int       `json:"order"`
	AddedAt time.Time `json:"added_at"`
}

// TripDeletedPayload is carried by trip:deleted.
type TripDeletedPayload struct {
	ShareCode string `json:"share_code"`
}

// StopRemovedPayload is carried by stop:removed: the removed stop's id plus
// the surviving stops with their closed-up order values.
type StopRemovedPayload struct {
	StopID string        `json:"stop_id"`
	Stops  []StopPayload `json:"stops"`
}

// StopsReorderedPayload is carried by stop:reordered.
type StopsReorderedPayload struct {
	Stops []StopPayload `json:"stops"`
}

func tripPayload(view *domain.TripWithStops) TripPayload {
	return TripPayload{
		ShareCode:   view.Trip.ShareCode,
		Name:        view.Trip.Name,
		DestName:    view.Trip.Destination.Name,
		DestLat:     view.Trip.Destination.Lat,
		DestLon:     view.Trip.Destination.Lon,
		DestAddress: view.Trip.Destination.Address,
		Route:       view.Trip.Route,
		CreatedAt:   view.Trip.CreatedAt,
		UpdatedAt:   view.Trip.UpdatedAt,
		Stops:       stopPayloads(view.Stops),
	}
}

func stopPayload(stop domain.Stop) StopPayload {
	return StopPayload{
		ID:      stop.ID,
		Name:    stop.Name,
		Lat:     stop.Lat,
		Lon:     stop.Lon,
		Address: stop.Address,
		Order:   stop.Order,
		AddedAt: stop.AddedAt,
	}
}

func stopPayloads(stops []domain.Stop) []StopPayload {
	out := make([]StopPayload, 0, len(stops))
	for _, s := range stops {
		out = append(out, stopPayload(s))
	}
	return out
}
