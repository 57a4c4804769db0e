package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tripsync/internal/domain"
)

// TripCache caches resolved trip views in Redis, keyed by share code.
// Entries are invalidated on every mutation of the trip, so the TTL only
// bounds staleness if an invalidation is lost.
type TripCache struct {
	client *redis.Client
	ttl    time.Duration
}

// TripCacheTTL bounds how long a view can outlive a missed invalidation.
const TripCacheTTL = 30 * time.Second

const tripCachePrefix = "cache:trip:"

// NewTripCache creates a new TripCache.
func NewTripCache(client *redis.Client) *TripCache {
	return &TripCache{client: client, ttl: TripCacheTTL}
}

type cachedTrip struct {
	ID          string          `json:"id"`
	ShareCode   string          `json:"share_code"`
	Name        string          `json:"name,omitempty"`
	DestName    string          `json:"dest_name"`
	DestLat     float64         `json:"dest_lat"`
	DestLon     float64         `json:"dest_lon"`
	DestAddress string          `json:"dest_address,omitempty"`
	Route       json.RawMessage `json:"route,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Stops       []cachedStop    `json:"stops"`
}

type cachedStop struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	Address string    `json:"address,omitempty"`
	Order   int       `json:"order"`
	AddedAt time.Time `json:"added_at"`
}

// Get retrieves a cached trip view. A miss returns (nil, nil).
func (c *TripCache) Get(ctx context.Context, shareCode string) (*domain.TripWithStops, error) {
	data, err := c.client.Get(ctx, tripCachePrefix+shareCode).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached cachedTrip
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	view := domain.TripWithStops{
		Trip: domain.Trip{
			ID:        cached.ID,
			ShareCode: cached.ShareCode,
			Name:      cached.Name,
			Destination: domain.Destination{
				Name:    cached.DestName,
				Lat:     cached.DestLat,
				Lon:     cached.DestLon,
				Address: cached.DestAddress,
			},
			Route:     cached.Route,
			Status:    domain.TripStatusActive,
			CreatedAt: cached.CreatedAt,
			UpdatedAt: cached.UpdatedAt,
		},
		Stops: make([]domain.Stop, 0, len(cached.Stops)),
	}
	for _, s := range cached.Stops {
		view.Stops = append(view.Stops, domain.Stop{
			ID:      s.ID,
			TripID:  cached.ID,
			Name:    s.Name,
			Lat:     s.Lat,
			Lon:     s.Lon,
			Address: s.Address,
			Order:   s.Order,
			AddedAt: s.AddedAt,
		})
	}

	return &view, nil
}

// Set stores a trip view.
func (c *TripCache) Set(ctx context.Context, view *domain.TripWithStops) error {
	cached := cachedTrip{
		ID:          view.Trip.ID,
		ShareCode:   view.Trip.ShareCode,
		Name:        view.Trip.Name,
		DestName:    view.Trip.Destination.Name,
		DestLat:     view.Trip.Destination.Lat,
		DestLon:     view.Trip.Destination.Lon,
		DestAddress: view.Trip.Destination.Address,
		Route:       view.Trip.Route,
		CreatedAt:   view.Trip.CreatedAt,
		UpdatedAt:   view.Trip.UpdatedAt,
		Stops:       make([]cachedStop, 0, len(view.Stops)),
	}
	for _, s := range view.Stops {
		cached.Stops = append(cached.Stops, cachedStop{
			ID:      s.ID,
			Name:    s.Name,
			Lat:     s.Lat,
			Lon:     s.Lon,
			Address: s.Address,
			Order:   s.Order,
			AddedAt: s.AddedAt,
		})
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tripCachePrefix+view.Trip.ShareCode, data, c.ttl).Err()
}

// Invalidate removes a trip view from the cache.
func (c *TripCache) Invalidate(ctx context.Context, shareCode string) error {
	return c.client.Del(ctx, tripCachePrefix+shareCode).Err()
}
