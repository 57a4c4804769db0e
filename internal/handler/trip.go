package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripsync/internal/domain"
	"tripsync/internal/service"
	"tripsync/internal/sharecode"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// DestinationBody is the request form of a destination.
type DestinationBody struct {
	Name    string   `json:"name"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Address string   `json:"address,omitempty"`
}

// CreateTripRequest is the HTTP request body for creating a trip.
type CreateTripRequest struct {
	Name        string           `json:"name,omitempty"`
	Destination *DestinationBody `json:"destination"`
}

// UpdateTripRequest is the HTTP request body for updating a trip.
type UpdateTripRequest struct {
	Name        *string          `json:"name,omitempty"`
	Destination *DestinationBody `json:"destination,omitempty"`
	Route       json.RawMessage  `json:"route,omitempty"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	ShareCode        string          `json:"share_code"`
	ShareCodeDisplay string          `json:"share_code_display"`
	Name             string          `json:"name,omitempty"`
	Destination      DestinationInfo `json:"destination"`
	Route            json.RawMessage `json:"route,omitempty"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
	Stops            []StopResponse  `json:"stops"`
}

// DestinationInfo contains destination details in the response.
type DestinationInfo struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

// TripStatsResponse is the HTTP response for trip statistics.
type TripStatsResponse struct {
	ShareCode string `json:"share_code"`
	StopCount int    `json:"stop_count"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func tripResponse(view *domain.TripWithStops) TripResponse {
	resp := TripResponse{
		ShareCode:        view.Trip.ShareCode,
		ShareCodeDisplay: sharecode.Format(view.Trip.ShareCode),
		Name:             view.Trip.Name,
		Destination: DestinationInfo{
			Name:    view.Trip.Destination.Name,
			Lat:     view.Trip.Destination.Lat,
			Lon:     view.Trip.Destination.Lon,
			Address: view.Trip.Destination.Address,
		},
		Route:     view.Trip.Route,
		CreatedAt: view.Trip.CreatedAt.Format(time.RFC3339),
		UpdatedAt: view.Trip.UpdatedAt.Format(time.RFC3339),
		Stops:     make([]StopResponse, 0, len(view.Stops)),
	}
	for _, stop := range view.Stops {
		resp.Stops = append(resp.Stops, stopResponse(&stop))
	}
	return resp
}

func destinationInput(body *DestinationBody) service.DestinationInput {
	in := service.DestinationInput{
		Name:    body.Name,
		Address: body.Address,
	}
	if body.Lat != nil {
		in.Lat = *body.Lat
	}
	if body.Lon != nil {
		in.Lon = *body.Lon
	}
	return in
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Destination == nil || req.Destination.Lat == nil || req.Destination.Lon == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "destination with lat and lon is required"})
		return
	}

	view, err := h.tripService.Create(c.Request.Context(), service.CreateTripRequest{
		Name:        req.Name,
		Destination: destinationInput(req.Destination),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, tripResponse(view))
}

// GetTrip handles GET /v1/trips/:code
func (h *TripHandler) GetTrip(c *gin.Context) {
	view, err := h.tripService.GetByShareCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(view))
}

// UpdateTrip handles PUT /v1/trips/:code
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	var req UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	update := service.UpdateTripRequest{
		Name:  req.Name,
		Route: req.Route,
	}
	if req.Destination != nil {
		if req.Destination.Lat == nil || req.Destination.Lon == nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "destination lat and lon are required"})
			return
		}
		in := destinationInput(req.Destination)
		update.Destination = &in
	}

	view, err := h.tripService.Update(c.Request.Context(), c.Param("code"), update)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(view))
}

// DeleteTrip handles DELETE /v1/trips/:code
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	if err := h.tripService.SoftDelete(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"deleted": true})
}

// GetStats handles GET /v1/trips/:code/stats
func (h *TripHandler) GetStats(c *gin.Context) {
	stats, err := h.tripService.Stats(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, TripStatsResponse{
		ShareCode: stats.ShareCode,
		StopCount: stats.StopCount,
		CreatedAt: stats.CreatedAt.Format(time.RFC3339),
		UpdatedAt: stats.UpdatedAt.Format(time.RFC3339),
	})
}
