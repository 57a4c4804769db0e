package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripsync/internal/domain"
	"tripsync/internal/service"
)

// StopHandler handles HTTP requests for stops.
type StopHandler struct {
	stopService *service.StopService
}

// NewStopHandler creates a new StopHandler.
func NewStopHandler(stopService *service.StopService) *StopHandler {
	return &StopHandler{stopService: stopService}
}

// AddStopRequest is the HTTP request body for adding a stop.
type AddStopRequest struct {
	Name    string   `json:"name"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Address string   `json:"address,omitempty"`
}

// UpdateStopRequest is the HTTP request body for updating a stop.
type UpdateStopRequest struct {
	Name    *string  `json:"name,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
	Address *string  `json:"address,omitempty"`
}

// ReorderRequest is the HTTP request body for reordering stops.
type ReorderRequest struct {
	StopIDs []string `json:"stop_ids"`
}

// StopResponse is the HTTP response for stop operations.
type StopResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
	Order   int     `json:"order"`
	AddedAt string  `json:"added_at"`
}

func stopResponse(stop *domain.Stop) StopResponse {
	return StopResponse{
		ID:      stop.ID,
		Name:    stop.Name,
		Lat:     stop.Lat,
		Lon:     stop.Lon,
		Address: stop.Address,
		Order:   stop.Order,
		AddedAt: stop.AddedAt.Format(time.RFC3339),
	}
}

// AddStop handles POST /v1/trips/:code/stops
func (h *StopHandler) AddStop(c *gin.Context) {
	var req AddStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Lat == nil || req.Lon == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lon are required"})
		return
	}

	stop, err := h.stopService.Add(c.Request.Context(), c.Param("code"), service.AddStopRequest{
		Name:    req.Name,
		Lat:     *req.Lat,
		Lon:     *req.Lon,
		Address: req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, stopResponse(stop))
}

// UpdateStop handles PUT /v1/trips/:code/stops/:stopID
func (h *StopHandler) UpdateStop(c *gin.Context) {
	var req UpdateStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	stop, err := h.stopService.Update(c.Request.Context(), c.Param("code"), c.Param("stopID"), service.UpdateStopRequest{
		Name:    req.Name,
		Lat:     req.Lat,
		Lon:     req.Lon,
		Address: req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, stopResponse(stop))
}

// RemoveStop handles DELETE /v1/trips/:code/stops/:stopID
func (h *StopHandler) RemoveStop(c *gin.Context) {
	err := h.stopService.Remove(c.Request.Context(), c.Param("code"), c.Param("stopID"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"deleted": true})
}

// ReorderStops handles PUT /v1/trips/:code/reorder
func (h *StopHandler) ReorderStops(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	stops, err := h.stopService.Reorder(c.Request.Context(), c.Param("code"), req.StopIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]StopResponse, 0, len(stops))
	for _, stop := range stops {
		response = append(response, stopResponse(&stop))
	}

	respondJSON(c, http.StatusOK, response)
}
