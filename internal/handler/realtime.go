package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tripsync/internal/hub"
	"tripsync/internal/service"
	"tripsync/internal/sharecode"
)

// RealtimeHandler upgrades connections into the trip room hub. Joining a
// room requires only knowledge of the share code; that is the whole
// sharing model.
type RealtimeHandler struct {
	hub         *hub.Hub
	tripService *service.TripService
	upgrader    websocket.Upgrader
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(h *hub.Hub, tripService *service.TripService) *RealtimeHandler {
	return &RealtimeHandler{
		hub:         h,
		tripService: tripService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// joinPayload is the data of client join/leave frames.
type joinPayload struct {
	ShareCode string `json:"share_code"`
}

// Subscribe handles GET /v1/trips/:code/ws. The connection auto-joins the
// room in the URL; further join/leave frames manage extra rooms on the
// same connection.
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	code := sharecode.Normalize(c.Param("code"))
	if !sharecode.Valid(code) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: service.ErrInvalidShareCode.Error()})
		return
	}

	// The trip must exist and be active before we hold a socket open for it.
	if _, err := h.tripService.GetByShareCode(c.Request.Context(), code); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	client := h.hub.NewClient(conn)
	go client.WritePump()
	h.hub.Join(client, code)

	client.ReadPump(func(msg hub.Message) {
		var payload joinPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return
		}
		roomCode := sharecode.Normalize(payload.ShareCode)
		if !sharecode.Valid(roomCode) {
			return
		}

		switch msg.Event {
		case "join":
			// Same access rule as the URL join: the code must resolve.
			if _, err := h.tripService.GetByShareCode(c.Request.Context(), roomCode); err != nil {
				return
			}
			h.hub.Join(client, roomCode)
		case "leave":
			h.hub.Leave(client, roomCode)
		}
	})
}

// MemberCount handles GET /v1/trips/:code/members
func (h *RealtimeHandler) MemberCount(c *gin.Context) {
	code := sharecode.Normalize(c.Param("code"))
	if !sharecode.Valid(code) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: service.ErrInvalidShareCode.Error()})
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"members": h.hub.MemberCount(code)})
}
