package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// RoomHandlers provides read-only views of the hub's rooms.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomsResponse lists every room with its member count.
type RoomsResponse struct {
	Rooms []core.RoomStats `json:"rooms"`
}

// StatsResponse summarises server load.
type StatsResponse struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

// ListRooms handles listing rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	stats := h.hub.Directory().Stats()
	h.log.Debug().Int("room_count", len(stats)).Msg("rooms listed")
	c.JSON(http.StatusOK, RoomsResponse{Rooms: stats})
}

// Stats reports live connection and room counts.
// GET /api/stats
func (h *RoomHandlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		Connections: h.hub.Active(),
		Rooms:       len(h.hub.Directory().RoomNames()),
	})
}
