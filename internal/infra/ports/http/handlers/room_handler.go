package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/creatorhq/roomgate/internal/infra/adapters/memory"
)

// RoomHandler exposes a read-only view of the live room registry.
type RoomHandler struct {
	registry *memory.RoomRegistry
}

func NewRoomHandler(registry *memory.RoomRegistry) *RoomHandler {
	return &RoomHandler{registry: registry}
}

func (h *RoomHandler) ListRoomsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, h.registry.Rooms())
}
