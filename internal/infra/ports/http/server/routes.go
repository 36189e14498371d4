package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/creatorhq/roomgate/internal/infra/ports/http/handlers"
	"github.com/creatorhq/roomgate/internal/infra/ports/http/middleware"
)

func New(
	wsHandler *handlers.WebSocketHandler,
	roomHandler *handlers.RoomHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.GET("/ws/:room", wsHandler.Handle)
	e.GET("/ws/:room/:user", wsHandler.Handle)

	api := e.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/rooms", roomHandler.ListRoomsHandler)
		}
	}

	return e
}
