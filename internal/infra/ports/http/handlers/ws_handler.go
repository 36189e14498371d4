package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/creatorhq/roomgate/internal/application/config"
	"github.com/creatorhq/roomgate/internal/application/constant"
	"github.com/creatorhq/roomgate/internal/application/metric"
	"github.com/creatorhq/roomgate/internal/domain/events"
	"github.com/creatorhq/roomgate/internal/domain/runtime"
	"github.com/creatorhq/roomgate/internal/infra/identity"
	"github.com/creatorhq/roomgate/internal/usecase"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	resolver identity.Resolver
	gateway  usecase.GatewayUsecase
}

func NewWebSocketHandler(cfg *config.Config, resolver identity.Resolver, gateway usecase.GatewayUsecase) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		resolver: resolver,
		gateway:  gateway,
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	roomKey := c.Param("room")
	if roomKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing room key")
	}

	callerID, err := h.resolver.Resolve(c)
	if err != nil {
		slog.Warn("resolve identity", slog.Any(constant.Error, err))
		return echo.NewHTTPError(http.StatusUnauthorized, "unresolved identity")
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"WebSocket upgrade error",
			slog.Any(constant.Error, err),
		)
		return err
	}
	defer ws.Close()

	metric.IncrementWSActiveConnections()
	defer metric.DecrementWSActiveConnections()

	sess := runtime.NewSession(roomKey, callerID, ws)
	ctx := c.Request().Context()

	h.gateway.HandleJoin(ctx, sess)
	// Every exit path, voluntary close or transport failure, runs the leave
	// cleanup exactly once; the registry absorbs the duplicate if a broadcast
	// already pruned the session.
	defer h.gateway.HandleLeave(ctx, sess)

	ws.SetReadLimit(maxMessageSize)
	if err := ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := sess.Ping(); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				slog.Error(
					"webSocket read error",
					slog.Any(constant.Error, err),
					slog.String(constant.UserID, callerID),
				)
			}

			return nil
		}

		h.handleFrame(c, sess, raw)
	}
}

func (h *WebSocketHandler) handleFrame(c echo.Context, sess *runtime.Session, raw []byte) {
	ctx := c.Request().Context()

	frame, err := events.DecodeInbound(raw)
	if err != nil {
		// Malformed frames are dropped; the connection stays open.
		slog.Warn(
			"drop malformed frame",
			slog.Any(constant.Error, err),
			slog.String(constant.UserID, sess.Identity),
			slog.String(constant.RoomKey, sess.RoomKey),
		)

		return
	}

	metric.IncrementInboundFrames(frame.FrameType())

	switch f := frame.(type) {
	case events.PTTCommand:
		switch f.Action {
		case events.ActionRequest:
			h.gateway.HandleFloorRequest(ctx, sess)
		case events.ActionRelease:
			h.gateway.HandleFloorRelease(ctx, sess)
		default:
			slog.Warn(
				"drop ptt frame with unknown action",
				slog.String("action", f.Action),
				slog.String(constant.UserID, sess.Identity),
			)
		}
	case events.ChatMessage:
		h.gateway.HandleChat(ctx, sess, f)
	case events.EventSignal:
		h.gateway.HandleEvent(ctx, sess, f)
	}
}
