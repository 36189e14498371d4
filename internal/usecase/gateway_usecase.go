package usecase

import (
	"context"
	"log/slog"

	"github.com/creatorhq/roomgate/internal/application/constant"
	"github.com/creatorhq/roomgate/internal/application/metric"
	"github.com/creatorhq/roomgate/internal/domain/events"
	"github.com/creatorhq/roomgate/internal/domain/runtime"
	"github.com/creatorhq/roomgate/internal/infra/adapters/memory"
)

type GatewayUsecase interface {
	HandleJoin(ctx context.Context, sess *runtime.Session)
	HandleLeave(ctx context.Context, sess *runtime.Session)

	HandleFloorRequest(ctx context.Context, sess *runtime.Session)
	HandleFloorRelease(ctx context.Context, sess *runtime.Session)

	HandleChat(ctx context.Context, sess *runtime.Session, msg events.ChatMessage)
	HandleEvent(ctx context.Context, sess *runtime.Session, sig events.EventSignal)
}

type gatewayUsecase struct {
	registry *memory.RoomRegistry
}

func NewGatewayUsecase(registry *memory.RoomRegistry) GatewayUsecase {
	return &gatewayUsecase{registry: registry}
}

func (g *gatewayUsecase) HandleJoin(ctx context.Context, sess *runtime.Session) {
	g.registry.Join(sess)

	slog.Info(
		"session joined",
		slog.String(constant.UserID, sess.Identity),
		slog.String(constant.RoomKey, sess.RoomKey),
		slog.String(constant.SessionID, sess.ID.String()),
	)
}

func (g *gatewayUsecase) HandleLeave(ctx context.Context, sess *runtime.Session) {
	g.registry.Leave(sess)

	slog.Info(
		"session left",
		slog.String(constant.UserID, sess.Identity),
		slog.String(constant.RoomKey, sess.RoomKey),
		slog.String(constant.SessionID, sess.ID.String()),
	)
}

func (g *gatewayUsecase) HandleFloorRequest(ctx context.Context, sess *runtime.Session) {
	granted, holder := g.registry.RequestFloor(sess.RoomKey, sess.Identity)
	if granted {
		metric.IncrementPTTGrants()
		return
	}

	metric.IncrementPTTDenials()

	// A request against an unknown room fails silently. Otherwise the
	// requester, and only the requester, learns who holds the floor.
	if holder == "" {
		return
	}

	if err := sess.Send(events.NewPTTDenied(holder)); err != nil {
		slog.Warn(
			"send floor denial",
			slog.Any(constant.Error, err),
			slog.String(constant.UserID, sess.Identity),
			slog.String(constant.RoomKey, sess.RoomKey),
		)
	}
}

func (g *gatewayUsecase) HandleFloorRelease(ctx context.Context, sess *runtime.Session) {
	g.registry.ReleaseFloor(sess.RoomKey, sess.Identity)
}

func (g *gatewayUsecase) HandleChat(ctx context.Context, sess *runtime.Session, msg events.ChatMessage) {
	g.registry.Relay(sess, events.NewMessage(sess.Identity, msg.Body, msg.Channel))
}

func (g *gatewayUsecase) HandleEvent(ctx context.Context, sess *runtime.Session, sig events.EventSignal) {
	g.registry.Relay(sess, events.NewEvent(sig.Action, sig.Event))
}
