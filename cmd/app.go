package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/creatorhq/roomgate/internal/application/config"
	"github.com/creatorhq/roomgate/internal/application/constant"
	"github.com/creatorhq/roomgate/internal/application/metric"
	"github.com/creatorhq/roomgate/internal/infra/adapters/memory"
	"github.com/creatorhq/roomgate/internal/infra/identity"
	"github.com/creatorhq/roomgate/internal/infra/ports/http/handlers"
	"github.com/creatorhq/roomgate/internal/infra/ports/http/server"
	"github.com/creatorhq/roomgate/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelInfo},
			),
		),
	)

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	slog.Info("Running app", slog.Bool("debug", cfg.Debug))

	registry := memory.NewRoomRegistry()
	gatewayUsecase := usecase.NewGatewayUsecase(registry)

	var resolver identity.Resolver = identity.NewPathResolver()
	if cfg.JWTSecret != "" {
		resolver = identity.NewJWTResolver(cfg.JWTSecret)
	}

	wsHandler := handlers.NewWebSocketHandler(cfg, resolver, gatewayUsecase)
	roomHandler := handlers.NewRoomHandler(registry)

	echoSrv := server.New(wsHandler, roomHandler)

	metricsSrv := metric.NewServer()

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error(
			"Metrics server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(ctx, 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
	}
}
