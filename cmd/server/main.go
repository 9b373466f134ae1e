package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/codebreakergame/codebreaker-go/internal/api"
	"github.com/codebreakergame/codebreaker-go/internal/factory"
	"github.com/codebreakergame/codebreaker-go/internal/transport"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app := factory.New(factory.Config{
		Logger: logger,
	})
	defer app.Close()

	// Game server over TCP
	gameConfig := transport.DefaultServerConfig()
	if port, ok := envPort("GAME_PORT"); ok {
		gameConfig.Port = port
	}
	gameServer := transport.NewServer(app.Coordinator, app.Bus, gameConfig, logger)

	// Read-only status API over HTTP
	statusConfig := api.DefaultServerConfig()
	if port, ok := envPort("STATUS_PORT"); ok {
		statusConfig.Port = port
	}
	statusRouter := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		GameController: app.GameController,
	})
	statusServer := api.NewServer(statusRouter, statusConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- gameServer.Start(ctx)
	}()
	go func() {
		errCh <- statusServer.Start()
	}()

	logger.Info("server started",
		slog.Int("game_port", gameConfig.Port),
		slog.Int("status_port", statusConfig.Port),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx := context.Background()
	if err := gameServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("game server shutdown error", slog.String("error", err.Error()))
	}
	if err := statusServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("status server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// envPort reads a port number from the environment
func envPort(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		slog.Warn("ignoring invalid port", slog.String("var", name), slog.String("value", raw))
		return 0, false
	}
	return port, true
}
