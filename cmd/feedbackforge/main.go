// Command feedbackforge runs the request broker: an MCP stdio server for the
// AI side plus a loopback HTTP side-channel polled by editor windows.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	fhttp "github.com/Strob0t/FeedbackForge/internal/adapter/http"
	"github.com/Strob0t/FeedbackForge/internal/adapter/mcp"
	"github.com/Strob0t/FeedbackForge/internal/config"
	"github.com/Strob0t/FeedbackForge/internal/logger"
	"github.com/Strob0t/FeedbackForge/internal/service"
)

func main() {
	// stdout carries the MCP transport; everything human-readable goes to
	// stderr, including the default logger.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(os.Stderr, cfg.Logging))

	broker := service.NewBrokerService(cfg.Broker)

	// Bind the side-channel first so the port is known before any tool call
	// arrives. Ports in use are skipped, never evicted: one broker per
	// editor-host session is the point.
	ln, port, err := fhttp.Listen(cfg.Broker.BasePort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	broker.SetPort(port)

	slog.Info("broker ready",
		"port", port,
		"pid", os.Getpid(),
		"base_port", cfg.Broker.BasePort,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sig:
			slog.Info("signal received", "signal", s.String())
			broker.TriggerShutdown()
		case <-ctx.Done():
		}
	}()

	go broker.RunInactivityMonitor(ctx)

	handlers := &fhttp.Handlers{
		Broker:        broker,
		ShutdownGrace: cfg.Broker.ShutdownGrace,
	}
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- fhttp.Serve(ctx, ln, fhttp.NewRouter(handlers))
	}()

	mcpSrv := mcp.NewServer(
		mcp.ServerConfig{
			Name:          "feedbackforge",
			Version:       service.Version,
			AutoRetryHint: cfg.Broker.AutoRetryHint,
		},
		mcp.ServerDeps{Feedback: broker, System: broker},
	)
	mcpErr := make(chan error, 1)
	go func() {
		mcpErr <- mcpSrv.ServeStdio(ctx)
	}()

	select {
	case <-broker.ShutdownSignal():
		// Voluntary exit: inactivity, /api/shutdown, or a signal. Pending
		// tool calls have already been resolved with a nil result.
	case err := <-mcpErr:
		// stdin closed — the AI host is gone. Resolve anything pending and
		// leave.
		broker.TriggerShutdown()
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("mcp server exited", "error", err)
		}
	case err := <-httpErr:
		broker.TriggerShutdown()
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	cancel()
	slog.Info("broker stopped")
	return nil
}
