package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/FeedbackForge/internal/middleware"
)

// NewRouter builds the broker's API router. Handler panics become 500s via
// Recoverer — a crashed broker would orphan the pending tool call.
func NewRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(CORS)
	r.Use(middleware.RequestID)
	r.Use(Logger)
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/feedback/current", h.GetCurrentFeedback)
		r.Post("/feedback/submit", h.SubmitFeedback)
		r.Get("/health", h.Health)
		r.Post("/shutdown", h.Shutdown)
	})

	return r
}

// Listen binds a loopback listener starting at basePort, incrementing past
// ports already in use. Incumbent brokers are never evicted: coexisting on
// adjacent ports is what gives each editor window its own broker. Any bind
// error other than address-in-use is fatal.
func Listen(basePort int) (net.Listener, int, error) {
	port := basePort
	for {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			return ln, port, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, 0, fmt.Errorf("bind port %d: %w", port, err)
		}
		slog.Debug("port in use, trying next", "port", port)
		port++
	}
}

// Serve runs the HTTP server on ln until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
