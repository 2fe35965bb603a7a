// Package server exposes the webhook callback, a health report and the
// Prometheus metrics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
	"github.com/Guliveer/twitch-eventsub-go/internal/metrics"
)

// DefaultWebhookRateLimit is the per-IP request budget per minute on the
// webhook route.
const DefaultWebhookRateLimit = 600

// Config wires a Server.
type Config struct {
	Addr string
	// WebhookPath is where Webhook is mounted. Ignored when Webhook is nil.
	WebhookPath string
	Webhook     http.Handler
	// WebhookRateLimit is requests per minute per IP. Zero means
	// DefaultWebhookRateLimit, negative disables limiting.
	WebhookRateLimit int
	// Gatherer backs /metrics. Nil leaves the route out.
	Gatherer prometheus.Gatherer
	Health   HealthFunc
	Log      *logger.Logger
}

// Server is the HTTP front of the process.
type Server struct {
	cfg    Config
	log    *logger.Logger
	router chi.Router
	srv    *http.Server
}

// New returns a Server with its routes mounted.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logger.Discard()
	}
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/webhook"
	}
	if cfg.WebhookRateLimit == 0 {
		cfg.WebhookRateLimit = DefaultWebhookRateLimit
	}

	s := &Server{cfg: cfg, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(withLogging(log))

	r.Get("/health", s.handleHealth)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))
	}
	if cfg.Webhook != nil {
		r.Group(func(r chi.Router) {
			if cfg.WebhookRateLimit > 0 {
				r.Use(rateLimit(cfg.WebhookRateLimit, time.Minute))
			}
			r.Method(http.MethodPost, cfg.WebhookPath, cfg.Webhook)
		})
	}
	s.router = r

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.Background()
		},
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully. It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("HTTP server starting", "addr", ln.Addr().String(), "webhook", s.cfg.Webhook != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultGracefulShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
