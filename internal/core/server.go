// Package core provides the HTTP chassis for the HiveWatch API. It builds a
// chi router usable both as a standard HTTP server and behind the Lambda
// proxy adapter, and applies the cross-cutting middleware before requests
// reach the domain handlers.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hivewatch/internal/config"
)

// RouteRegistrar mounts a group of domain routes under /v1. Handler packages
// provide registrars so core never imports them.
type RouteRegistrar func(r chi.Router)

// Server holds the dependencies shared by every request.
type Server struct {
	Config           *config.Config
	Logger           *slog.Logger
	Validator        *Validator
	Metrics          MetricsCollector
	Authenticator    Authenticator
	IdempotencyStore IdempotencyStore
	HealthProbes     []HealthProbe

	V1RouteRegistrars []RouteRegistrar

	// Closers run on Shutdown in registration order.
	Closers []func() error

	router *chi.Mux
}

// NewServer validates the essentials and prepares an empty router. The
// caller mounts routes with MountRoutes once every dependency is set.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the chi.Mux for tests and route mounting.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server resources. Every closer runs even if an earlier
// one fails; the errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown initiated")

	var errs []error
	for _, closeFn := range s.Closers {
		if err := closeFn(); err != nil {
			s.Logger.ErrorContext(ctx, "error closing server resource", "error", err)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
