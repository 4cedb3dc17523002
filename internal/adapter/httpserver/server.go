// Package httpserver is the inbound HTTP surface: the notification relay
// endpoint, the interaction webhook, and operational endpoints. It decodes
// platform payloads into typed events and routes everything through the
// application service.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rzeZenphrix/miku-interviewer/internal/app"
	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
	"github.com/rzeZenphrix/miku-interviewer/internal/platform/config"
)

type appService interface {
	NotifyApplicant(ctx context.Context, application domain.Application) error
	HandleInteraction(ctx context.Context, event domain.InteractionEvent) (*app.InteractionResult, error)
}

// HealthCheck is a named health check function.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app          appService
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
