package httpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/rzeZenphrix/miku-interviewer/internal/app"
	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
	"github.com/rzeZenphrix/miku-interviewer/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	notifyFn            func(ctx context.Context, application domain.Application) error
	handleInteractionFn func(ctx context.Context, event domain.InteractionEvent) (*app.InteractionResult, error)
}

func (m *mockAppService) NotifyApplicant(ctx context.Context, application domain.Application) error {
	if m.notifyFn != nil {
		return m.notifyFn(ctx, application)
	}
	return nil
}

func (m *mockAppService) HandleInteraction(ctx context.Context, event domain.InteractionEvent) (*app.InteractionResult, error) {
	if m.handleInteractionFn != nil {
		return m.handleInteractionFn(ctx, event)
	}
	return nil, errors.New("not implemented")
}

// --- Test helpers ---

const testInteractionSecret = "test-secret-at-least-16-chars"

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	e := echo.New()

	srv := &Server{
		echo: e,
		config: &config.Config{
			InteractionSecret:   testInteractionSecret,
			NotifyRatePerSecond: 100,
			NotifyBurst:         100,
		},
		app: app,
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}
