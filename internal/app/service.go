// Package app is the application layer, the only component that references
// both the wizard and the relay. Handlers route all operations through here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/metrics"
	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

type wizardController interface {
	Start(ctx context.Context, actorID string) (*domain.Session, error)
	SubmitStage(ctx context.Context, actorID, ownerID string, stage domain.Stage, fields map[string]string) (*domain.Session, error)
	Confirm(ctx context.Context, actorID, ownerID string) (*domain.Announcement, error)
	Cancel(ctx context.Context, actorID, ownerID string) error
}

type applicationRelay interface {
	NotifyApplicant(ctx context.Context, app domain.Application) error
	HandleDecision(ctx context.Context, moderatorID string, decision domain.Decision, applicantID, detail string) error
}

// InteractionResult is what an interaction event produced: the session it
// advanced, or the announcement it published. Both nil for cancel and
// moderator decisions.
type InteractionResult struct {
	Session      *domain.Session      `json:"session,omitempty"`
	Announcement *domain.Announcement `json:"announcement,omitempty"`
}

type Service struct {
	store  domain.SessionStore
	wizard wizardController
	relay  applicationRelay
	clock  clockwork.Clock

	idleTimeout  time.Duration
	reapInterval time.Duration

	reapStopCh chan struct{}
	stopOnce   sync.Once
}

func NewService(store domain.SessionStore, wizard wizardController, relay applicationRelay, clock clockwork.Clock, idleTimeout, reapInterval time.Duration) *Service {
	s := &Service{
		store:        store,
		wizard:       wizard,
		relay:        relay,
		clock:        clock,
		idleTimeout:  idleTimeout,
		reapInterval: reapInterval,
		reapStopCh:   make(chan struct{}),
	}

	s.startReaper()
	return s
}

// NotifyApplicant relays one application status notification.
func (s *Service) NotifyApplicant(ctx context.Context, app domain.Application) error {
	return s.relay.NotifyApplicant(ctx, app)
}

// HandleInteraction dispatches one typed interaction event.
func (s *Service) HandleInteraction(ctx context.Context, event domain.InteractionEvent) (*InteractionResult, error) {
	switch event.Kind {
	case domain.EventWizardStart:
		session, err := s.wizard.Start(ctx, event.ActorID)
		if err != nil {
			return nil, err
		}
		return &InteractionResult{Session: session}, nil

	case domain.EventStageSubmit:
		session, err := s.wizard.SubmitStage(ctx, event.ActorID, event.OwnerID, event.Stage, event.Fields)
		if err != nil {
			return nil, err
		}
		return &InteractionResult{Session: session}, nil

	case domain.EventButtonClick:
		switch event.Action {
		case domain.ActionConfirm:
			announcement, err := s.wizard.Confirm(ctx, event.ActorID, event.OwnerID)
			if err != nil {
				return nil, err
			}
			return &InteractionResult{Announcement: announcement}, nil
		case domain.ActionCancel:
			if err := s.wizard.Cancel(ctx, event.ActorID, event.OwnerID); err != nil {
				return nil, err
			}
			return &InteractionResult{}, nil
		default:
			return nil, domain.NewValidationError("action", fmt.Sprintf("unknown action %q", event.Action))
		}

	case domain.EventModDecision:
		if err := s.relay.HandleDecision(ctx, event.ActorID, event.Decision, event.ApplicantID, event.Detail); err != nil {
			return nil, err
		}
		return &InteractionResult{}, nil

	default:
		return nil, domain.NewValidationError("kind", fmt.Sprintf("unknown event kind %q", event.Kind))
	}
}

// ReapIdleSessions removes sessions left incomplete longer than the idle
// timeout. Incomplete wizards would otherwise accumulate forever: there is
// no natural end to a session whose owner walked away mid-form.
func (s *Service) ReapIdleSessions(ctx context.Context) {
	evicted, err := s.store.EvictIdle(ctx, s.idleTimeout)
	if err != nil {
		slog.Error("EvictIdle error", "error", err)
		return
	}

	if len(evicted) > 0 {
		metrics.SessionsEvictedTotal.Add(float64(len(evicted)))
		slog.Info("Evicted idle wizard sessions", "count", len(evicted), "owners", evicted)
	}
}

func (s *Service) startReaper() {
	ticker := s.clock.NewTicker(s.reapInterval)
	go func() {
		for {
			select {
			case <-ticker.Chan():
				s.ReapIdleSessions(context.Background())
			case <-s.reapStopCh:
				ticker.Stop()
				return
			}
		}
	}()
	slog.Info("Session reaper started", "interval", s.reapInterval, "idle_timeout", s.idleTimeout)
}

// Stop halts the session reaper.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.reapStopCh)
	})
}
