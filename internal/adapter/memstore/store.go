// Package memstore provides the in-memory session store for single-instance
// deployments. State lives in a mutex-guarded map and is lost on restart;
// the app-layer reaper bounds growth by evicting idle sessions.
package memstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

type Store struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	sessions map[string]*domain.Session
}

func New(clock clockwork.Clock) *Store {
	return &Store{
		clock:    clock,
		sessions: make(map[string]*domain.Session),
	}
}

// Start creates a fresh session for ownerID, replacing any prior one.
func (s *Store) Start(_ context.Context, ownerID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	session := &domain.Session{
		OwnerID:   ownerID,
		Stage:     domain.StageBasicInfo,
		Fields:    make(map[string]string),
		StartedAt: now,
		UpdatedAt: now,
	}
	s.sessions[ownerID] = session

	return copySession(session), nil
}

func (s *Store) Get(_ context.Context, ownerID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[ownerID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copySession(session), nil
}

// Advance merges delta into the session's fields and moves it to next, but
// only if the session is observed in the expected stage. A mismatch means a
// duplicate or superseded event and leaves the session untouched.
func (s *Store) Advance(_ context.Context, ownerID string, expect domain.Stage, delta map[string]string, next domain.Stage) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[ownerID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.Stage != expect {
		return nil, domain.ErrStaleInteraction
	}

	maps.Copy(session.Fields, delta)
	session.Stage = next
	session.UpdatedAt = s.clock.Now()

	return copySession(session), nil
}

// Remove deletes the session. Removing a missing session is a no-op.
func (s *Store) Remove(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, ownerID)
	return nil
}

// EvictIdle removes sessions not touched for longer than maxIdle and
// returns the evicted owner ids.
func (s *Store) EvictIdle(_ context.Context, maxIdle time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var evicted []string
	for ownerID, session := range s.sessions {
		if now.Sub(session.UpdatedAt) > maxIdle {
			delete(s.sessions, ownerID)
			evicted = append(evicted, ownerID)
		}
	}
	return evicted, nil
}

func copySession(session *domain.Session) *domain.Session {
	cp := *session
	cp.Fields = maps.Clone(session.Fields)
	return &cp
}
