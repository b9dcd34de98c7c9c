package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultIdleTimeout is how long an unfinished conversation survives without messages
const DefaultIdleTimeout = 30 * time.Minute

// SessionService handles chat session lifecycle on top of the session repository
type SessionService struct {
	repo        domain.ChatSessionRepository
	idleTimeout time.Duration
	now         func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(repo domain.ChatSessionRepository, idleTimeout time.Duration) *SessionService {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &SessionService{
		repo:        repo,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// GetOrCreate returns the session of a sender with a club. An unfinished
// session idle for longer than the idle timeout is cleared first.
func (s *SessionService) GetOrCreate(ctx context.Context, sender string, tenantID uuid.UUID) (*domain.ChatSession, error) {
	now := s.now()

	session, err := s.repo.GetBySender(ctx, sender, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session == nil {
		session, err = s.repo.Create(ctx, domain.NewChatSession(sender, tenantID, now))
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		log.Debug().
			Str("sender", sender).
			Str("tenant_id", tenantID.String()).
			Msg("Chat session created")
		return session, nil
	}

	if session.State != domain.StateCompleted && session.IdleFor(s.idleTimeout, now) {
		log.Info().
			Str("session_id", session.ID.String()).
			Time("last_activity", session.LastActivity).
			Msg("Chat session expired, resetting")
		session, err = s.repo.Update(ctx, session.ID, domain.ResetUpdate(), now)
		if err != nil {
			return nil, fmt.Errorf("failed to reset expired session: %w", err)
		}
		return session, nil
	}

	if err := s.repo.Touch(ctx, session.ID, now); err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}
	session.LastActivity = now
	session.UpdatedAt = now
	return session, nil
}

// Update merges the update into the session and bumps its activity
func (s *SessionService) Update(ctx context.Context, id uuid.UUID, update domain.SessionUpdate) (*domain.ChatSession, error) {
	session, err := s.repo.Update(ctx, id, update, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

// Reset clears the collected fields of a sender's session
func (s *SessionService) Reset(ctx context.Context, sender string, tenantID uuid.UUID) (*domain.ChatSession, error) {
	session, err := s.repo.GetBySender(ctx, sender, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session for %s: %w", sender, domain.ErrNotFound)
	}
	return s.Update(ctx, session.ID, domain.ResetUpdate())
}

// Complete marks the session as finished with the created incident, applying
// the staged fields of the completing message in the same write
func (s *SessionService) Complete(ctx context.Context, id, incidentID uuid.UUID, staged domain.SessionUpdate) error {
	state := domain.StateCompleted
	update := staged
	update.State = &state
	update.IncidentID = domain.Value(incidentID)
	_, err := s.Update(ctx, id, update)
	return err
}
