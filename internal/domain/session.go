package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChatState is the position of a conversation in the intake dialog
type ChatState string

const (
	StateAwaitingCourse      ChatState = "AWAITING_COURSE"
	StateAwaitingHole        ChatState = "AWAITING_HOLE"
	StateAwaitingDescription ChatState = "AWAITING_DESCRIPTION"
	StateAwaitingPhoto       ChatState = "AWAITING_PHOTO"
	StateCompleted           ChatState = "COMPLETED"
)

// ChatSession is the persisted conversation state of one sender with one club
type ChatSession struct {
	ID            uuid.UUID  `json:"id"`
	SenderAddress string     `json:"sender_address"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	State         ChatState  `json:"state"`
	CourseID      *uuid.UUID `json:"course_id,omitempty"`
	HoleNumber    *int       `json:"hole_number,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Category      *Category  `json:"category,omitempty"`
	Priority      Priority   `json:"priority"`
	PhotoURL      *string    `json:"photo_url,omitempty"` // transport-hosted, archived at completion
	IncidentID    *uuid.UUID `json:"incident_id,omitempty"`
	LastActivity  time.Time  `json:"last_activity"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewChatSession returns a fresh session waiting for a course selection
func NewChatSession(sender string, tenantID uuid.UUID, now time.Time) *ChatSession {
	return &ChatSession{
		ID:            uuid.New(),
		SenderAddress: sender,
		TenantID:      tenantID,
		State:         StateAwaitingCourse,
		Priority:      PriorityMedium,
		LastActivity:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IdleFor reports whether the session has seen no activity for longer than d
func (s *ChatSession) IdleFor(d time.Duration, now time.Time) bool {
	return now.Sub(s.LastActivity) > d
}

// ReadyToComplete reports whether the minimal incident fields are collected
func (s *ChatSession) ReadyToComplete() bool {
	return s.CourseID != nil &&
		s.HoleNumber != nil &&
		s.Description != nil &&
		strings.TrimSpace(*s.Description) != ""
}

// Nullable is one field of a SessionUpdate. A zero Nullable leaves the stored
// value untouched; a set one overwrites it, with NULL when Value is nil.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Value returns a Nullable that stores v
func Value[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a Nullable that clears the stored value
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n Nullable[T]) apply(dst **T) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}

// SessionUpdate is a partial change to a ChatSession
type SessionUpdate struct {
	State       *ChatState
	CourseID    Nullable[uuid.UUID]
	HoleNumber  Nullable[int]
	Description Nullable[string]
	Category    Nullable[Category]
	Priority    *Priority
	PhotoURL    Nullable[string]
	IncidentID  Nullable[uuid.UUID]
}

// ResetUpdate clears every collected field and returns to course selection
func ResetUpdate() SessionUpdate {
	state := StateAwaitingCourse
	priority := PriorityMedium
	return SessionUpdate{
		State:       &state,
		CourseID:    Null[uuid.UUID](),
		HoleNumber:  Null[int](),
		Description: Null[string](),
		Category:    Null[Category](),
		Priority:    &priority,
		PhotoURL:    Null[string](),
		IncidentID:  Null[uuid.UUID](),
	}
}

// IsEmpty reports whether the update changes nothing
func (u SessionUpdate) IsEmpty() bool {
	return u.State == nil &&
		u.Priority == nil &&
		!u.CourseID.Set &&
		!u.HoleNumber.Set &&
		!u.Description.Set &&
		!u.Category.Set &&
		!u.PhotoURL.Set &&
		!u.IncidentID.Set
}

// Apply returns s with the update merged in. s is not modified.
func (u SessionUpdate) Apply(s ChatSession) ChatSession {
	if u.State != nil {
		s.State = *u.State
	}
	if u.Priority != nil {
		s.Priority = *u.Priority
	}
	u.CourseID.apply(&s.CourseID)
	u.HoleNumber.apply(&s.HoleNumber)
	u.Description.apply(&s.Description)
	u.Category.apply(&s.Category)
	u.PhotoURL.apply(&s.PhotoURL)
	u.IncidentID.apply(&s.IncidentID)
	return s
}

// ChatSessionRepository defines the interface for chat session storage.
// Reads return nil, nil when no row matches.
type ChatSessionRepository interface {
	GetBySender(ctx context.Context, sender string, tenantID uuid.UUID) (*ChatSession, error)
	// Create inserts the session unless one already exists for the same
	// (sender, tenant) pair, and returns the stored row either way.
	Create(ctx context.Context, session *ChatSession) (*ChatSession, error)
	Update(ctx context.Context, id uuid.UUID, update SessionUpdate, at time.Time) (*ChatSession, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}
