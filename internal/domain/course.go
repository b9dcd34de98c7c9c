package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Course is a playable course owned by a club
type Course struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	HoleCount int       `json:"hole_count"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoopFor returns the loop of a hole: the first ceil(holes/2) holes are outgoing
func (c Course) LoopFor(hole int) Loop {
	if hole <= (c.HoleCount+1)/2 {
		return LoopOutgoing
	}
	return LoopReturning
}

// CourseRepository defines read access to courses
type CourseRepository interface {
	// ListActive returns the active courses of a club ordered by name
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Course, error)
}

// Club is the tenant: it owns courses and incidents and is resolved from
// the sender's messaging address
type Club struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	WhatsAppNumber *string   `json:"whatsapp_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ClubRepository defines read access to clubs
type ClubRepository interface {
	GetByWhatsAppNumber(ctx context.Context, address string) (*Club, error)
}
