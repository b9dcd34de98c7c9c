package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Category classifies an incident
type Category string

const (
	CategoryWatering Category = "Watering"
	CategoryMowing   Category = "Mowing"
	CategoryBunker   Category = "Bunker"
	CategorySignage  Category = "Signage"
	CategoryOther    Category = "Other"
)

// Priority represents how urgently an incident needs attention
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Loop is the half of the course a hole belongs to
type Loop string

const (
	LoopOutgoing  Loop = "outgoing"
	LoopReturning Loop = "returning"
)

// IncidentStatus represents the lifecycle of an incident on the dashboard
type IncidentStatus string

const (
	IncidentOpen       IncidentStatus = "Open"
	IncidentInProgress IncidentStatus = "In_Progress"
	IncidentResolved   IncidentStatus = "Resolved"
)

// Incident is a maintenance report on one hole of a course
type Incident struct {
	ID           uuid.UUID      `json:"id"`
	TenantID     uuid.UUID      `json:"tenant_id"`
	CourseID     uuid.UUID      `json:"course_id"`
	HoleNumber   int            `json:"hole_number"`
	Loop         Loop           `json:"loop"`
	Category     Category       `json:"category"`
	Description  string         `json:"description"`
	Priority     Priority       `json:"priority"`
	Status       IncidentStatus `json:"status"`
	ReportedBy   string         `json:"reported_by"`
	PhotoURL     *string        `json:"photo_url,omitempty"`
	InternalNote *string        `json:"internal_note,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	ResolvedAt   *time.Time     `json:"resolved_at,omitempty"`
}

// IncidentRepository defines the interface for incident storage
type IncidentRepository interface {
	Create(ctx context.Context, incident *Incident) error
	UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error
}
