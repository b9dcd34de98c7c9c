package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IncidentRepository implements domain.IncidentRepository
type IncidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository creates a new incident repository
func NewIncidentRepository(pool *pgxpool.Pool) *IncidentRepository {
	return &IncidentRepository{pool: pool}
}

func (r *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (id, tenant_id, course_id, hole_number, loop, category, description,
			priority, status, reported_by, photo_url, internal_note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		incident.ID,
		incident.TenantID,
		incident.CourseID,
		incident.HoleNumber,
		string(incident.Loop),
		string(incident.Category),
		incident.Description,
		string(incident.Priority),
		string(incident.Status),
		incident.ReportedBy,
		incident.PhotoURL,
		incident.InternalNote,
		incident.CreatedAt,
	)
	if err != nil {
		return domain.NewStorageError("create incident", err)
	}
	return nil
}

func (r *IncidentRepository) UpdatePhotoURL(ctx context.Context, id uuid.UUID, url string) error {
	query := `UPDATE incidents SET photo_url = $1 WHERE id = $2`
	tag, err := r.pool.Exec(ctx, query, url, id)
	if err != nil {
		return domain.NewStorageError("update incident photo", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("incident %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
