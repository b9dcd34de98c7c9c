package postgres

import (
	"context"
	"errors"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CourseRepository implements domain.CourseRepository
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

func (r *CourseRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	query := `
		SELECT id, tenant_id, name, hole_count, is_active, created_at, updated_at
		FROM courses
		WHERE tenant_id = $1 AND is_active = TRUE
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, domain.NewStorageError("list courses", err)
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(
			&c.ID,
			&c.TenantID,
			&c.Name,
			&c.HoleCount,
			&c.IsActive,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, domain.NewStorageError("scan course", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list courses", err)
	}
	return courses, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	query := `
		SELECT id, tenant_id, name, hole_count, is_active, created_at, updated_at
		FROM courses
		WHERE id = $1
	`
	var c domain.Course
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.TenantID,
		&c.Name,
		&c.HoleCount,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewStorageError("get course", err)
	}
	return &c, nil
}
