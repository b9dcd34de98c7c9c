package service

import (
	"context"
	"fmt"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CourseCache caches the active course list of a club
type CourseCache interface {
	Get(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error)
	Set(ctx context.Context, tenantID uuid.UUID, courses []domain.Course) error
}

// CourseCatalog serves course lookups for the dialog. Active course lists go
// through the cache when one is configured; single courses are always read
// from the repository.
type CourseCatalog struct {
	repo  domain.CourseRepository
	cache CourseCache
}

// NewCourseCatalog creates a course catalog; cache may be nil
func NewCourseCatalog(repo domain.CourseRepository, cache CourseCache) *CourseCatalog {
	return &CourseCatalog{repo: repo, cache: cache}
}

// ListActive returns the active courses of a club ordered by name
func (c *CourseCatalog) ListActive(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, tenantID)
		if err != nil {
			log.Warn().Err(err).Str("tenant_id", tenantID.String()).Msg("course cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	courses, err := c.repo.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active courses: %w", err)
	}

	if c.cache != nil && len(courses) > 0 {
		if err := c.cache.Set(ctx, tenantID, courses); err != nil {
			log.Warn().Err(err).Str("tenant_id", tenantID.String()).Msg("course cache write failed")
		}
	}
	return courses, nil
}

// GetByID returns a course, or nil when it does not exist
func (c *CourseCatalog) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	course, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}
