package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	courseCachePrefix = "courses:"
	courseCacheTTL    = 5 * time.Minute
)

// CourseCache caches the active course list of a club in Redis
type CourseCache struct {
	client *Client
	ttl    time.Duration
}

// NewCourseCache creates a new course cache
func NewCourseCache(client *Client) *CourseCache {
	return &CourseCache{client: client, ttl: courseCacheTTL}
}

func courseKey(tenantID uuid.UUID) string {
	return courseCachePrefix + tenantID.String()
}

// Get retrieves the cached course list of a club; nil on a miss
func (c *CourseCache) Get(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	data, err := c.client.rdb.Get(ctx, courseKey(tenantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to read course cache: %w", err)
	}

	var courses []domain.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal courses: %w", err)
	}

	return courses, nil
}

// Set caches the course list of a club
func (c *CourseCache) Set(ctx context.Context, tenantID uuid.UUID, courses []domain.Course) error {
	data, err := json.Marshal(courses)
	if err != nil {
		return fmt.Errorf("failed to marshal courses: %w", err)
	}

	return c.client.rdb.Set(ctx, courseKey(tenantID), data, c.ttl).Err()
}

// Invalidate removes the cached course list of a club
func (c *CourseCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return c.client.rdb.Del(ctx, courseKey(tenantID)).Err()
}
