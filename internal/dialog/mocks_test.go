package dialog

import (
	"context"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCourseLookup mocks the CourseLookup interface
type MockCourseLookup struct {
	mock.Mock
}

func (m *MockCourseLookup) ListActive(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Course), args.Error(1)
}

func (m *MockCourseLookup) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

// staticCourses serves a fixed course list
type staticCourses struct {
	courses []domain.Course
}

func (s staticCourses) ListActive(_ context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	var out []domain.Course
	for _, c := range s.courses {
		if c.TenantID == tenantID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s staticCourses) GetByID(_ context.Context, id uuid.UUID) (*domain.Course, error) {
	for _, c := range s.courses {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}
