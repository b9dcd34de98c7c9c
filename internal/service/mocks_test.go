package service

import (
	"context"
	"sync"
	"time"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockClubRepository mocks the ClubRepository interface
type MockClubRepository struct {
	mock.Mock
}

func (m *MockClubRepository) GetByWhatsAppNumber(ctx context.Context, address string) (*domain.Club, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Club), args.Error(1)
}

// MockIncidentRepository mocks the IncidentRepository interface
type MockIncidentRepository struct {
	mock.Mock
}

func (m *MockIncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	args := m.Called(ctx, incident)
	return args.Error(0)
}

func (m *MockIncidentRepository) UpdatePhotoURL(ctx context.Context, id uuid.UUID, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

// MockCourseRepository mocks the CourseRepository interface
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Course), args.Error(1)
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

// MockCourseCache mocks the CourseCache interface
type MockCourseCache struct {
	mock.Mock
}

func (m *MockCourseCache) Get(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Course), args.Error(1)
}

func (m *MockCourseCache) Set(ctx context.Context, tenantID uuid.UUID, courses []domain.Course) error {
	args := m.Called(ctx, tenantID, courses)
	return args.Error(0)
}

// MockPhotoArchiver mocks the PhotoArchiver interface
type MockPhotoArchiver struct {
	mock.Mock
}

func (m *MockPhotoArchiver) Archive(ctx context.Context, sourceURL string, incidentID uuid.UUID) (string, error) {
	args := m.Called(ctx, sourceURL, incidentID)
	return args.String(0), args.Error(1)
}

// memSessionRepo is an in-memory ChatSessionRepository keyed by (sender, tenant)
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.ChatSession
	failNext error
	updates  int
	touches  int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[uuid.UUID]*domain.ChatSession)}
}

func (r *memSessionRepo) fail() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *memSessionRepo) put(s domain.ChatSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &s
}

func (r *memSessionRepo) only() *domain.ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		cp := *s
		return &cp
	}
	return nil
}

func (r *memSessionRepo) GetBySender(_ context.Context, sender string, tenantID uuid.UUID) (*domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return nil, err
	}
	for _, s := range r.sessions {
		if s.SenderAddress == sender && s.TenantID == tenantID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) Create(_ context.Context, session *domain.ChatSession) (*domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return nil, err
	}
	cp := *session
	r.sessions[cp.ID] = &cp
	return session, nil
}

func (r *memSessionRepo) Update(_ context.Context, id uuid.UUID, update domain.SessionUpdate, at time.Time) (*domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return nil, err
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := update.Apply(*s)
	next.LastActivity = at
	next.UpdatedAt = at
	r.sessions[id] = &next
	r.updates++
	cp := next
	return &cp, nil
}

func (r *memSessionRepo) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.LastActivity = at
	s.UpdatedAt = at
	r.touches++
	return nil
}

// recordingLocker records the keys it was asked to lock
type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *recordingLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func() {}, nil
}
