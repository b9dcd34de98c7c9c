package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Rrens/fairway/internal/dialog"
	"github.com/Rrens/fairway/internal/domain"
	"github.com/Rrens/fairway/internal/parser"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSender = "whatsapp:+33612345678"

type fakeCourseRepo struct {
	courses []domain.Course
}

func (r fakeCourseRepo) ListActive(_ context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	var out []domain.Course
	for _, c := range r.courses {
		if c.TenantID == tenantID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r fakeCourseRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Course, error) {
	for _, c := range r.courses {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

type intakeFixture struct {
	club      *domain.Club
	forest    domain.Course
	ocean     domain.Course
	sessions  *memSessionRepo
	clubs     *MockClubRepository
	incidents *MockIncidentRepository
	archiver  *MockPhotoArchiver
	locker    *recordingLocker
	svc       *IntakeService
}

func newIntakeFixture() *intakeFixture {
	club := &domain.Club{ID: uuid.New(), Name: "Golf des Pins"}
	f := &intakeFixture{
		club:      club,
		forest:    domain.Course{ID: uuid.New(), TenantID: club.ID, Name: "Forêt", HoleCount: 18, IsActive: true},
		ocean:     domain.Course{ID: uuid.New(), TenantID: club.ID, Name: "Océan", HoleCount: 9, IsActive: true},
		sessions:  newMemSessionRepo(),
		clubs:     new(MockClubRepository),
		incidents: new(MockIncidentRepository),
		archiver:  new(MockPhotoArchiver),
		locker:    &recordingLocker{},
	}
	f.clubs.On("GetByWhatsAppNumber", mock.Anything, testSender).Return(club, nil)

	catalog := NewCourseCatalog(fakeCourseRepo{courses: []domain.Course{f.forest, f.ocean}}, nil)
	f.svc = NewIntakeService(
		f.clubs,
		NewSessionService(f.sessions, DefaultIdleTimeout),
		dialog.NewEngine(catalog, parser.NewKeywordClassifier()),
		catalog,
		f.incidents,
		f.archiver,
		f.locker,
	)
	return f
}

func (f *intakeFixture) send(t *testing.T, body string) *IntakeResult {
	t.Helper()
	res, err := f.svc.HandleMessage(context.Background(), InboundMessage{From: testSender, Body: body})
	require.NoError(t, err)
	return res
}

func TestIntakeService_ScriptedFlow(t *testing.T) {
	f := newIntakeFixture()

	var created *domain.Incident
	f.incidents.On("Create", mock.Anything, mock.AnythingOfType("*domain.Incident")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Incident) }).
		Return(nil)

	res := f.send(t, "1")
	assert.Equal(t, domain.StateAwaitingHole, res.State)

	res = f.send(t, "4")
	assert.Equal(t, domain.StateAwaitingDescription, res.State)

	res = f.send(t, "fuite d'eau")
	assert.Equal(t, domain.StateAwaitingPhoto, res.State)

	res = f.send(t, "fini")
	assert.Equal(t, domain.StateCompleted, res.State)
	require.NotNil(t, res.IncidentID)
	assert.Contains(t, res.Reply, "Trou 4 sur Forêt")

	require.NotNil(t, created)
	assert.Equal(t, *res.IncidentID, created.ID)
	assert.Equal(t, f.forest.ID, created.CourseID)
	assert.Equal(t, f.club.ID, created.TenantID)
	assert.Equal(t, 4, created.HoleNumber)
	assert.Equal(t, domain.LoopOutgoing, created.Loop)
	assert.Equal(t, domain.CategoryWatering, created.Category)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Equal(t, domain.IncidentOpen, created.Status)
	assert.Equal(t, "fuite d'eau", created.Description)
	assert.Equal(t, testSender, created.ReportedBy)
	assert.Nil(t, created.PhotoURL)

	f.archiver.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)

	// completion is followed by an automatic reset
	stored := f.sessions.only()
	assert.Equal(t, domain.StateAwaitingCourse, stored.State)
	assert.Nil(t, stored.CourseID)
	assert.Nil(t, stored.IncidentID)

	for _, key := range f.locker.keys {
		assert.Equal(t, f.club.ID.String()+":"+testSender, key)
	}
	assert.Len(t, f.locker.keys, 4)
}

func TestIntakeService_PhotoArchived(t *testing.T) {
	f := newIntakeFixture()
	mediaURL := "https://api.twilio.com/2010-04-01/Accounts/AC1/Messages/MM1/Media/ME1"
	publicURL := "https://cdn.example.com/incident-photos/x.jpg"

	var created *domain.Incident
	f.incidents.On("Create", mock.Anything, mock.AnythingOfType("*domain.Incident")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Incident) }).
		Return(nil)
	f.archiver.On("Archive", mock.Anything, mediaURL, mock.AnythingOfType("uuid.UUID")).Return(publicURL, nil)
	f.incidents.On("UpdatePhotoURL", mock.Anything, mock.AnythingOfType("uuid.UUID"), publicURL).Return(nil)

	f.send(t, "2")
	f.send(t, "trou 8")
	res, err := f.svc.HandleMessage(context.Background(), InboundMessage{
		From:     testSender,
		Body:     "bunker urgent",
		MediaURL: mediaURL,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StateCompleted, res.State)
	require.NotNil(t, created)
	assert.Equal(t, f.ocean.ID, created.CourseID)
	assert.Equal(t, domain.LoopReturning, created.Loop)
	assert.Equal(t, domain.CategoryBunker, created.Category)
	assert.Equal(t, domain.PriorityCritical, created.Priority)
	require.NotNil(t, created.PhotoURL)
	assert.Equal(t, publicURL, *created.PhotoURL)
	f.archiver.AssertExpectations(t)
	f.incidents.AssertExpectations(t)
}

func TestIntakeService_PhotoArchiveFailureKeepsIncident(t *testing.T) {
	f := newIntakeFixture()
	mediaURL := "https://api.twilio.com/media/ME2"

	f.incidents.On("Create", mock.Anything, mock.AnythingOfType("*domain.Incident")).Return(nil)
	f.archiver.On("Archive", mock.Anything, mediaURL, mock.AnythingOfType("uuid.UUID")).
		Return("", domain.ErrTransientMedia)

	f.send(t, "1")
	f.send(t, "12")
	res, err := f.svc.HandleMessage(context.Background(), InboundMessage{From: testSender, MediaURL: mediaURL})
	require.NoError(t, err)

	assert.Equal(t, domain.StateCompleted, res.State)
	assert.NotNil(t, res.IncidentID)
	f.incidents.AssertNotCalled(t, "UpdatePhotoURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestIntakeService_IncidentFailureKeepsSession(t *testing.T) {
	f := newIntakeFixture()
	f.incidents.On("Create", mock.Anything, mock.AnythingOfType("*domain.Incident")).
		Return(domain.NewStorageError("create incident", errors.New("connection reset")))

	f.send(t, "1")
	f.send(t, "4")
	f.send(t, "tonte mal faite")

	_, err := f.svc.HandleMessage(context.Background(), InboundMessage{From: testSender, Body: "fini"})
	assert.ErrorIs(t, err, domain.ErrStorage)

	stored := f.sessions.only()
	assert.Equal(t, domain.StateAwaitingPhoto, stored.State)
	assert.Nil(t, stored.IncidentID)
	require.NotNil(t, stored.Description)
	assert.Equal(t, "tonte mal faite", *stored.Description)
}

func TestIntakeService_IncidentFailureLeavesStagedFieldsUnwritten(t *testing.T) {
	f := newIntakeFixture()
	f.incidents.On("Create", mock.Anything, mock.AnythingOfType("*domain.Incident")).
		Return(domain.NewStorageError("create incident", errors.New("connection reset")))

	f.send(t, "1")
	f.send(t, "4")
	updatesBefore := f.sessions.updates

	_, err := f.svc.HandleMessage(context.Background(), InboundMessage{
		From:     testSender,
		Body:     "bunker inondé",
		MediaURL: "https://api.twilio.com/media/ME3",
	})
	assert.ErrorIs(t, err, domain.ErrStorage)

	stored := f.sessions.only()
	assert.Equal(t, updatesBefore, f.sessions.updates)
	assert.Equal(t, domain.StateAwaitingDescription, stored.State)
	assert.Nil(t, stored.Description)
	assert.Nil(t, stored.PhotoURL)
	assert.Nil(t, stored.Category)
	f.archiver.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)
}

func TestIntakeService_AfterCompletionStartsOver(t *testing.T) {
	f := newIntakeFixture()
	f.incidents.On("Create", mock.Anything, mock.AnythingOfType("*domain.Incident")).Return(nil)

	f.send(t, "1")
	f.send(t, "4")
	f.send(t, "fuite d'eau")
	f.send(t, "fini")

	res := f.send(t, "Forêt")
	assert.Equal(t, domain.StateAwaitingHole, res.State)
}

func TestIntakeService_Reset(t *testing.T) {
	f := newIntakeFixture()

	f.send(t, "1")
	f.send(t, "4")
	res := f.send(t, "annuler")

	assert.Equal(t, domain.StateAwaitingCourse, res.State)
	stored := f.sessions.only()
	assert.Nil(t, stored.CourseID)
	assert.Nil(t, stored.HoleNumber)
}

func TestIntakeService_ResolveTenant(t *testing.T) {
	ctx := context.Background()

	t.Run("strips transport prefix", func(t *testing.T) {
		f := newIntakeFixture()
		f.clubs.On("GetByWhatsAppNumber", mock.Anything, "whatsapp:+15550001111").Return(nil, nil)
		f.clubs.On("GetByWhatsAppNumber", mock.Anything, "+15550001111").Return(f.club, nil)

		club, err := f.svc.ResolveTenant(ctx, "whatsapp:+15550001111")
		require.NoError(t, err)
		assert.Equal(t, f.club.ID, club.ID)
	})

	t.Run("unknown sender", func(t *testing.T) {
		f := newIntakeFixture()
		f.clubs.On("GetByWhatsAppNumber", mock.Anything, "+15550002222").Return(nil, nil)

		_, err := f.svc.ResolveTenant(ctx, "+15550002222")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		f.clubs.AssertNumberOfCalls(t, "GetByWhatsAppNumber", 1)
	})

	t.Run("empty sender", func(t *testing.T) {
		f := newIntakeFixture()

		_, err := f.svc.ResolveTenant(ctx, "  ")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newIntakeFixture()
		f.clubs.On("GetByWhatsAppNumber", mock.Anything, "+15550003333").
			Return(nil, domain.NewStorageError("get club", errors.New("timeout")))

		_, err := f.svc.ResolveTenant(ctx, "+15550003333")
		assert.ErrorIs(t, err, domain.ErrStorage)
	})
}

func TestIntakeService_UnknownSenderIsRejected(t *testing.T) {
	f := newIntakeFixture()
	f.clubs.On("GetByWhatsAppNumber", mock.Anything, "whatsapp:+19990000000").Return(nil, nil)
	f.clubs.On("GetByWhatsAppNumber", mock.Anything, "+19990000000").Return(nil, nil)

	_, err := f.svc.HandleMessage(context.Background(), InboundMessage{From: "whatsapp:+19990000000", Body: "1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Nil(t, f.sessions.only())
	assert.Empty(t, f.locker.keys)
}

func TestIntakeService_LockFailure(t *testing.T) {
	f := newIntakeFixture()
	f.locker.err = domain.ErrBusy

	_, err := f.svc.HandleMessage(context.Background(), InboundMessage{From: testSender, Body: "1"})
	assert.ErrorIs(t, err, domain.ErrBusy)
}
