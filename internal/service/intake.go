package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/fairway/internal/dialog"
	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const msgIncomplete = "❌ Données incomplètes. Veuillez recommencer avec 'reset'."

// PhotoArchiver copies a transport-hosted photo to durable storage and
// returns its public URL
type PhotoArchiver interface {
	Archive(ctx context.Context, sourceURL string, incidentID uuid.UUID) (string, error)
}

// InboundMessage is one message received from the messaging transport
type InboundMessage struct {
	From     string `json:"from" validate:"required,max=64"`
	Body     string `json:"body" validate:"max=4096"`
	MediaURL string `json:"media_url,omitempty" validate:"omitempty,url"`
}

// IntakeResult is the outcome of handling one inbound message
type IntakeResult struct {
	Reply      string           `json:"reply"`
	State      domain.ChatState `json:"state"`
	IncidentID *uuid.UUID       `json:"incident_id,omitempty"`
}

// IntakeService turns conversations into incidents
type IntakeService struct {
	clubs     domain.ClubRepository
	sessions  *SessionService
	engine    *dialog.Engine
	courses   dialog.CourseLookup
	incidents domain.IncidentRepository
	archiver  PhotoArchiver
	locker    SenderLocker
	now       func() time.Time
}

// NewIntakeService creates a new intake service; archiver may be nil
func NewIntakeService(
	clubs domain.ClubRepository,
	sessions *SessionService,
	engine *dialog.Engine,
	courses dialog.CourseLookup,
	incidents domain.IncidentRepository,
	archiver PhotoArchiver,
	locker SenderLocker,
) *IntakeService {
	return &IntakeService{
		clubs:     clubs,
		sessions:  sessions,
		engine:    engine,
		courses:   courses,
		incidents: incidents,
		archiver:  archiver,
		locker:    locker,
		now:       time.Now,
	}
}

// ResolveTenant returns the club registered for a sender address. An address
// with a transport prefix such as "whatsapp:" is retried without it.
func (s *IntakeService) ResolveTenant(ctx context.Context, sender string) (*domain.Club, error) {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return nil, fmt.Errorf("empty sender: %w", domain.ErrUnauthorized)
	}

	club, err := s.clubs.GetByWhatsAppNumber(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}
	if club == nil {
		if _, bare, ok := strings.Cut(sender, ":"); ok && bare != "" {
			club, err = s.clubs.GetByWhatsAppNumber(ctx, bare)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve tenant: %w", err)
			}
		}
	}
	if club == nil {
		return nil, fmt.Errorf("unknown sender %s: %w", sender, domain.ErrUnauthorized)
	}
	return club, nil
}

// HandleMessage runs one inbound message through the conversation of its sender
func (s *IntakeService) HandleMessage(ctx context.Context, msg InboundMessage) (*IntakeResult, error) {
	club, err := s.ResolveTenant(ctx, msg.From)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, conversationKey(club.ID, msg.From))
	if err != nil {
		return nil, fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	session, err := s.sessions.GetOrCreate(ctx, msg.From, club.ID)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Process(ctx, *session, dialog.Input{Text: msg.Body, MediaURL: msg.MediaURL})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("session_id", session.ID.String()).
		Str("state", string(session.State)).
		Str("body", msg.Body).
		Bool("completes", result.Completes()).
		Msg("Message processed")

	if result.Completes() {
		return s.finalize(ctx, club, *session, result)
	}

	if !result.Update.IsEmpty() {
		session, err = s.sessions.Update(ctx, session.ID, result.Update)
		if err != nil {
			return nil, err
		}
	}
	return &IntakeResult{Reply: result.Reply, State: session.State}, nil
}

// finalize turns a completing session into an incident. Nothing is written to
// the session until the incident exists; the fields staged by the completing
// message are stored together with the COMPLETED state.
func (s *IntakeService) finalize(ctx context.Context, club *domain.Club, session domain.ChatSession, result dialog.Result) (*IntakeResult, error) {
	merged := result.Update.Apply(session)
	if !merged.ReadyToComplete() {
		log.Error().Str("session_id", session.ID.String()).Msg("completion requested with missing fields")
		return &IntakeResult{Reply: msgIncomplete, State: session.State}, nil
	}

	course, err := s.courses.GetByID(ctx, *merged.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil || course.TenantID != club.ID {
		return &IntakeResult{Reply: dialog.CourseNotFoundReply, State: session.State}, nil
	}

	category := domain.CategoryOther
	if merged.Category != nil {
		category = *merged.Category
	}
	priority := merged.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	incident := &domain.Incident{
		ID:          uuid.New(),
		TenantID:    club.ID,
		CourseID:    course.ID,
		HoleNumber:  *merged.HoleNumber,
		Loop:        course.LoopFor(*merged.HoleNumber),
		Category:    category,
		Description: *merged.Description,
		Priority:    priority,
		Status:      domain.IncidentOpen,
		ReportedBy:  session.SenderAddress,
		CreatedAt:   s.now(),
	}
	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}

	log.Info().
		Str("incident_id", incident.ID.String()).
		Str("tenant_id", club.ID.String()).
		Str("course", course.Name).
		Int("hole", incident.HoleNumber).
		Str("category", string(incident.Category)).
		Str("priority", string(incident.Priority)).
		Msg("Incident created")

	if merged.PhotoURL != nil {
		s.archivePhoto(ctx, incident, *merged.PhotoURL)
	}

	// The incident is durable from here on. Bookkeeping failures are logged
	// and not surfaced, since a retry from the sender would report twice.
	if err := s.sessions.Complete(ctx, session.ID, incident.ID, result.Update); err != nil {
		log.Error().Err(err).Str("session_id", session.ID.String()).Msg("failed to complete session")
	}
	if _, err := s.sessions.Reset(ctx, session.SenderAddress, session.TenantID); err != nil {
		log.Error().Err(err).Str("session_id", session.ID.String()).Msg("failed to reset completed session")
	}

	return &IntakeResult{
		Reply:      confirmation(incident.HoleNumber, course.Name),
		State:      domain.StateCompleted,
		IncidentID: &incident.ID,
	}, nil
}

func (s *IntakeService) archivePhoto(ctx context.Context, incident *domain.Incident, sourceURL string) {
	if s.archiver == nil {
		return
	}
	publicURL, err := s.archiver.Archive(ctx, sourceURL, incident.ID)
	if err != nil {
		log.Warn().Err(err).Str("incident_id", incident.ID.String()).Msg("photo archival failed, incident kept without photo")
		return
	}
	if err := s.incidents.UpdatePhotoURL(ctx, incident.ID, publicURL); err != nil {
		log.Warn().Err(err).Str("incident_id", incident.ID.String()).Msg("failed to attach archived photo")
		return
	}
	incident.PhotoURL = &publicURL
}

func conversationKey(tenantID uuid.UUID, sender string) string {
	return tenantID.String() + ":" + sender
}

func confirmation(hole int, courseName string) string {
	return fmt.Sprintf("✅ Signalement enregistré au Trou %d sur %s.\n\nVisible sur le Dashboard. Merci !", hole, courseName)
}
