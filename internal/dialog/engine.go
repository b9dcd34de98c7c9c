// Package dialog implements the incident intake conversation as a state
// machine. The engine reads courses but never writes: it returns the reply
// and the session delta, and the caller persists them.
package dialog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/Rrens/fairway/internal/parser"
	"github.com/google/uuid"
)

const minDescriptionLength = 2

var (
	resetKeywords = map[string]bool{"reset": true, "annuler": true, "recommencer": true}
	skipKeywords  = map[string]bool{"fini": true, "terminé": true, "pas de photo": true, "ok": true}
	courseIndex   = regexp.MustCompile(`^\d+$`)
)

// CourseLookup is the tenant-scoped course access the engine needs
type CourseLookup interface {
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)
}

// Input is one inbound message
type Input struct {
	Text     string
	MediaURL string
}

// HasMedia reports whether the message carries an attachment
func (in Input) HasMedia() bool {
	return strings.TrimSpace(in.MediaURL) != ""
}

// Result is the outcome of processing one message
type Result struct {
	Reply  string
	Update domain.SessionUpdate
}

// Completes reports whether applying the update moves the session to COMPLETED
func (r Result) Completes() bool {
	return r.Update.State != nil && *r.Update.State == domain.StateCompleted
}

// Engine drives the intake conversation
type Engine struct {
	courses    CourseLookup
	classifier parser.Classifier
}

// NewEngine creates a dialog engine
func NewEngine(courses CourseLookup, classifier parser.Classifier) *Engine {
	return &Engine{courses: courses, classifier: classifier}
}

// Process computes the reply and session delta for one message. Bad user input
// is answered with a reprompt; an error is returned only when courses cannot
// be read.
func (e *Engine) Process(ctx context.Context, session domain.ChatSession, in Input) (Result, error) {
	text := strings.TrimSpace(in.Text)
	normalized := normalize(text)

	if resetKeywords[normalized] || session.State == domain.StateCompleted {
		return e.restart(ctx, session)
	}

	switch session.State {
	case domain.StateAwaitingCourse:
		return e.selectCourse(ctx, session, text)
	case domain.StateAwaitingHole:
		return e.selectHole(ctx, session, text)
	case domain.StateAwaitingDescription:
		return e.describe(session, text, in), nil
	case domain.StateAwaitingPhoto:
		return e.collectPhoto(session, text, normalized, in), nil
	default:
		return Result{Reply: msgInvalidState}, nil
	}
}

func (e *Engine) restart(ctx context.Context, session domain.ChatSession) (Result, error) {
	courses, err := e.listCourses(ctx, session.TenantID)
	if err != nil {
		return Result{}, err
	}
	reply := msgNoCourses
	if len(courses) > 0 {
		reply = courseMenu("🔄 Nouveau signalement. Sur quel parcours es-tu ?", courses)
	}
	return Result{Reply: reply, Update: domain.ResetUpdate()}, nil
}

func (e *Engine) selectCourse(ctx context.Context, session domain.ChatSession, text string) (Result, error) {
	courses, err := e.listCourses(ctx, session.TenantID)
	if err != nil {
		return Result{}, err
	}
	if len(courses) == 0 {
		return Result{Reply: msgNoCourses}, nil
	}

	selected := -1
	if courseIndex.MatchString(text) {
		if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(courses) {
			selected = n - 1
		}
	}
	if selected < 0 {
		if id, ok := parser.ExtractCourseName(text, courses); ok {
			for i := range courses {
				if courses[i].ID == id {
					selected = i
					break
				}
			}
		}
	}
	if selected < 0 {
		return Result{Reply: courseMenu("Bonjour ! Sur quel parcours es-tu ?", courses)}, nil
	}

	course := courses[selected]
	state := domain.StateAwaitingHole
	return Result{
		Reply: courseSelected(course),
		Update: domain.SessionUpdate{
			State:      &state,
			CourseID:   domain.Value(course.ID),
			HoleNumber: domain.Null[int](),
		},
	}, nil
}

func (e *Engine) selectHole(ctx context.Context, session domain.ChatSession, text string) (Result, error) {
	if session.CourseID == nil {
		return Result{Reply: msgCourseNotSelected}, nil
	}
	course, err := e.sessionCourse(ctx, session)
	if err != nil {
		return Result{}, err
	}
	if course == nil {
		return Result{Reply: CourseNotFoundReply}, nil
	}

	hole, ok := parser.ExtractHoleNumber(text)
	if !ok {
		return Result{Reply: holeUnreadable(*course)}, nil
	}
	if hole < 1 || hole > course.HoleCount {
		return Result{Reply: holeOutOfRange(*course)}, nil
	}

	state := domain.StateAwaitingDescription
	return Result{
		Reply: holeSelected(hole),
		Update: domain.SessionUpdate{
			State:      &state,
			HoleNumber: domain.Value(hole),
		},
	}, nil
}

func (e *Engine) describe(session domain.ChatSession, text string, in Input) Result {
	if session.CourseID == nil || session.HoleNumber == nil {
		return Result{Reply: msgMissingFields}
	}

	if in.HasMedia() {
		description := text
		if description == "" {
			description = PhotoReceivedDescription
		}
		category, priority := e.classifier.Classify(text)
		state := domain.StateCompleted
		return Result{
			Reply: msgPhotoCompleted,
			Update: domain.SessionUpdate{
				State:       &state,
				Description: domain.Value(description),
				Category:    domain.Value(category),
				Priority:    &priority,
				PhotoURL:    domain.Value(strings.TrimSpace(in.MediaURL)),
			},
		}
	}

	if utf8.RuneCountInString(text) < minDescriptionLength {
		return Result{Reply: msgDescriptionShort}
	}

	category, priority := e.classifier.Classify(text)
	state := domain.StateAwaitingPhoto
	return Result{
		Reply: msgDescriptionStored,
		Update: domain.SessionUpdate{
			State:       &state,
			Description: domain.Value(text),
			Category:    domain.Value(category),
			Priority:    &priority,
		},
	}
}

func (e *Engine) collectPhoto(session domain.ChatSession, text, normalized string, in Input) Result {
	current := ""
	if session.Description != nil {
		current = strings.TrimSpace(*session.Description)
	}

	if skipKeywords[normalized] {
		if current == "" {
			return Result{Reply: msgDescriptionFirst}
		}
		state := domain.StateCompleted
		return Result{Reply: msgCompleted, Update: domain.SessionUpdate{State: &state}}
	}

	if in.HasMedia() {
		state := domain.StateCompleted
		return Result{
			Reply: msgPhotoCompleted,
			Update: domain.SessionUpdate{
				State:    &state,
				PhotoURL: domain.Value(strings.TrimSpace(in.MediaURL)),
			},
		}
	}

	if text == "" {
		return Result{Reply: msgPhotoPrompt}
	}

	amended := text
	if current != "" {
		amended = current + ". " + text
	}
	category, priority := e.classifier.Classify(amended)
	return Result{
		Reply: msgDescriptionAmend,
		Update: domain.SessionUpdate{
			Description: domain.Value(amended),
			Category:    domain.Value(category),
			Priority:    &priority,
		},
	}
}

func (e *Engine) listCourses(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	courses, err := e.courses.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// sessionCourse re-reads the selected course; a course owned by another club
// counts as missing.
func (e *Engine) sessionCourse(ctx context.Context, session domain.ChatSession) (*domain.Course, error) {
	course, err := e.courses.GetByID(ctx, *session.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil || course.TenantID != session.TenantID {
		return nil, nil
	}
	return course, nil
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
