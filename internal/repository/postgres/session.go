package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, sender_address, tenant_id, state, course_id, hole_number, description,
	category, priority, photo_url, incident_id, last_activity, created_at, updated_at`

// SessionRepository implements domain.ChatSessionRepository
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) GetBySender(ctx context.Context, sender string, tenantID uuid.UUID) (*domain.ChatSession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM chat_sessions
		WHERE sender_address = $1 AND tenant_id = $2
	`
	s, err := scanSession(r.pool.QueryRow(ctx, query, sender, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewStorageError("get session", err)
	}
	return s, nil
}

// Create inserts a session. When a concurrent request already created the
// session for the same sender and club, that row is returned instead.
func (r *SessionRepository) Create(ctx context.Context, session *domain.ChatSession) (*domain.ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (id, sender_address, tenant_id, state, priority, last_activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sender_address, tenant_id) DO NOTHING
		RETURNING ` + sessionColumns

	s, err := scanSession(r.pool.QueryRow(ctx, query,
		session.ID,
		session.SenderAddress,
		session.TenantID,
		string(session.State),
		string(session.Priority),
		session.LastActivity,
		session.CreatedAt,
		session.UpdatedAt,
	))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewStorageError("create session", err)
	}

	existing, err := r.GetBySender(ctx, session.SenderAddress, session.TenantID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.NewStorageError("create session", errors.New("conflicting session vanished"))
	}
	return existing, nil
}

func (r *SessionRepository) Update(ctx context.Context, id uuid.UUID, update domain.SessionUpdate, at time.Time) (*domain.ChatSession, error) {
	set, args := buildSessionSet(update, at)
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE chat_sessions
		SET %s
		WHERE id = $%d
		RETURNING %s`, set, len(args), sessionColumns)

	s, err := scanSession(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, domain.NewStorageError("update session", err)
	}
	return s, nil
}

func (r *SessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE chat_sessions SET last_activity = $1, updated_at = $1 WHERE id = $2`
	tag, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return domain.NewStorageError("touch session", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// buildSessionSet renders the SET clause for the fields present in update.
// Activity timestamps are always bumped. Placeholders start at $1.
func buildSessionSet(update domain.SessionUpdate, at time.Time) (string, []any) {
	var (
		cols []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if update.State != nil {
		add("state", string(*update.State))
	}
	if update.CourseID.Set {
		add("course_id", update.CourseID.Value)
	}
	if update.HoleNumber.Set {
		add("hole_number", update.HoleNumber.Value)
	}
	if update.Description.Set {
		add("description", update.Description.Value)
	}
	if update.Category.Set {
		var category *string
		if update.Category.Value != nil {
			c := string(*update.Category.Value)
			category = &c
		}
		add("category", category)
	}
	if update.Priority != nil {
		add("priority", string(*update.Priority))
	}
	if update.PhotoURL.Set {
		add("photo_url", update.PhotoURL.Value)
	}
	if update.IncidentID.Set {
		add("incident_id", update.IncidentID.Value)
	}
	add("last_activity", at)
	add("updated_at", at)

	return strings.Join(cols, ", "), args
}

func scanSession(row pgx.Row) (*domain.ChatSession, error) {
	var (
		s        domain.ChatSession
		state    string
		category *string
		priority string
	)
	if err := row.Scan(
		&s.ID,
		&s.SenderAddress,
		&s.TenantID,
		&state,
		&s.CourseID,
		&s.HoleNumber,
		&s.Description,
		&category,
		&priority,
		&s.PhotoURL,
		&s.IncidentID,
		&s.LastActivity,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.State = domain.ChatState(state)
	s.Priority = domain.Priority(priority)
	if category != nil {
		c := domain.Category(*category)
		s.Category = &c
	}
	return &s, nil
}
