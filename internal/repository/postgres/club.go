package postgres

import (
	"context"
	"errors"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClubRepository implements domain.ClubRepository
type ClubRepository struct {
	pool *pgxpool.Pool
}

// NewClubRepository creates a new club repository
func NewClubRepository(pool *pgxpool.Pool) *ClubRepository {
	return &ClubRepository{pool: pool}
}

func (r *ClubRepository) GetByWhatsAppNumber(ctx context.Context, address string) (*domain.Club, error) {
	query := `
		SELECT id, name, whatsapp_number, created_at, updated_at
		FROM clubs
		WHERE whatsapp_number = $1
	`
	var c domain.Club
	err := r.pool.QueryRow(ctx, query, address).Scan(
		&c.ID,
		&c.Name,
		&c.WhatsAppNumber,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewStorageError("get club", err)
	}
	return &c, nil
}
