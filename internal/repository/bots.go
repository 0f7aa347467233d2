package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whowhywhen/whowhywhen/internal/model"
)

// ErrDuplicateSignature is returned when a signature name already exists.
var ErrDuplicateSignature = errors.New("bot signature already exists")

// BotRepository persists and reads bot signatures. It is the matcher's
// SignatureSource.
type BotRepository struct {
	pool *pgxpool.Pool
}

// NewBotRepository returns a BotRepository using the given pool.
func NewBotRepository(pool *pgxpool.Pool) *BotRepository {
	return &BotRepository{pool: pool}
}

// CreateSignature inserts a new signature and fills in ID and CreatedAt.
func (r *BotRepository) CreateSignature(ctx context.Context, sig *model.BotSignature) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bot_signatures (name, website, pattern)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		sig.Name, sig.Website, sig.Pattern,
	).Scan(&sig.ID, &sig.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSignature
		}
		return fmt.Errorf("insert bot signature: %w", err)
	}
	return nil
}

// ListSignatures returns all signatures in insertion order. The matcher's
// first-match-wins tie-break depends on this ordering.
func (r *BotRepository) ListSignatures(ctx context.Context) ([]model.BotSignature, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, website, pattern, created_at
		FROM bot_signatures
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list bot signatures: %w", err)
	}
	defer rows.Close()

	var list []model.BotSignature
	for rows.Next() {
		var sig model.BotSignature
		if err := rows.Scan(&sig.ID, &sig.Name, &sig.Website, &sig.Pattern, &sig.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bot signature: %w", err)
		}
		list = append(list, sig)
	}
	return list, rows.Err()
}

// GetSignature returns one signature by id, or nil if not found.
func (r *BotRepository) GetSignature(ctx context.Context, id int64) (*model.BotSignature, error) {
	var sig model.BotSignature
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, website, pattern, created_at
		FROM bot_signatures WHERE id = $1`, id,
	).Scan(&sig.ID, &sig.Name, &sig.Website, &sig.Pattern, &sig.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sig, nil
}
