package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres"
)

var (
	ErrCardSetNotFound = errors.New("daily card set not found")
	ErrCorruptCardSet  = errors.New("daily card set blob is corrupt")
)

// CardSetRepository persists materialized daily card sets, one JSONB blob
// per (user, UTC day) key.
type CardSetRepository struct {
	db postgres.DBTX
}

// NewCardSetRepository creates a new CardSetRepository.
func NewCardSetRepository(db postgres.DBTX) *CardSetRepository {
	return &CardSetRepository{db: db}
}

// Get loads the card set for a (user, day) key. A blob that no longer
// unmarshals reports ErrCorruptCardSet so the caller can discard it.
func (r *CardSetRepository) Get(ctx context.Context, userID int64, date string) (*entities.DailyCardSet, error) {
	query := `
		SELECT cards, created_at
		FROM daily_card_sets
		WHERE user_id = $1 AND date_utc = $2
	`

	set := &entities.DailyCardSet{UserID: userID, Date: date}
	var blob []byte

	err := r.db.QueryRow(ctx, query, userID, date).Scan(&blob, &set.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardSetNotFound
		}
		return nil, fmt.Errorf("get card set: %w", err)
	}

	if err := json.Unmarshal(blob, &set.Cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCardSet, err)
	}

	return set, nil
}

// Insert stores a freshly materialized card set. It reports false when a set
// for the key already exists; the existing row is never overwritten, which
// keeps the batch stable for the rest of the day.
func (r *CardSetRepository) Insert(ctx context.Context, set *entities.DailyCardSet) (bool, error) {
	blob, err := json.Marshal(set.Cards)
	if err != nil {
		return false, fmt.Errorf("marshal card set: %w", err)
	}

	query := `
		INSERT INTO daily_card_sets (user_id, date_utc, cards)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, date_utc) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, set.UserID, set.Date, blob)
	if err != nil {
		return false, fmt.Errorf("insert card set: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes a single cached card set.
func (r *CardSetRepository) Delete(ctx context.Context, userID int64, date string) error {
	query := `DELETE FROM daily_card_sets WHERE user_id = $1 AND date_utc = $2`

	if _, err := r.db.Exec(ctx, query, userID, date); err != nil {
		return fmt.Errorf("delete card set: %w", err)
	}

	return nil
}

// DeleteOlderThan removes every cached card set strictly older than the
// cutoff day and returns how many were swept. User progress lives in other
// tables and is untouched.
func (r *CardSetRepository) DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error) {
	query := `DELETE FROM daily_card_sets WHERE date_utc < $1`

	tag, err := r.db.Exec(ctx, query, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("delete old card sets: %w", err)
	}

	return tag.RowsAffected(), nil
}
