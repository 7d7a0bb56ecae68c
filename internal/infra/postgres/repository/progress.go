package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres"
)

var ErrStatsNotFound = errors.New("daily stats not found")

// ProgressRepository persists the cumulative seen set and per-day stats.
type ProgressRepository struct {
	db postgres.DBTX
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(db postgres.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetSeenIDs loads the user's full seen set.
func (r *ProgressRepository) GetSeenIDs(ctx context.Context, userID int64) (map[string]struct{}, error) {
	query := `
		SELECT content_id
		FROM user_seen_content
		WHERE user_id = $1
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get seen ids: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen id: %w", err)
		}
		seen[id] = struct{}{}
	}

	return seen, rows.Err()
}

// AddSeenIDs merges newly shown content ids into the seen set. Re-adding an
// id is a no-op, so the set only ever grows.
func (r *ProgressRepository) AddSeenIDs(ctx context.Context, userID int64, ids []string) error {
	query := `
		INSERT INTO user_seen_content (user_id, content_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (user_id, content_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, userID, ids); err != nil {
		return fmt.Errorf("add seen ids: %w", err)
	}

	return nil
}

// CountSeen returns the size of the user's seen set.
func (r *ProgressRepository) CountSeen(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM user_seen_content WHERE user_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count seen: %w", err)
	}

	return count, nil
}

// GetDailyStats retrieves one day's stats for a user.
func (r *ProgressRepository) GetDailyStats(ctx context.Context, userID int64, date string) (*entities.DailyStats, error) {
	query := `
		SELECT cards_generated, new_content_pct, cards_viewed, new_cards_viewed, categories_explored
		FROM user_daily_stats
		WHERE user_id = $1 AND date_utc = $2
	`

	stats := entities.NewDailyStats(date)
	err := r.db.QueryRow(ctx, query, userID, date).Scan(
		&stats.CardsGenerated,
		&stats.NewContentPct,
		&stats.CardsViewed,
		&stats.NewCardsViewed,
		&stats.CategoriesExplored,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatsNotFound
		}
		return nil, fmt.Errorf("get daily stats: %w", err)
	}

	return stats, nil
}

// UpsertDailyStats writes the generation-time counters of a day's stats.
func (r *ProgressRepository) UpsertDailyStats(ctx context.Context, userID int64, stats *entities.DailyStats) error {
	query := `
		INSERT INTO user_daily_stats (user_id, date_utc, cards_generated, new_content_pct)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, date_utc) DO UPDATE SET
			cards_generated = EXCLUDED.cards_generated,
			new_content_pct = EXCLUDED.new_content_pct
	`

	_, err := r.db.Exec(ctx, query, userID, stats.Date, stats.CardsGenerated, stats.NewContentPct)
	if err != nil {
		return fmt.Errorf("upsert daily stats: %w", err)
	}

	return nil
}

// RecordView bumps the user's view counters for a day and marks the card's
// category as explored. The increments are atomic SQL updates, so concurrent
// views from multiple chats cannot lose counts.
func (r *ProgressRepository) RecordView(ctx context.Context, userID int64, date, category string, isNew bool) error {
	newInc := 0
	if isNew {
		newInc = 1
	}

	query := `
		INSERT INTO user_daily_stats (user_id, date_utc, cards_viewed, new_cards_viewed, categories_explored)
		VALUES ($1, $2, 1, $3, ARRAY[$4]::text[])
		ON CONFLICT (user_id, date_utc) DO UPDATE SET
			cards_viewed = user_daily_stats.cards_viewed + 1,
			new_cards_viewed = user_daily_stats.new_cards_viewed + $3,
			categories_explored = CASE
				WHEN $4 = ANY (user_daily_stats.categories_explored) THEN user_daily_stats.categories_explored
				ELSE array_append(user_daily_stats.categories_explored, $4)
			END
	`

	if _, err := r.db.Exec(ctx, query, userID, date, newInc, category); err != nil {
		return fmt.Errorf("record view: %w", err)
	}

	totals := `UPDATE users SET total_cards_viewed = total_cards_viewed + 1 WHERE id = $1`
	if _, err := r.db.Exec(ctx, totals, userID); err != nil {
		return fmt.Errorf("increment total views: %w", err)
	}

	return nil
}

// CountActiveDays returns the number of days with recorded stats.
func (r *ProgressRepository) CountActiveDays(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM user_daily_stats WHERE user_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active days: %w", err)
	}

	return count, nil
}
