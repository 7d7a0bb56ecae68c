package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres"
)

// BatchRepository commits a materialized batch atomically: the card set row,
// the seen-set merge and the generation stats land in one transaction, so a
// crash mid-write cannot leave ids marked seen for a batch that was never
// stored.
type BatchRepository struct {
	tr *postgres.Transactor
}

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(tr *postgres.Transactor) *BatchRepository {
	return &BatchRepository{tr: tr}
}

// SaveBatch persists a new daily card set together with its progress
// updates. If another writer already stored a set for the same key, nothing
// is written and created is false; the caller should re-read the winner.
func (r *BatchRepository) SaveBatch(
	ctx context.Context,
	set *entities.DailyCardSet,
	newlySeen []string,
	stats *entities.DailyStats,
) (created bool, err error) {
	err = r.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		cardSets := NewCardSetRepository(tx)

		inserted, err := cardSets.Insert(ctx, set)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		progress := NewProgressRepository(tx)
		if len(newlySeen) > 0 {
			if err := progress.AddSeenIDs(ctx, set.UserID, newlySeen); err != nil {
				return err
			}
		}
		if err := progress.UpsertDailyStats(ctx, set.UserID, stats); err != nil {
			return err
		}

		created = true
		return nil
	})

	return created, err
}
