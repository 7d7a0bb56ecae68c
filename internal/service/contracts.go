package service

import (
	"context"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

// ContentCatalog is the read-only content pool, grouped by kind and category.
type ContentCatalog interface {
	ItemsByKind(tier entities.Tier, kind entities.Kind) []entities.ContentItem
	Categories(tier entities.Tier, kind entities.Kind) []string
	ItemsByCategory(tier entities.Tier, kind entities.Kind, category string) []entities.ContentItem
	Games(tier entities.Tier) []entities.ContentItem
	RandomGame(tier entities.Tier) (entities.ContentItem, error)
	ByID(tier entities.Tier, id string) (entities.ContentItem, error)
	TotalCount(tier entities.Tier) int
}

type UserRepository interface {
	SaveUser(ctx context.Context, user *entities.User) error
	GetUser(ctx context.Context, userID int64) (*entities.User, error)
	UpdateTier(ctx context.Context, userID int64, tier entities.Tier) error
}

// ProgressRepository owns the cumulative seen set and per-day stats.
// AddSeenIDs must be a merge: re-adding ids never removes or resets anything.
type ProgressRepository interface {
	GetSeenIDs(ctx context.Context, userID int64) (map[string]struct{}, error)
	AddSeenIDs(ctx context.Context, userID int64, ids []string) error
	CountSeen(ctx context.Context, userID int64) (int, error)
	GetDailyStats(ctx context.Context, userID int64, date string) (*entities.DailyStats, error)
	UpsertDailyStats(ctx context.Context, userID int64, stats *entities.DailyStats) error
	RecordView(ctx context.Context, userID int64, date, category string, isNew bool) error
	CountActiveDays(ctx context.Context, userID int64) (int, error)
}

// CardSetRepository reads and sweeps materialized daily batches.
type CardSetRepository interface {
	Get(ctx context.Context, userID int64, date string) (*entities.DailyCardSet, error)
	Delete(ctx context.Context, userID int64, date string) error
	DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error)
}

// BatchRepository commits a new batch together with its progress updates.
// created is false when another writer already materialized the same key.
type BatchRepository interface {
	SaveBatch(ctx context.Context, set *entities.DailyCardSet, newlySeen []string, stats *entities.DailyStats) (created bool, err error)
}
