package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres/repository"
)

// ProgressService tracks card views and produces the user stats summary.
type ProgressService struct {
	users    UserRepository
	progress ProgressRepository
	cardSets CardSetRepository
	logger   *zap.Logger

	now func() time.Time
}

// NewProgressService creates a new ProgressService.
func NewProgressService(
	users UserRepository,
	progress ProgressRepository,
	cardSets CardSetRepository,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		users:    users,
		progress: progress,
		cardSets: cardSets,
		logger:   logger,
		now:      time.Now,
	}
}

// MarkCardAsViewed records that the user opened a card from today's batch.
// It only bumps counters; the seen set is written at selection time and a
// view never mutates it. Ids that are not in today's batch are ignored.
func (s *ProgressService) MarkCardAsViewed(ctx context.Context, userID int64, contentID string) error {
	date := entities.DayKey(s.now())

	set, err := s.cardSets.Get(ctx, userID, date)
	if err != nil {
		if errors.Is(err, repository.ErrCardSetNotFound) || errors.Is(err, repository.ErrCorruptCardSet) {
			s.logger.Debug("view for a day without a batch, ignoring",
				zap.Int64("user_id", userID),
				zap.String("content_id", contentID),
			)
			return nil
		}
		return err
	}

	card, ok := set.CardByContentID(contentID)
	if !ok {
		s.logger.Debug("view for a card outside today's batch, ignoring",
			zap.Int64("user_id", userID),
			zap.String("content_id", contentID),
		)
		return nil
	}

	return s.progress.RecordView(ctx, userID, date, card.Category, card.IsNew)
}

// GetUserStats returns the read-only progress summary for a user.
func (s *ProgressService) GetUserStats(ctx context.Context, userID int64) (*entities.UserStats, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	date := entities.DayKey(s.now())
	today, err := s.progress.GetDailyStats(ctx, userID, date)
	if err != nil {
		if !errors.Is(err, repository.ErrStatsNotFound) {
			return nil, err
		}
		today = entities.NewDailyStats(date)
	}

	seenCount, err := s.progress.CountSeen(ctx, userID)
	if err != nil {
		return nil, err
	}

	daysActive, err := s.progress.CountActiveDays(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &entities.UserStats{
		TotalCardsViewed: user.TotalCardsViewed,
		JoinedAt:         user.CreatedAt,
		DaysActive:       daysActive,
		SeenContentCount: seenCount,
		Today:            *today,
	}, nil
}
