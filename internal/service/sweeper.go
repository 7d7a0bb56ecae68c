package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

// RetentionService sweeps materialized daily card sets that have aged out
// of the retention window. The sweep is pure cache maintenance: user
// progress and the seen set are never touched, and a failed sweep only
// costs storage, so every error here is logged and swallowed.
type RetentionService struct {
	cardSets CardSetRepository
	logger   *zap.Logger

	retentionDays int
	schedule      string
	now           func() time.Time
}

// NewRetentionService creates a new RetentionService.
func NewRetentionService(cardSets CardSetRepository, retentionDays int, schedule string, logger *zap.Logger) *RetentionService {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &RetentionService{
		cardSets:      cardSets,
		logger:        logger,
		retentionDays: retentionDays,
		schedule:      schedule,
		now:           time.Now,
	}
}

// RunOnce deletes every card set strictly older than the retention window.
func (s *RetentionService) RunOnce(ctx context.Context) {
	cutoff := entities.DayKey(s.now().AddDate(0, 0, -s.retentionDays))

	deleted, err := s.cardSets.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		s.logger.Info("retention sweep removed old card sets",
			zap.Int64("deleted", deleted),
			zap.String("cutoff", cutoff),
		)
	}
}

// Start runs one sweep immediately and then follows the cron schedule until
// the context is cancelled.
func (s *RetentionService) Start(ctx context.Context) {
	s.logger.Info("retention service started",
		zap.Int("retention_days", s.retentionDays),
		zap.String("schedule", s.schedule),
	)

	s.RunOnce(ctx)

	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		s.logger.Error("failed to add cron job", zap.Error(err))
		return
	}

	c.Start()

	<-ctx.Done()

	c.Stop()
	s.logger.Info("retention service stopped")
}
