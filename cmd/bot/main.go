package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sparkcards/daily-cards-bot/internal/config"
	"github.com/sparkcards/daily-cards-bot/internal/delivery/telegram"
	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres"
	pgrepo "github.com/sparkcards/daily-cards-bot/internal/infra/postgres/repository"
	"github.com/sparkcards/daily-cards-bot/internal/logger"
	"github.com/sparkcards/daily-cards-bot/internal/repository"
	"github.com/sparkcards/daily-cards-bot/internal/service"
	"github.com/sparkcards/daily-cards-bot/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		zlog.Fatal("failed to create bot", zap.Error(err))
	}
	zlog.Info("authorized", zap.String("account", bot.Self.UserName))

	commands := []tgbotapi.BotCommand{
		{Command: "today", Description: "Today's deck of cards"},
		{Command: "card", Description: "Open a card from today's deck (usage: /card 3)"},
		{Command: "game", Description: "Deal a random game"},
		{Command: "stats", Description: "Your progress"},
		{Command: "tier", Description: "Switch between basic and premium"},
		{Command: "help", Description: "Help"},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		zlog.Warn("failed to set bot commands", zap.Error(err))
	}

	contentRepo, err := repository.NewContentRepository(cfg.Content.BasicPath, cfg.Content.PremiumPath)
	if err != nil {
		zlog.Fatal("failed to load content catalog", zap.Error(err))
	}
	zlog.Info("content catalog loaded",
		zap.Int("basic_items", contentRepo.TotalCount(entities.TierBasic)),
		zap.Int("premium_items", contentRepo.TotalCount(entities.TierPremium)),
	)

	// Wire the persistent store, degrading to the in-memory one when the
	// database is unreachable: the bot keeps working, progress just does
	// not survive a restart.
	var (
		users    service.UserRepository
		progress service.ProgressRepository
		cardSets service.CardSetRepository
		batches  service.BatchRepository
	)

	if dsn, dsnErr := cfg.DB.DSN(); dsnErr != nil {
		zlog.Warn("DATABASE_URL is not set, using in-memory store")
		mem := storage.NewMemory()
		users, progress, cardSets, batches = mem, mem, mem, mem
	} else {
		pool, poolErr := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if poolErr == nil {
			poolErr = pool.Ping(ctx)
		}
		if poolErr != nil {
			zlog.Warn("database unavailable, using in-memory store", zap.Error(poolErr))
			mem := storage.NewMemory()
			users, progress, cardSets, batches = mem, mem, mem, mem
		} else {
			defer pool.Close()
			users = pgrepo.NewUserRepository(pool)
			progress = pgrepo.NewProgressRepository(pool)
			cardSets = pgrepo.NewCardSetRepository(pool)
			batches = pgrepo.NewBatchRepository(postgres.NewTransactor(pool))
		}
	}

	policies := map[entities.Tier]entities.TierPolicy{
		entities.TierBasic: {
			Tier:            entities.TierBasic,
			TargetCount:     cfg.Tiers.Basic.TargetCount,
			NewContentRatio: cfg.Tiers.Basic.NewContentRatio,
		},
		entities.TierPremium: {
			Tier:            entities.TierPremium,
			TargetCount:     cfg.Tiers.Premium.TargetCount,
			NewContentRatio: cfg.Tiers.Premium.NewContentRatio,
		},
	}

	userService := service.NewUserService(users)
	cardsService := service.NewDailyCardsService(
		contentRepo,
		progress,
		cardSets,
		batches,
		service.NewFreshnessSelector(),
		policies,
		zlog,
	)
	progressService := service.NewProgressService(users, progress, cardSets, zlog)
	retentionService := service.NewRetentionService(cardSets, cfg.Retention.Days, cfg.Retention.CronSchedule, zlog)

	go retentionService.Start(ctx)

	handler := telegram.NewHandler(bot, zlog, userService, cardsService, progressService)
	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Error("handler stopped", zap.Error(err))
	}

	zlog.Info("shutdown complete")
}
