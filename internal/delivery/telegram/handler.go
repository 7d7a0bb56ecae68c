package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

type UserService interface {
	EnsureUser(ctx context.Context, userID, chatID int64) (*entities.User, error)
	GetUser(ctx context.Context, userID int64) (*entities.User, error)
	SwitchTier(ctx context.Context, userID int64) (entities.Tier, error)
}

type CardsService interface {
	GetTodaysCards(ctx context.Context, userID int64, tier entities.Tier) ([]entities.Card, error)
	RandomGame(tier entities.Tier) (entities.Card, error)
}

type ProgressService interface {
	MarkCardAsViewed(ctx context.Context, userID int64, contentID string) error
	GetUserStats(ctx context.Context, userID int64) (*entities.UserStats, error)
}

type Handler struct {
	bot             *tgbotapi.BotAPI
	logger          *zap.Logger
	userService     UserService
	cardsService    CardsService
	progressService ProgressService
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	logger *zap.Logger,
	userService UserService,
	cardsService CardsService,
	progressService ProgressService,
) *Handler {
	return &Handler{
		bot:             bot,
		logger:          logger,
		userService:     userService,
		cardsService:    cardsService,
		progressService: progressService,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	from := update.Message.From
	chatID := update.Message.Chat.ID

	user, err := h.userService.EnsureUser(ctx, from.ID, chatID)
	if err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", from.ID),
			zap.Error(err),
		)
		_ = h.send(newHTMLMessage(chatID, msgInternalError))
		return
	}

	if !update.Message.IsCommand() {
		_ = h.send(newHTMLMessage(chatID, msgUnknownCommand))
		return
	}

	var handlerErr error
	switch update.Message.Command() {
	case "start":
		handlerErr = h.handleStart(chatID)
	case "today":
		handlerErr = h.handleToday(ctx, user, chatID, 0)
	case "card":
		handlerErr = h.handleCard(ctx, user, chatID, update.Message.CommandArguments())
	case "game":
		handlerErr = h.handleGame(ctx, user, chatID)
	case "stats":
		handlerErr = h.handleStats(ctx, user, chatID)
	case "tier":
		handlerErr = h.handleTier(ctx, user, chatID)
	case "help":
		handlerErr = h.send(newHTMLMessage(chatID, msgHelp))
	default:
		handlerErr = h.send(newHTMLMessage(chatID, msgUnknownCommand))
	}

	if handlerErr != nil {
		h.logger.Error("command failed",
			zap.String("command", update.Message.Command()),
			zap.Int64("user_id", from.ID),
			zap.Error(handlerErr),
		)
	}
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	_, err := h.bot.Send(c)
	return err
}
