package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

func (h *Handler) handleStart(chatID int64) error {
	return h.send(newHTMLMessage(chatID, msgWelcome))
}

// handleToday shows one page of today's deck. The deck is materialized on
// the first call of the day and stays identical afterwards.
func (h *Handler) handleToday(ctx context.Context, user *entities.User, chatID int64, page int) error {
	cards, err := h.cardsService.GetTodaysCards(ctx, user.ID, user.Tier)
	if err != nil {
		h.logger.Error("failed to get today's cards", zap.Int64("user_id", user.ID), zap.Error(err))
		return h.send(newHTMLMessage(chatID, msgDeckUnavailable))
	}

	text, keyboard := renderDeckPage(cards, page)
	msg := newHTMLMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return h.send(msg)
}

// handleCard opens one card of today's deck by its 1-based number and
// records the view.
func (h *Handler) handleCard(ctx context.Context, user *entities.User, chatID int64, args string) error {
	number, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return h.send(newHTMLMessage(chatID, msgInvalidCardNum))
	}

	cards, err := h.cardsService.GetTodaysCards(ctx, user.ID, user.Tier)
	if err != nil {
		h.logger.Error("failed to get today's cards", zap.Int64("user_id", user.ID), zap.Error(err))
		return h.send(newHTMLMessage(chatID, msgDeckUnavailable))
	}

	if number < 1 || number > len(cards) {
		return h.send(newHTMLMessage(chatID, msgCardOutOfRange))
	}
	card := cards[number-1]

	if err := h.progressService.MarkCardAsViewed(ctx, user.ID, card.ContentID); err != nil {
		h.logger.Error("failed to mark card as viewed",
			zap.Int64("user_id", user.ID),
			zap.String("content_id", card.ContentID),
			zap.Error(err),
		)
	}

	msg := newHTMLMessage(chatID, renderCard(card, number, false))
	if kb := cardKeyboard(card, number); kb != nil {
		msg.ReplyMarkup = *kb
	}
	return h.send(msg)
}

// handleGame deals a single random game outside the daily deck.
func (h *Handler) handleGame(ctx context.Context, user *entities.User, chatID int64) error {
	card, err := h.cardsService.RandomGame(user.Tier)
	if err != nil {
		return h.send(newHTMLMessage(chatID, msgGameUnavailable))
	}

	msg := newHTMLMessage(chatID, renderGame(card))
	msg.ReplyMarkup = gameKeyboard()
	return h.send(msg)
}

func (h *Handler) handleStats(ctx context.Context, user *entities.User, chatID int64) error {
	stats, err := h.progressService.GetUserStats(ctx, user.ID)
	if err != nil {
		h.logger.Error("failed to get user stats", zap.Int64("user_id", user.ID), zap.Error(err))
		return h.send(newHTMLMessage(chatID, msgStatsUnavailable))
	}

	return h.send(newHTMLMessage(chatID, renderStats(stats, user.Tier)))
}

func (h *Handler) handleTier(ctx context.Context, user *entities.User, chatID int64) error {
	tier, err := h.userService.SwitchTier(ctx, user.ID)
	if err != nil {
		h.logger.Error("failed to switch tier", zap.Int64("user_id", user.ID), zap.Error(err))
		return h.send(newHTMLMessage(chatID, msgInternalError))
	}

	text := fmt.Sprintf(
		"You are now on the <b>%s</b> tier. Today's deck stays as dealt; the change applies from tomorrow.",
		tier,
	)
	return h.send(newHTMLMessage(chatID, text))
}
