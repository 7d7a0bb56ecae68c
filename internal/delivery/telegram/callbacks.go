package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	user, err := h.userService.EnsureUser(ctx, cb.From.ID, cb.Message.Chat.ID)
	if err != nil {
		h.logger.Error("failed to ensure user", zap.Int64("user_id", cb.From.ID), zap.Error(err))
		return
	}

	data := decodeCallback(cb.Data)
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	var (
		text string
		kb   *tgbotapi.InlineKeyboardMarkup
		ok   bool
	)

	switch data.Action {
	case actionToday:
		text, kb, ok = h.todayPageCallback(ctx, user, data)
	case actionCard:
		text, kb, ok = h.cardCallback(ctx, user, data)
	case actionGame:
		if card, err := h.cardsService.RandomGame(user.Tier); err == nil {
			keyboard := gameKeyboard()
			text, kb, ok = renderGame(card), &keyboard, true
		}
	default:
		// Stale keyboard from an older bot version.
	}

	if ok {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.ReplyMarkup = kb
		if err := h.send(edit); err != nil {
			h.logger.Error("failed to edit message", zap.Error(err))
		}
	}

	// Remove the user's "clock".
	answer := tgbotapi.NewCallback(cb.ID, "")
	if _, err := h.bot.Request(answer); err != nil {
		h.logger.Debug("callback answer error", zap.Error(err))
	}
}

func (h *Handler) todayPageCallback(ctx context.Context, user *entities.User, data callbackData) (string, *tgbotapi.InlineKeyboardMarkup, bool) {
	if len(data.Params) < 2 || data.Params[0] != todayPage {
		return "", nil, false
	}
	page, err := strconv.Atoi(data.Params[1])
	if err != nil || page < 0 {
		return "", nil, false
	}

	cards, err := h.cardsService.GetTodaysCards(ctx, user.ID, user.Tier)
	if err != nil {
		return "", nil, false
	}

	text, keyboard := renderDeckPage(cards, page)
	return text, &keyboard, true
}

// cardCallback opens a card (recording the view) or reveals its answer.
// Cards are addressed by their deck position: callback payloads are capped
// at 64 bytes, which synthesized content ids can exceed.
func (h *Handler) cardCallback(ctx context.Context, user *entities.User, data callbackData) (string, *tgbotapi.InlineKeyboardMarkup, bool) {
	if len(data.Params) < 2 {
		return "", nil, false
	}
	number, err := strconv.Atoi(data.Params[1])
	if err != nil {
		return "", nil, false
	}

	cards, err := h.cardsService.GetTodaysCards(ctx, user.ID, user.Tier)
	if err != nil || number < 1 || number > len(cards) {
		return "", nil, false
	}
	card := cards[number-1]

	switch data.Params[0] {
	case cardView:
		if err := h.progressService.MarkCardAsViewed(ctx, user.ID, card.ContentID); err != nil {
			h.logger.Error("failed to mark card as viewed",
				zap.Int64("user_id", user.ID),
				zap.String("content_id", card.ContentID),
				zap.Error(err),
			)
		}
		return renderCard(card, number, false), cardKeyboard(card, number), true
	case cardAnswer:
		return renderCard(card, number, true), nil, true
	default:
		return "", nil, false
	}
}
