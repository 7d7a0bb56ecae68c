package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

func kindEmoji(kind entities.Kind) string {
	switch kind {
	case entities.KindFact:
		return "💡"
	case entities.KindActivity:
		return "🎨"
	case entities.KindRiddle:
		return "🧩"
	case entities.KindMath:
		return "🔢"
	case entities.KindGame:
		return "🎮"
	default:
		return "🃏"
	}
}

// renderDeckPage renders one page of the daily deck with buttons to open
// each listed card and page navigation.
func renderDeckPage(cards []entities.Card, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	totalPages := (len(cards) + cardsPerPage - 1) / cardsPerPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * cardsPerPage
	end := start + cardsPerPage
	if end > len(cards) {
		end = len(cards)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🃏 <b>Today's deck</b> — %d cards\n\n", len(cards))
	for i := start; i < end; i++ {
		card := cards[i]
		marker := ""
		if card.IsNew {
			marker = " ✨"
		}
		fmt.Fprintf(&b, "%d. %s %s%s\n", i+1, kindEmoji(card.Kind), card.Title, marker)
	}
	fmt.Fprintf(&b, "\nPage %d of %d. Open a card with the buttons or /card N.", page+1, totalPages)

	var openRow []tgbotapi.InlineKeyboardButton
	for i := start; i < end; i++ {
		data := callbackData{Action: actionCard, Params: []string{cardView, strconv.Itoa(i + 1)}}
		openRow = append(openRow, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(i+1), data.encode()))
	}

	var navRow []tgbotapi.InlineKeyboardButton
	if page > 0 {
		data := callbackData{Action: actionToday, Params: []string{todayPage, strconv.Itoa(page - 1)}}
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("⬅️", data.encode()))
	}
	if page < totalPages-1 {
		data := callbackData{Action: actionToday, Params: []string{todayPage, strconv.Itoa(page + 1)}}
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("➡️", data.encode()))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{openRow}
	if len(navRow) > 0 {
		rows = append(rows, navRow)
	}

	return b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderCard renders one card in full; withAnswer reveals the hidden part
// of riddles and math challenges.
func renderCard(card entities.Card, number int, withAnswer bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s <b>%d. %s</b>\n", kindEmoji(card.Kind), number, card.Title)
	fmt.Fprintf(&b, "<i>%s</i>", card.Category)
	if card.IsNew {
		b.WriteString(" · ✨ new")
	}
	fmt.Fprintf(&b, "\n\n%s", card.Description)

	if withAnswer && card.Answer != "" {
		fmt.Fprintf(&b, "\n\n<b>Answer:</b> %s", card.Answer)
		if card.Solution != "" {
			fmt.Fprintf(&b, "\n<i>%s</i>", card.Solution)
		}
	}

	return b.String()
}

// cardKeyboard returns a reveal-answer keyboard for cards that hide one.
func cardKeyboard(card entities.Card, number int) *tgbotapi.InlineKeyboardMarkup {
	if card.Answer == "" {
		return nil
	}

	data := callbackData{Action: actionCard, Params: []string{cardAnswer, strconv.Itoa(number)}}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Show answer", data.encode()),
		),
	)
	return &kb
}

func renderGame(card entities.Card) string {
	return fmt.Sprintf("🎮 <b>%s</b>\n\n%s", card.Title, card.Description)
}

func gameKeyboard() tgbotapi.InlineKeyboardMarkup {
	data := callbackData{Action: actionGame, Params: []string{gameNew}}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Another game", data.encode()),
		),
	)
}

func renderStats(stats *entities.UserStats, tier entities.Tier) string {
	var b strings.Builder

	b.WriteString("📊 <b>Your progress</b>\n\n")
	fmt.Fprintf(&b, "🎫 Tier: %s\n", tier)
	fmt.Fprintf(&b, "👀 Cards viewed: %d\n", stats.TotalCardsViewed)
	fmt.Fprintf(&b, "🗂 Unique cards seen: %d\n", stats.SeenContentCount)
	fmt.Fprintf(&b, "📅 Days active: %d\n", stats.DaysActive)
	fmt.Fprintf(&b, "🕰 Joined: %s\n", stats.JoinedAt.Format("2 Jan 2006"))

	today := stats.Today
	fmt.Fprintf(&b, "\n<b>Today</b> (%s)\n", today.Date)
	fmt.Fprintf(&b, "· dealt %d cards, %.0f%% fresh\n", today.CardsGenerated, today.NewContentPct)
	fmt.Fprintf(&b, "· viewed %d (%d new)\n", today.CardsViewed, today.NewCardsViewed)
	if len(today.CategoriesExplored) > 0 {
		fmt.Fprintf(&b, "· explored: %s\n", strings.Join(today.CategoriesExplored, ", "))
	}

	return b.String()
}
