// messages.go contains message templates for Telegram.

package telegram

const (
	msgWelcome = "👋 Welcome to Daily Spark!\n\n" +
		"Every day you get a fresh deck of cards: facts, activities, riddles, math challenges and games.\n\n" +
		"/today — see today's deck\n" +
		"/card N — open card number N\n" +
		"/game — deal a random game\n" +
		"/stats — your progress\n" +
		"/tier — switch between basic and premium\n" +
		"/help — all commands"

	msgHelp = "Commands:\n\n" +
		"/today — today's deck (same deck all day)\n" +
		"/card N — open card N from today's deck\n" +
		"/game — a random game outside the deck\n" +
		"/stats — cards viewed, categories explored\n" +
		"/tier — toggle basic/premium (applies from tomorrow's deck)"

	msgDeckUnavailable  = "Could not fetch today's deck. Please try again later."
	msgStatsUnavailable = "Could not fetch your stats. Please try again later."
	msgGameUnavailable  = "No games available right now."
	msgInvalidCardNum   = "Usage: /card N, where N is a card number from /today."
	msgCardOutOfRange   = "There is no card with that number in today's deck."
	msgInternalError    = "Something went wrong. Please try again later."
	msgUnknownCommand   = "Unknown command. Try /today, /card N, /game, /stats or /help."
)

const cardsPerPage = 5
