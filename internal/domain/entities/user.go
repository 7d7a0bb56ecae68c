package entities

import "time"

// User represents a bot user.
type User struct {
	ID               int64 // Telegram user ID
	ChatID           int64
	Tier             Tier
	TotalCardsViewed int
	IsActive         bool
	CreatedAt        time.Time
}

func NewUser(id, chatID int64) *User {
	return &User{
		ID:     id,
		ChatID: chatID,
		Tier:   TierBasic,
	}
}
