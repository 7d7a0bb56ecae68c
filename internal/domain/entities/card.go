package entities

import "time"

// DayKeyLayout is the format of a UTC calendar-day key.
const DayKeyLayout = "2006-01-02"

// DayKey returns the UTC calendar-day key for a point in time.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}

// Card is one entry of a user's daily batch, derived from a content item at
// materialization time. Unlike ContentItem it carries per-user state (IsNew).
type Card struct {
	ContentID   string `json:"content_id"`
	Kind        Kind   `json:"kind"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
	IsNew       bool   `json:"is_new"`
	Answer      string `json:"answer,omitempty"`
	Solution    string `json:"solution,omitempty"`
	Image       string `json:"image,omitempty"`
}

// NewCard builds a card from a catalog item. IsNew marks content the user
// has never been shown before; games are never marked new since their replay
// value does not depend on novelty.
func NewCard(item ContentItem, isNew bool) Card {
	c := Card{
		ContentID:   item.ID,
		Kind:        item.Kind,
		Category:    item.Category,
		Title:       item.Title,
		Description: item.Text,
		Action:      actionForKind(item.Kind),
		IsNew:       isNew && item.Kind != KindGame,
		Answer:      item.Answer,
		Solution:    item.Explanation,
		Image:       item.Image,
	}
	return c
}

func actionForKind(kind Kind) string {
	switch kind {
	case KindActivity:
		return "Try it"
	case KindRiddle:
		return "Guess"
	case KindMath:
		return "Solve"
	case KindGame:
		return "Play"
	default:
		return "Read"
	}
}

// DailyCardSet is the materialized daily batch for one user on one UTC day.
// Once created it is served verbatim for the rest of that day.
type DailyCardSet struct {
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"` // UTC day key, YYYY-MM-DD
	Cards     []Card    `json:"cards"`
	CreatedAt time.Time `json:"created_at"`
}

// CardByContentID returns the card with the given content id, if present.
func (s *DailyCardSet) CardByContentID(contentID string) (Card, bool) {
	for _, c := range s.Cards {
		if c.ContentID == contentID {
			return c, true
		}
	}
	return Card{}, false
}
