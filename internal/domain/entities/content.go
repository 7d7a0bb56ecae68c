// Package entities contains domain entities used across the application.
package entities

// Kind classifies a content item by how it is presented and played.
type Kind string

const (
	KindFact     Kind = "fact"     // a short interesting fact
	KindActivity Kind = "activity" // a thing to try today
	KindRiddle   Kind = "riddle"   // a riddle with a hidden answer
	KindMath     Kind = "math"     // a math challenge with a solution
	KindGame     Kind = "game"     // a playable mini-game template
)

// Kinds returns every content kind in catalog order.
func Kinds() []Kind {
	return []Kind{KindFact, KindActivity, KindRiddle, KindMath, KindGame}
}

// ContentItem represents one unit of displayable content from the catalog.
// Items are read-only after catalog load; the ID is derived from the item's
// kind, category and position, so it is stable across restarts.
type ContentItem struct {
	ID          string `json:"-"`
	Kind        Kind   `json:"-"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	Answer      string `json:"answer,omitempty"`      // riddles and math challenges
	Explanation string `json:"explanation,omitempty"` // math challenges
	GameType    string `json:"game_type,omitempty"`   // games only
	Image       string `json:"image,omitempty"`
}
