package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

// dynamicMathCard synthesizes an arithmetic challenge when the catalog runs
// dry. The id is random on purpose: synthesized cards are one-offs that are
// never tracked in the seen set, so they must not collide with catalog ids.
func (s *DailyCardsService) dynamicMathCard() entities.Card {
	a := s.rng.Intn(90) + 10
	b := s.rng.Intn(90) + 10

	var question, answer, solution string
	switch s.rng.Intn(3) {
	case 0:
		question = fmt.Sprintf("What is %d + %d?", a, b)
		answer = fmt.Sprintf("%d", a+b)
		solution = fmt.Sprintf("%d + %d = %d", a, b, a+b)
	case 1:
		if a < b {
			a, b = b, a
		}
		question = fmt.Sprintf("What is %d - %d?", a, b)
		answer = fmt.Sprintf("%d", a-b)
		solution = fmt.Sprintf("%d - %d = %d", a, b, a-b)
	default:
		a = s.rng.Intn(12) + 2
		b = s.rng.Intn(12) + 2
		question = fmt.Sprintf("What is %d × %d?", a, b)
		answer = fmt.Sprintf("%d", a*b)
		solution = fmt.Sprintf("%d × %d = %d", a, b, a*b)
	}

	return entities.Card{
		ContentID:   "dynamic_math_" + uuid.NewString(),
		Kind:        entities.KindMath,
		Category:    "Math",
		Title:       "Quick challenge",
		Description: question,
		Action:      "Solve",
		IsNew:       false,
		Answer:      answer,
		Solution:    solution,
	}
}
