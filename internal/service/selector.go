package service

import (
	"math/rand"
	"time"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

// FreshnessSelector draws items from a content pool so that a target
// fraction of the result is content the user has never been shown.
type FreshnessSelector struct {
	rng *rand.Rand
}

// NewFreshnessSelector creates a selector with a time-seeded random source.
func NewFreshnessSelector() *FreshnessSelector {
	return NewFreshnessSelectorWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewFreshnessSelectorWithRand creates a selector with the given random
// source; tests pass a fixed seed for reproducible draws.
func NewFreshnessSelectorWithRand(rng *rand.Rand) *FreshnessSelector {
	return &FreshnessSelector{rng: rng}
}

// Select picks at most count items from items.
//
// The pool is split into unseen and seen partitions, each shuffled to avoid
// positional bias. floor(count*ratio) slots are reserved for unseen items;
// whatever the unseen partition cannot cover is refilled from seen items,
// and any remaining shortfall spills back into unseen items beyond the
// ratio target. When both partitions together hold fewer than count items
// the result is short; that is pool exhaustion, not an error.
//
// The second return value lists the ids of unseen items that made the cut.
// The caller merges them into the seen set exactly once.
func (s *FreshnessSelector) Select(
	items []entities.ContentItem,
	count int,
	seen map[string]struct{},
	ratio float64,
) ([]entities.ContentItem, []string) {
	if count <= 0 || len(items) == 0 {
		return nil, nil
	}
	ratio = clampRatio(ratio)

	var unseen, reviewed []entities.ContentItem
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			reviewed = append(reviewed, item)
		} else {
			unseen = append(unseen, item)
		}
	}
	s.shuffle(unseen)
	s.shuffle(reviewed)

	targetNew := int(float64(count) * ratio)
	if targetNew > len(unseen) {
		targetNew = len(unseen)
	}

	selected := make([]entities.ContentItem, 0, count)
	selected = append(selected, unseen[:targetNew]...)

	for _, item := range reviewed {
		if len(selected) >= count {
			break
		}
		selected = append(selected, item)
	}
	for _, item := range unseen[targetNew:] {
		if len(selected) >= count {
			break
		}
		selected = append(selected, item)
	}

	var newlySeen []string
	for _, item := range selected {
		if _, ok := seen[item.ID]; !ok {
			newlySeen = append(newlySeen, item.ID)
		}
	}

	return selected, newlySeen
}

func (s *FreshnessSelector) shuffle(items []entities.ContentItem) {
	s.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

func clampRatio(ratio float64) float64 {
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}
