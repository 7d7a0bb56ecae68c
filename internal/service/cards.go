package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres/repository"
)

// ratioKinds are the kinds whose daily quota is sampled through the
// freshness selector. Games are excluded: the whole game catalog ships
// unconditionally every day.
var ratioKinds = []entities.Kind{
	entities.KindFact,
	entities.KindActivity,
	entities.KindRiddle,
	entities.KindMath,
}

// DailyCardsService materializes and serves the per-user daily card batch.
// For any (user, UTC day) key the batch is built exactly once and served
// verbatim afterwards.
type DailyCardsService struct {
	catalog  ContentCatalog
	progress ProgressRepository
	cardSets CardSetRepository
	batches  BatchRepository
	selector *FreshnessSelector
	policies map[entities.Tier]entities.TierPolicy
	logger   *zap.Logger

	rng   *rand.Rand
	now   func() time.Time
	locks userLocks
}

// NewDailyCardsService creates a new DailyCardsService.
func NewDailyCardsService(
	catalog ContentCatalog,
	progress ProgressRepository,
	cardSets CardSetRepository,
	batches BatchRepository,
	selector *FreshnessSelector,
	policies map[entities.Tier]entities.TierPolicy,
	logger *zap.Logger,
) *DailyCardsService {
	return &DailyCardsService{
		catalog:  catalog,
		progress: progress,
		cardSets: cardSets,
		batches:  batches,
		selector: selector,
		policies: policies,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// PolicyFor returns the normalized batch policy of a tier.
func (s *DailyCardsService) PolicyFor(tier entities.Tier) entities.TierPolicy {
	policy, ok := s.policies[tier]
	if !ok {
		policy = s.policies[entities.TierBasic]
	}
	policy.Tier = tier
	return policy.Normalize()
}

// GetTodaysCards returns the user's batch for the current UTC day,
// materializing it on first call. Repeated calls within the same day return
// the identical batch; re-reading never touches the seen set.
func (s *DailyCardsService) GetTodaysCards(ctx context.Context, userID int64, tier entities.Tier) ([]entities.Card, error) {
	date := entities.DayKey(s.now())

	if cards, ok := s.cached(ctx, userID, date); ok {
		return cards, nil
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	// Another request may have materialized the batch while we waited.
	if cards, ok := s.cached(ctx, userID, date); ok {
		return cards, nil
	}

	seen, err := s.progress.GetSeenIDs(ctx, userID)
	if err != nil {
		// Degraded mode: select without history rather than fail the day.
		s.logger.Warn("seen set unavailable, selecting without history",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		seen = make(map[string]struct{})
	}

	cards := s.composeBatch(tier, seen)

	set := &entities.DailyCardSet{
		UserID:    userID,
		Date:      date,
		Cards:     cards,
		CreatedAt: s.now(),
	}
	stats := entities.NewDailyStats(date)
	stats.CardsGenerated = len(cards)
	stats.NewContentPct = newContentPct(cards)

	created, err := s.batches.SaveBatch(ctx, set, newlySeenIDs(cards), stats)
	if err != nil {
		s.logger.Error("failed to persist daily card set, serving unsaved batch",
			zap.Int64("user_id", userID),
			zap.String("date", date),
			zap.Error(err),
		)
		return cards, nil
	}
	if !created {
		// Lost the race to another process; serve the winner's batch.
		if winner, err := s.cardSets.Get(ctx, userID, date); err == nil {
			return winner.Cards, nil
		}
	}

	s.logger.Info("daily card set materialized",
		zap.Int64("user_id", userID),
		zap.String("tier", string(tier)),
		zap.String("date", date),
		zap.Int("cards", len(cards)),
		zap.Float64("new_pct", stats.NewContentPct),
	)

	return cards, nil
}

// cached returns the already materialized batch for the key, discarding a
// corrupt blob so it can be rebuilt.
func (s *DailyCardsService) cached(ctx context.Context, userID int64, date string) ([]entities.Card, bool) {
	set, err := s.cardSets.Get(ctx, userID, date)
	if err == nil {
		return set.Cards, true
	}

	switch {
	case errors.Is(err, repository.ErrCardSetNotFound):
	case errors.Is(err, repository.ErrCorruptCardSet):
		s.logger.Warn("discarding corrupt card set",
			zap.Int64("user_id", userID),
			zap.String("date", date),
		)
		if delErr := s.cardSets.Delete(ctx, userID, date); delErr != nil {
			s.logger.Error("failed to delete corrupt card set", zap.Error(delErr))
		}
	default:
		s.logger.Warn("card set read failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	return nil, false
}

// composeBatch builds a day's cards: every ratio-sampled kind fills its
// quota through the freshness selector, the full game catalog is appended,
// the whole batch is shuffled once, exhaustion recovery pads any shortfall
// before the final cut to the tier's target count, and a last pass tops the
// batch up to its new-card floor.
func (s *DailyCardsService) composeBatch(tier entities.Tier, seen map[string]struct{}) []entities.Card {
	policy := s.PolicyFor(tier)
	quotas := policy.KindQuotas(len(s.catalog.Games(tier)))

	cards := make([]entities.Card, 0, policy.TargetCount)
	for _, kind := range ratioKinds {
		cards = append(cards, s.selectKind(tier, kind, quotas[kind], seen, policy.NewContentRatio)...)
	}
	for _, game := range s.catalog.Games(tier) {
		cards = append(cards, entities.NewCard(game, false))
	}

	s.shuffleCards(cards)

	if len(cards) < policy.TargetCount {
		cards = s.padBatch(cards, policy.TargetCount, tier, seen)
	}
	if len(cards) > policy.TargetCount {
		cards = cards[:policy.TargetCount]
	}

	return s.topUpFreshness(cards, tier, policy, seen)
}

// topUpFreshness swaps seen fill for unseen content until the batch carries
// floor(TargetCount*ratio) new cards or the unseen pool runs out. Per-kind
// selection floors the ratio once per category and game slots are never new,
// so the composed batch can fall short of the tier's new-card floor even
// when plenty of unseen content exists.
func (s *DailyCardsService) topUpFreshness(cards []entities.Card, tier entities.Tier, policy entities.TierPolicy, seen map[string]struct{}) []entities.Card {
	required := int(float64(policy.TargetCount) * policy.NewContentRatio)

	fresh := 0
	inBatch := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		if c.IsNew {
			fresh++
		}
		inBatch[c.ContentID] = struct{}{}
	}
	if fresh >= required {
		return cards
	}

	var spare []entities.ContentItem
	for _, kind := range ratioKinds {
		for _, item := range s.catalog.ItemsByKind(tier, kind) {
			if _, ok := inBatch[item.ID]; ok {
				continue
			}
			if _, ok := seen[item.ID]; ok {
				continue
			}
			spare = append(spare, item)
		}
	}
	s.shuffleItems(spare)

	next := 0
	for i := range cards {
		if fresh >= required || next >= len(spare) {
			break
		}
		// Games always ship; only seen fill gives up its slot.
		if cards[i].IsNew || cards[i].Kind == entities.KindGame {
			continue
		}
		cards[i] = entities.NewCard(spare[next], true)
		next++
		fresh++
	}

	return cards
}

// selectKind fills one kind's quota. Kinds with several categories split the
// quota evenly by ceiling division and run the selector once per category;
// the concatenation is capped back to the kind quota before merging, since
// ceiling division overshoots.
func (s *DailyCardsService) selectKind(
	tier entities.Tier,
	kind entities.Kind,
	quota int,
	seen map[string]struct{},
	ratio float64,
) []entities.Card {
	if quota <= 0 {
		return nil
	}

	categories := s.catalog.Categories(tier, kind)

	var picked []entities.ContentItem
	var isNew map[string]bool

	if len(categories) <= 1 {
		selected, newIDs := s.selector.Select(s.catalog.ItemsByKind(tier, kind), quota, seen, ratio)
		picked = selected
		isNew = toFlagSet(newIDs)
	} else {
		perCategory := entities.CeilDiv(quota, len(categories))
		isNew = make(map[string]bool)
		for _, category := range categories {
			selected, newIDs := s.selector.Select(s.catalog.ItemsByCategory(tier, kind, category), perCategory, seen, ratio)
			picked = append(picked, selected...)
			for _, id := range newIDs {
				isNew[id] = true
			}
		}
		if len(picked) > quota {
			s.shuffleItems(picked)
			picked = picked[:quota]
		}
	}

	cards := make([]entities.Card, 0, len(picked))
	for _, item := range picked {
		cards = append(cards, entities.NewCard(item, isNew[item.ID]))
	}
	return cards
}

// padBatch is pool exhaustion recovery: re-admit catalog items the batch
// does not already contain, then synthesize dynamic math cards if the
// catalog itself cannot reach the target.
func (s *DailyCardsService) padBatch(cards []entities.Card, target int, tier entities.Tier, seen map[string]struct{}) []entities.Card {
	inBatch := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		inBatch[c.ContentID] = struct{}{}
	}

	var extras []entities.ContentItem
	for _, kind := range ratioKinds {
		for _, item := range s.catalog.ItemsByKind(tier, kind) {
			if _, ok := inBatch[item.ID]; !ok {
				extras = append(extras, item)
			}
		}
	}
	s.shuffleItems(extras)

	for _, item := range extras {
		if len(cards) >= target {
			return cards
		}
		_, wasSeen := seen[item.ID]
		cards = append(cards, entities.NewCard(item, !wasSeen))
	}

	for len(cards) < target {
		cards = append(cards, s.dynamicMathCard())
	}
	return cards
}

// RandomGame returns a single game card outside the daily batch, for the
// "deal me another game" flow.
func (s *DailyCardsService) RandomGame(tier entities.Tier) (entities.Card, error) {
	item, err := s.catalog.RandomGame(tier)
	if err != nil {
		return entities.Card{}, err
	}
	return entities.NewCard(item, false), nil
}

func (s *DailyCardsService) shuffleCards(cards []entities.Card) {
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

func (s *DailyCardsService) shuffleItems(items []entities.ContentItem) {
	s.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// newlySeenIDs extracts the pool content ids the batch shows for the first
// time; synthesized dynamic cards are excluded since they are not catalog
// content and never enter the seen set.
func newlySeenIDs(cards []entities.Card) []string {
	var ids []string
	for _, c := range cards {
		if c.IsNew {
			ids = append(ids, c.ContentID)
		}
	}
	return ids
}

func newContentPct(cards []entities.Card) float64 {
	if len(cards) == 0 {
		return 0
	}
	fresh := 0
	for _, c := range cards {
		if c.IsNew {
			fresh++
		}
	}
	return float64(fresh) / float64(len(cards)) * 100
}

func toFlagSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// userLocks hands out one mutex per user so two concurrent cache misses for
// the same user cannot both run selection and double-consume unseen content.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*sync.Mutex)
	}
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
