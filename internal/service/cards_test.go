package service

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres/repository"
	"github.com/sparkcards/daily-cards-bot/internal/storage"
)

// stubCatalog is a single-pool ContentCatalog for service tests; both tiers
// see the same items.
type stubCatalog struct {
	items map[entities.Kind]map[string][]entities.ContentItem
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{items: make(map[entities.Kind]map[string][]entities.ContentItem)}
}

func (c *stubCatalog) add(kind entities.Kind, category string, n int) *stubCatalog {
	if c.items[kind] == nil {
		c.items[kind] = make(map[string][]entities.ContentItem)
	}
	c.items[kind][category] = append(c.items[kind][category], testItems(kind, category, n)...)
	return c
}

func (c *stubCatalog) ItemsByKind(_ entities.Tier, kind entities.Kind) []entities.ContentItem {
	var out []entities.ContentItem
	for _, category := range c.categories(kind) {
		out = append(out, c.items[kind][category]...)
	}
	return out
}

func (c *stubCatalog) categories(kind entities.Kind) []string {
	var out []string
	for category := range c.items[kind] {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

func (c *stubCatalog) Categories(_ entities.Tier, kind entities.Kind) []string {
	return c.categories(kind)
}

func (c *stubCatalog) ItemsByCategory(_ entities.Tier, kind entities.Kind, category string) []entities.ContentItem {
	return c.items[kind][category]
}

func (c *stubCatalog) Games(tier entities.Tier) []entities.ContentItem {
	return c.ItemsByKind(tier, entities.KindGame)
}

func (c *stubCatalog) RandomGame(tier entities.Tier) (entities.ContentItem, error) {
	games := c.Games(tier)
	if len(games) == 0 {
		return entities.ContentItem{}, errors.New("no games")
	}
	return games[0], nil
}

func (c *stubCatalog) ByID(tier entities.Tier, id string) (entities.ContentItem, error) {
	for kind := range c.items {
		for _, item := range c.ItemsByKind(tier, kind) {
			if item.ID == id {
				return item, nil
			}
		}
	}
	return entities.ContentItem{}, errors.New("not found")
}

func (c *stubCatalog) TotalCount(tier entities.Tier) int {
	total := 0
	for kind := range c.items {
		total += len(c.ItemsByKind(tier, kind))
	}
	return total
}

func richCatalog() *stubCatalog {
	return newStubCatalog().
		add(entities.KindFact, "space", 20).
		add(entities.KindFact, "history", 20).
		add(entities.KindFact, "nature", 20).
		add(entities.KindActivity, "creative", 6).
		add(entities.KindActivity, "mindful", 6).
		add(entities.KindRiddle, "riddles", 12).
		add(entities.KindMath, "math", 12).
		add(entities.KindGame, "games", 3)
}

func basicPolicy() entities.TierPolicy {
	return entities.TierPolicy{Tier: entities.TierBasic, TargetCount: 40, NewContentRatio: 0.8}
}

func atDay(day string) func() time.Time {
	t, err := time.Parse(entities.DayKeyLayout, day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(10 * time.Hour) }
}

func newCardsService(catalog ContentCatalog, store *storage.Memory, policy entities.TierPolicy, day string) *DailyCardsService {
	svc := NewDailyCardsService(
		catalog,
		store,
		store,
		store,
		seededSelector(1),
		map[entities.Tier]entities.TierPolicy{policy.Tier: policy, entities.TierBasic: policy},
		zap.NewNop(),
	)
	svc.now = atDay(day)
	return svc
}

func countNew(cards []entities.Card) int {
	n := 0
	for _, c := range cards {
		if c.IsNew {
			n++
		}
	}
	return n
}

func TestGetTodaysCards_FreshUserMeetsFreshnessBound(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	svc := newCardsService(richCatalog(), store, basicPolicy(), "2026-09-01")

	cards, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err)

	require.Len(t, cards, 40)
	assert.GreaterOrEqual(t, countNew(cards), 32, "at least floor(40*0.8) new cards for a fresh user")

	// No content id repeats within a batch.
	ids := make(map[string]struct{})
	for _, c := range cards {
		_, dup := ids[c.ContentID]
		assert.False(t, dup, "duplicate content id %s", c.ContentID)
		ids[c.ContentID] = struct{}{}
	}

	// Games are always dealt and never counted as new.
	games := 0
	for _, c := range cards {
		if c.Kind == entities.KindGame {
			games++
			assert.False(t, c.IsNew)
		}
	}
	assert.Equal(t, 3, games)

	seen, err := store.CountSeen(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, countNew(cards), seen, "exactly the new cards enter the seen set")
}

func TestGetTodaysCards_SameDayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	svc := newCardsService(richCatalog(), store, basicPolicy(), "2026-09-01")

	first, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err)
	seenAfterFirst, err := store.CountSeen(ctx, 1)
	require.NoError(t, err)

	second, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same day returns the identical ordered batch")

	seenAfterSecond, err := store.CountSeen(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, seenAfterFirst, seenAfterSecond, "re-reading does not grow the seen set")
}

func TestGetTodaysCards_PartiallySeenUserMeetsFreshnessBound(t *testing.T) {
	ctx := context.Background()
	catalog := richCatalog()

	// Mark half of every category as seen. Plenty of unseen content is
	// left, so the floor(40*0.8)=32 new-card floor must still hold.
	var preSeen []string
	for _, kind := range entities.Kinds() {
		if kind == entities.KindGame {
			continue
		}
		for _, category := range catalog.Categories(entities.TierBasic, kind) {
			items := catalog.ItemsByCategory(entities.TierBasic, kind, category)
			for _, item := range items[:len(items)/2] {
				preSeen = append(preSeen, item.ID)
			}
		}
	}

	// The bound must hold for every shuffle outcome, not a lucky one.
	for seed := int64(0); seed < 20; seed++ {
		store := storage.NewMemory()
		require.NoError(t, store.AddSeenIDs(ctx, 1, preSeen))

		svc := newCardsService(catalog, store, basicPolicy(), "2026-09-01")
		svc.selector = seededSelector(seed)
		svc.rng = rand.New(rand.NewSource(seed))

		cards, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
		require.NoError(t, err)
		require.Len(t, cards, 40)
		assert.GreaterOrEqual(t, countNew(cards), 32, "seed %d", seed)

		seen, err := store.CountSeen(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, len(preSeen)+countNew(cards), seen,
			"every new card, topped-up ones included, enters the seen set")
	}
}

func TestGetTodaysCards_DayRolloverExcludesSeenFromNew(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	catalog := richCatalog()

	svc := newCardsService(catalog, store, basicPolicy(), "2026-09-01")
	day1, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err)

	day1Seen, err := store.GetSeenIDs(ctx, 1)
	require.NoError(t, err)

	svc.now = atDay("2026-09-02")
	day2, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err)

	assert.NotEqual(t, day1, day2, "day rollover materializes a new batch")
	for _, c := range day2 {
		if c.IsNew {
			assert.NotContains(t, day1Seen, c.ContentID,
				"cards seen on day one may return only as seen fill")
		}
	}

	// Monotone seen set: day one's ids all survive day two's merge.
	day2Seen, err := store.GetSeenIDs(ctx, 1)
	require.NoError(t, err)
	for id := range day1Seen {
		assert.Contains(t, day2Seen, id)
	}
}

func TestGetTodaysCards_PoolExhaustionPadsToTarget(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	// 30 facts total, 25 already seen: only 5 unseen items exist for a
	// 40-card target.
	catalog := newStubCatalog().add(entities.KindFact, "space", 30)
	facts := catalog.ItemsByKind(entities.TierBasic, entities.KindFact)
	var preSeen []string
	for _, item := range facts[:25] {
		preSeen = append(preSeen, item.ID)
	}
	require.NoError(t, store.AddSeenIDs(ctx, 1, preSeen))

	svc := newCardsService(catalog, store, basicPolicy(), "2026-09-01")
	cards, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err)

	require.Len(t, cards, 40, "exhaustion recovery still fills the batch")
	assert.Equal(t, 5, countNew(cards), "every unseen item is dealt exactly once")

	dynamic := 0
	for _, c := range cards {
		if strings.HasPrefix(c.ContentID, "dynamic_math_") {
			dynamic++
			assert.False(t, c.IsNew)
		}
	}
	assert.Equal(t, 10, dynamic, "30 catalog items + 10 synthesized = 40")

	seen, err := store.CountSeen(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, seen, "synthesized cards never enter the seen set")
}

func TestGetTodaysCards_SmallPoolUnderfills(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	catalog := newStubCatalog().add(entities.KindRiddle, "riddles", 4)

	svc := newCardsService(catalog, store, basicPolicy(), "2026-09-01")
	svc.policies[entities.TierBasic] = entities.TierPolicy{
		Tier: entities.TierBasic, TargetCount: 10, NewContentRatio: 0.8,
	}

	// Padding synthesizes math cards, so the batch still reaches target.
	cards, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err)
	assert.Len(t, cards, 10)
}

func TestGetTodaysCards_ConcurrentMissesSelectOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	svc := newCardsService(richCatalog(), store, basicPolicy(), "2026-09-01")

	const callers = 8
	results := make([][]entities.Card, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetTodaysCards(ctx, 1, entities.TierBasic)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	for i := 1; i < callers; i++ {
		assert.Equal(t, results[0], results[i], "every caller sees the same batch")
	}

	seen, err := store.CountSeen(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, countNew(results[0]), seen,
		"concurrent misses must not double-consume unseen content")
}

// failingStore simulates an unavailable persistence backend.
type failingStore struct {
	*storage.Memory
}

func (f *failingStore) GetSeenIDs(context.Context, int64) (map[string]struct{}, error) {
	return nil, errors.New("backend down")
}

func (f *failingStore) SaveBatch(context.Context, *entities.DailyCardSet, []string, *entities.DailyStats) (bool, error) {
	return false, errors.New("backend down")
}

func TestGetTodaysCards_PersistenceFailureStillServes(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Memory: storage.NewMemory()}

	svc := NewDailyCardsService(
		richCatalog(),
		store,
		store.Memory,
		store,
		seededSelector(1),
		map[entities.Tier]entities.TierPolicy{entities.TierBasic: basicPolicy()},
		zap.NewNop(),
	)
	svc.now = atDay("2026-09-01")

	cards, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err, "storage trouble degrades, it never fails the request")
	assert.Len(t, cards, 40)
}

// corruptStore serves a corrupt blob until it is discarded.
type corruptStore struct {
	*storage.Memory
	corrupted bool
	discarded bool
}

func (c *corruptStore) Get(ctx context.Context, userID int64, date string) (*entities.DailyCardSet, error) {
	if c.corrupted {
		return nil, repository.ErrCorruptCardSet
	}
	return c.Memory.Get(ctx, userID, date)
}

func (c *corruptStore) Delete(ctx context.Context, userID int64, date string) error {
	c.corrupted = false
	c.discarded = true
	return c.Memory.Delete(ctx, userID, date)
}

func TestGetTodaysCards_CorruptBlobIsDiscardedAndRebuilt(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	store := &corruptStore{Memory: mem}

	svc := NewDailyCardsService(
		richCatalog(),
		mem,
		store,
		mem,
		seededSelector(1),
		map[entities.Tier]entities.TierPolicy{entities.TierBasic: basicPolicy()},
		zap.NewNop(),
	)
	svc.now = atDay("2026-09-01")

	_, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err)

	store.corrupted = true
	rebuilt, err := svc.GetTodaysCards(ctx, 1, entities.TierBasic)
	require.NoError(t, err)

	assert.True(t, store.discarded, "the unreadable blob is deleted")
	assert.Len(t, rebuilt, 40, "a fresh batch replaces the discarded one")
}

func TestGetTodaysCards_PremiumTierUsesItsPolicy(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	catalog := newStubCatalog().
		add(entities.KindFact, "space", 80).
		add(entities.KindFact, "history", 80).
		add(entities.KindActivity, "creative", 40).
		add(entities.KindRiddle, "riddles", 40).
		add(entities.KindMath, "math", 40).
		add(entities.KindGame, "games", 5)

	premium := entities.TierPolicy{Tier: entities.TierPremium, TargetCount: 100, NewContentRatio: 0.9}
	svc := newCardsService(catalog, store, premium, "2026-09-01")

	cards, err := svc.GetTodaysCards(ctx, 1, entities.TierPremium)
	require.NoError(t, err)

	require.Len(t, cards, 100)
	assert.GreaterOrEqual(t, countNew(cards), 90)
}

func TestPolicyFor_ClampsInvalidValues(t *testing.T) {
	svc := newCardsService(richCatalog(), storage.NewMemory(), entities.TierPolicy{
		Tier:            entities.TierBasic,
		TargetCount:     -5,
		NewContentRatio: 1.7,
	}, "2026-09-01")

	policy := svc.PolicyFor(entities.TierBasic)
	assert.Equal(t, 0, policy.TargetCount)
	assert.Equal(t, 1.0, policy.NewContentRatio)

	cards, err := svc.GetTodaysCards(context.Background(), 1, entities.TierBasic)
	require.NoError(t, err)
	assert.Empty(t, cards, "a zero-target policy deals an empty batch, not an error")
}

func TestRandomGame_ReturnsGameCard(t *testing.T) {
	svc := newCardsService(richCatalog(), storage.NewMemory(), basicPolicy(), "2026-09-01")

	card, err := svc.RandomGame(entities.TierBasic)
	require.NoError(t, err)
	assert.Equal(t, entities.KindGame, card.Kind)
	assert.False(t, card.IsNew)
	assert.Equal(t, "Play", card.Action)
}
