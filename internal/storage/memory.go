// Package storage provides an in-memory implementation of the persistence
// contracts. It backs the bot when the database is unreachable (progress
// then lives for the process lifetime only) and serves as the repository
// fake in tests.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres/repository"
)

// Memory holds all user state behind one RW mutex. It returns the same
// sentinel errors as the postgres repositories so callers cannot tell the
// backends apart.
type Memory struct {
	mu       sync.RWMutex
	users    map[int64]*entities.User
	seen     map[int64]map[string]struct{}
	stats    map[int64]map[string]*entities.DailyStats
	cardSets map[int64]map[string]*entities.DailyCardSet
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]*entities.User),
		seen:     make(map[int64]map[string]struct{}),
		stats:    make(map[int64]map[string]*entities.DailyStats),
		cardSets: make(map[int64]map[string]*entities.DailyCardSet),
	}
}

// SaveUser inserts the user or refreshes the chat id of an existing one.
func (m *Memory) SaveUser(_ context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.users[user.ID]; ok {
		existing.ChatID = user.ChatID
		*user = *existing
		return nil
	}

	user.IsActive = true
	user.CreatedAt = time.Now().UTC()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *Memory) GetUser(_ context.Context, userID int64) (*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *Memory) UpdateTier(_ context.Context, userID int64, tier entities.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Tier = tier
	return nil
}

func (m *Memory) GetSeenIDs(_ context.Context, userID int64) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{}, len(m.seen[userID]))
	for id := range m.seen[userID] {
		seen[id] = struct{}{}
	}
	return seen, nil
}

func (m *Memory) AddSeenIDs(_ context.Context, userID int64, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addSeenLocked(userID, ids)
	return nil
}

func (m *Memory) addSeenLocked(userID int64, ids []string) {
	if m.seen[userID] == nil {
		m.seen[userID] = make(map[string]struct{})
	}
	for _, id := range ids {
		m.seen[userID][id] = struct{}{}
	}
}

func (m *Memory) CountSeen(_ context.Context, userID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seen[userID]), nil
}

func (m *Memory) GetDailyStats(_ context.Context, userID int64, date string) (*entities.DailyStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats, ok := m.stats[userID][date]
	if !ok {
		return nil, repository.ErrStatsNotFound
	}
	copied := *stats
	copied.CategoriesExplored = append([]string(nil), stats.CategoriesExplored...)
	return &copied, nil
}

func (m *Memory) UpsertDailyStats(_ context.Context, userID int64, stats *entities.DailyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.upsertStatsLocked(userID, stats)
	return nil
}

func (m *Memory) upsertStatsLocked(userID int64, stats *entities.DailyStats) {
	if m.stats[userID] == nil {
		m.stats[userID] = make(map[string]*entities.DailyStats)
	}
	existing, ok := m.stats[userID][stats.Date]
	if !ok {
		copied := *stats
		copied.CategoriesExplored = append([]string(nil), stats.CategoriesExplored...)
		m.stats[userID][stats.Date] = &copied
		return
	}
	existing.CardsGenerated = stats.CardsGenerated
	existing.NewContentPct = stats.NewContentPct
}

func (m *Memory) RecordView(_ context.Context, userID int64, date, category string, isNew bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stats[userID] == nil {
		m.stats[userID] = make(map[string]*entities.DailyStats)
	}
	stats, ok := m.stats[userID][date]
	if !ok {
		stats = entities.NewDailyStats(date)
		m.stats[userID][date] = stats
	}

	stats.CardsViewed++
	if isNew {
		stats.NewCardsViewed++
	}
	stats.AddCategory(category)

	if user, ok := m.users[userID]; ok {
		user.TotalCardsViewed++
	}
	return nil
}

func (m *Memory) CountActiveDays(_ context.Context, userID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stats[userID]), nil
}

func (m *Memory) Get(_ context.Context, userID int64, date string) (*entities.DailyCardSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.cardSets[userID][date]
	if !ok {
		return nil, repository.ErrCardSetNotFound
	}

	copied := *set
	copied.Cards = append([]entities.Card(nil), set.Cards...)
	return &copied, nil
}

func (m *Memory) Delete(_ context.Context, userID int64, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cardSets[userID], date)
	return nil
}

// DeleteOlderThan sweeps card sets with a day key strictly before the
// cutoff. Day keys sort lexicographically, so a string compare suffices.
func (m *Memory) DeleteOlderThan(_ context.Context, cutoffDate string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for _, sets := range m.cardSets {
		for date := range sets {
			if date < cutoffDate {
				delete(sets, date)
				deleted++
			}
		}
	}
	return deleted, nil
}

// SaveBatch mirrors the transactional batch commit: it stores the card set
// only if the key is still absent, and merges progress only for a stored
// set.
func (m *Memory) SaveBatch(
	_ context.Context,
	set *entities.DailyCardSet,
	newlySeen []string,
	stats *entities.DailyStats,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cardSets[set.UserID][set.Date]; ok {
		return false, nil
	}

	if m.cardSets[set.UserID] == nil {
		m.cardSets[set.UserID] = make(map[string]*entities.DailyCardSet)
	}
	copied := *set
	copied.Cards = append([]entities.Card(nil), set.Cards...)
	m.cardSets[set.UserID][set.Date] = &copied

	m.addSeenLocked(set.UserID, newlySeen)
	m.upsertStatsLocked(set.UserID, stats)
	return true, nil
}
