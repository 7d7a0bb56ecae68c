package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

func sampleSet(date string) *entities.DailyCardSet {
	return &entities.DailyCardSet{
		UserID: 1,
		Date:   date,
		Cards: []entities.Card{
			{ContentID: "fact_space_1", Kind: entities.KindFact, IsNew: true},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestSaveBatch_FirstWriterWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.SaveBatch(ctx, sampleSet("2026-09-01"), []string{"fact_space_1"}, entities.NewDailyStats("2026-09-01"))
	require.NoError(t, err)
	assert.True(t, created)

	loser := sampleSet("2026-09-01")
	loser.Cards[0].ContentID = "fact_space_2"
	created, err = m.SaveBatch(ctx, loser, []string{"fact_space_2"}, entities.NewDailyStats("2026-09-01"))
	require.NoError(t, err)
	assert.False(t, created, "a second write for the same key must lose")

	// The loser's side effects are discarded with it.
	stored, err := m.Get(ctx, 1, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, "fact_space_1", stored.Cards[0].ContentID)

	seen, err := m.GetSeenIDs(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, seen, "fact_space_1")
	assert.NotContains(t, seen, "fact_space_2")
}

func TestGet_ReturnsACopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.SaveBatch(ctx, sampleSet("2026-09-01"), nil, entities.NewDailyStats("2026-09-01"))
	require.NoError(t, err)

	got, err := m.Get(ctx, 1, "2026-09-01")
	require.NoError(t, err)
	got.Cards[0].ContentID = "mutated"

	again, err := m.Get(ctx, 1, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, "fact_space_1", again.Cards[0].ContentID, "callers must not reach the stored slice")
}

func TestDeleteOlderThan_CutoffIsExclusive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, date := range []string{"2026-08-20", "2026-08-25", "2026-09-01"} {
		_, err := m.SaveBatch(ctx, sampleSet(date), nil, entities.NewDailyStats(date))
		require.NoError(t, err)
	}

	deleted, err := m.DeleteOlderThan(ctx, "2026-08-25")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = m.Get(ctx, 1, "2026-08-25")
	assert.NoError(t, err, "the cutoff day itself survives")
	_, err = m.Get(ctx, 1, "2026-09-01")
	assert.NoError(t, err)
}
