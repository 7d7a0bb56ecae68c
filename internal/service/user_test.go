package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres/repository"
	"github.com/sparkcards/daily-cards-bot/internal/storage"
)

func TestEnsureUser_RegistersOnceAndKeepsTier(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(storage.NewMemory())

	user, err := svc.EnsureUser(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, entities.TierBasic, user.Tier)
	assert.True(t, user.IsActive)

	// Promote, then make contact again: the stored tier must survive.
	_, err = svc.SwitchTier(ctx, 1)
	require.NoError(t, err)

	again, err := svc.EnsureUser(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, entities.TierPremium, again.Tier)
	assert.Equal(t, user.CreatedAt, again.CreatedAt)
}

func TestSwitchTier_Toggles(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(storage.NewMemory())

	_, err := svc.EnsureUser(ctx, 1, 100)
	require.NoError(t, err)

	tier, err := svc.SwitchTier(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.TierPremium, tier)

	tier, err = svc.SwitchTier(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.TierBasic, tier)
}

func TestSwitchTier_UnknownUser(t *testing.T) {
	svc := NewUserService(storage.NewMemory())

	_, err := svc.SwitchTier(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
