package service

import (
	"context"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

// UserService registers users on first contact and manages their tier.
type UserService struct {
	repository UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repository UserRepository) *UserService {
	return &UserService{repository: repository}
}

// EnsureUser registers the user on first contact and returns the stored
// record, including the tier an existing user already has.
func (s *UserService) EnsureUser(ctx context.Context, userID, chatID int64) (*entities.User, error) {
	user := entities.NewUser(userID, chatID)
	if err := s.repository.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by id.
func (s *UserService) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	return s.repository.GetUser(ctx, userID)
}

// SwitchTier toggles the user between basic and premium and returns the new
// tier. The change affects the next materialized batch, never today's.
func (s *UserService) SwitchTier(ctx context.Context, userID int64) (entities.Tier, error) {
	user, err := s.repository.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	next := entities.TierPremium
	if user.Tier == entities.TierPremium {
		next = entities.TierBasic
	}

	if err := s.repository.UpdateTier(ctx, userID, next); err != nil {
		return "", err
	}

	return next, nil
}
