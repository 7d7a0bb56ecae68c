package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
	"github.com/sparkcards/daily-cards-bot/internal/infra/postgres"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository provides access to user data in the database.
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// SaveUser inserts a new user or refreshes the chat id of an existing one.
// Tier, totals and timestamps of an existing user are left untouched.
func (r *UserRepository) SaveUser(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (id, chat_id, tier)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET chat_id = EXCLUDED.chat_id
		RETURNING tier, total_cards_viewed, is_active, created_at
	`

	var tier string
	err := r.db.QueryRow(ctx, query, user.ID, user.ChatID, string(user.Tier)).Scan(
		&tier,
		&user.TotalCardsViewed,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	user.Tier = entities.ParseTier(tier)
	return nil
}

// GetUser retrieves a user by id.
func (r *UserRepository) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	query := `
		SELECT id, chat_id, tier, total_cards_viewed, is_active, created_at
		FROM users
		WHERE id = $1
	`

	var user entities.User
	var tier string

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.ChatID,
		&tier,
		&user.TotalCardsViewed,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.Tier = entities.ParseTier(tier)
	return &user, nil
}

// UpdateTier switches the user's subscription tier.
func (r *UserRepository) UpdateTier(ctx context.Context, userID int64, tier entities.Tier) error {
	query := `UPDATE users SET tier = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, userID, string(tier))
	if err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
