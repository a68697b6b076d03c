package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"prepquiz-service/internal/domain"
)

// UserRepository reads and updates user subscription records in Postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, display_name, subscription_type, subscription_expires_at, created_at
		 FROM users WHERE id=$1`, userID,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.SubscriptionType, &user.SubscriptionExpiresAt, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	return user, nil
}

func (r *UserRepository) UpdateSubscription(ctx context.Context, userID string, tier domain.Tier, expiresAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET subscription_type=$2, subscription_expires_at=$3 WHERE id=$1`,
		userID, tier, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("update subscription for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
