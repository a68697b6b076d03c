package memory

import (
	"context"
	"sync"
	"time"

	"prepquiz-service/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository
// (useful for tests/demos).
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository(seed map[string]domain.User) *UserRepository {
	users := make(map[string]domain.User, len(seed))
	for id, user := range seed {
		users[id] = user
	}
	return &UserRepository{users: users}
}

func (r *UserRepository) GetUser(_ context.Context, userID string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepository) UpdateSubscription(_ context.Context, userID string, tier domain.Tier, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.SubscriptionType = tier
	user.SubscriptionExpiresAt = expiresAt
	r.users[userID] = user
	return nil
}
