package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"prepquiz-service/internal/domain"
)

// UserRepository reads and updates user subscription records.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	UpdateSubscription(ctx context.Context, userID string, tier domain.Tier, expiresAt *time.Time) error
}

// PaymentVerifier queries the payment gateway's status-check endpoint. The
// notification's own claims are never trusted standalone.
type PaymentVerifier interface {
	CheckTransaction(ctx context.Context, transactionID string) (domain.Transaction, error)
}

// TransactionDeduper remembers processed transaction IDs so a redelivered
// notification does not upgrade twice.
type TransactionDeduper interface {
	Seen(ctx context.Context, transactionID string) (bool, error)
	Mark(ctx context.Context, transactionID string) error
}

const defaultPlanDays = 30

// SubscriptionService reconciles gratuit/premium state from verified payment
// notifications and applies lazy expiry on reads.
type SubscriptionService struct {
	users    UserRepository
	verifier PaymentVerifier
	dedup    TransactionDeduper
	now      func() time.Time
}

func NewSubscriptionService(users UserRepository, verifier PaymentVerifier, dedup TransactionDeduper) *SubscriptionService {
	return &SubscriptionService{users: users, verifier: verifier, dedup: dedup, now: time.Now}
}

// WithClock is a test hook for deterministic expiry timestamps.
func (s *SubscriptionService) WithClock(now func() time.Time) *SubscriptionService {
	s.now = now
	return s
}

// HandleNotification processes one inbound payment notification. The returned
// message is the 200-response body; any error maps to 4xx/5xx in the handler.
// Non-accepted statuses are a logged no-op, not an error, so the gateway does
// not retry them.
func (s *SubscriptionService) HandleNotification(ctx context.Context, transactionID string) (string, error) {
	if transactionID == "" {
		return "", domain.ErrMissingTransaction
	}

	if s.dedup != nil {
		seen, err := s.dedup.Seen(ctx, transactionID)
		if err != nil {
			log.Printf("dedup lookup for transaction %s: %v", transactionID, err)
		} else if seen {
			log.Printf("transaction %s already processed, skipping", transactionID)
			return "Payment already processed", nil
		}
	}

	txn, err := s.verifier.CheckTransaction(ctx, transactionID)
	if err != nil {
		return "", fmt.Errorf("%w: transaction %s: %v", domain.ErrVerificationFailed, transactionID, err)
	}

	if txn.Status == "" {
		// the gateway answered but told us nothing; the notification cannot
		// be judged, so this is the sender's problem, not a retryable failure
		return "", fmt.Errorf("%w: transaction %s", domain.ErrMissingVerification, transactionID)
	}
	if txn.Status != domain.TransactionAccepted {
		log.Printf("transaction %s has status %s, no change", transactionID, txn.Status)
		return "Payment not successful", nil
	}
	if txn.UserID == "" {
		return "", domain.ErrMissingUser
	}

	planDays := txn.PlanDays
	if planDays <= 0 {
		planDays = defaultPlanDays
	}
	expiresAt := s.now().Add(time.Duration(planDays) * 24 * time.Hour)
	if err := s.users.UpdateSubscription(ctx, txn.UserID, domain.TierPremium, &expiresAt); err != nil {
		return "", fmt.Errorf("upgrade user %s for transaction %s: %w", txn.UserID, transactionID, err)
	}

	if s.dedup != nil {
		// marked only after a successful upgrade so a failed attempt stays retryable
		if err := s.dedup.Mark(ctx, transactionID); err != nil {
			log.Printf("dedup mark for transaction %s: %v", transactionID, err)
		}
	}

	log.Printf("user %s upgraded to premium until %s (transaction %s)", txn.UserID, expiresAt.Format(time.RFC3339), transactionID)
	return "Subscription upgraded", nil
}

// GetSubscription reads a user record with lazy expiry: a premium tier past
// its expiry is downgraded in place before the record is returned.
func (s *SubscriptionService) GetSubscription(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if user.SubscriptionType == domain.TierPremium && user.SubscriptionExpiresAt != nil && s.now().After(*user.SubscriptionExpiresAt) {
		if err := s.users.UpdateSubscription(ctx, userID, domain.TierGratuit, nil); err != nil {
			// the read still reflects the expired state; the write is retried on the next read
			log.Printf("downgrade expired subscription for user %s: %v", userID, err)
		}
		user.SubscriptionType = domain.TierGratuit
		user.SubscriptionExpiresAt = nil
	}
	return user, nil
}
