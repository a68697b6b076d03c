package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TransactionDedup remembers processed payment transaction IDs in Redis so a
// redelivered webhook is recognized across instances.
type TransactionDedup struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTransactionDedup(client *redis.Client, ttl time.Duration) *TransactionDedup {
	return &TransactionDedup{client: client, ttl: ttl}
}

func (d *TransactionDedup) Seen(ctx context.Context, transactionID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(transactionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *TransactionDedup) Mark(ctx context.Context, transactionID string) error {
	return d.client.Set(ctx, d.key(transactionID), "1", d.ttl).Err()
}

func (d *TransactionDedup) key(transactionID string) string {
	return "payment:txn:" + transactionID
}
