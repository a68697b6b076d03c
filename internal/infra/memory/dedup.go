package memory

import (
	"context"
	"sync"
	"time"
)

// TransactionDedup remembers processed payment transaction IDs for a TTL.
// Single-process only; the Redis-backed variant covers multi-instance setups.
type TransactionDedup struct {
	ttl   time.Duration
	clock func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewTransactionDedup(ttl time.Duration) *TransactionDedup {
	return &TransactionDedup{
		ttl:   ttl,
		clock: time.Now,
		seen:  make(map[string]time.Time),
	}
}

func (d *TransactionDedup) Seen(_ context.Context, transactionID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expiry, ok := d.seen[transactionID]
	if !ok {
		return false, nil
	}
	if d.clock().After(expiry) {
		delete(d.seen, transactionID)
		return false, nil
	}
	return true, nil
}

func (d *TransactionDedup) Mark(_ context.Context, transactionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[transactionID] = d.clock().Add(d.ttl)
	return nil
}
