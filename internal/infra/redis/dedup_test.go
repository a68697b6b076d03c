package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestTransactionDedupMarkAndSeen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	dedup := NewTransactionDedup(newClient(mr), time.Minute)
	ctx := context.Background()

	seen, err := dedup.Seen(ctx, "txn-1")
	if err != nil || seen {
		t.Fatalf("expected unseen transaction, got seen=%v err=%v", seen, err)
	}

	if err := dedup.Mark(ctx, "txn-1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	seen, err = dedup.Seen(ctx, "txn-1")
	if err != nil || !seen {
		t.Fatalf("expected seen after mark, got seen=%v err=%v", seen, err)
	}

	// Keys expire so the set does not grow without bound.
	mr.FastForward(2 * time.Minute)
	seen, err = dedup.Seen(ctx, "txn-1")
	if err != nil || seen {
		t.Fatalf("expected expiry after TTL, got seen=%v err=%v", seen, err)
	}
}
