package session

import (
	"context"
	"testing"
	"time"

	"github.com/strategiz/core/internal/models"
	"go.uber.org/zap"
)

func putRecord(t *testing.T, store *memoryStore, id string, expiresAt time.Time, revokedAt *time.Time) {
	t.Helper()
	rec := &models.SessionModel{
		SessionID:  id,
		UserID:     "user-1",
		TokenValue: "tok-" + id,
		TokenKind:  "ACCESS",
		ExpiresAt:  expiresAt,
	}
	if revokedAt != nil {
		rec.Revoked = true
		rec.RevokedAt = revokedAt
	}
	if err := store.Put(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
}

func TestSweepDeletesAgedRecords(t *testing.T) {
	store := newMemoryStore()
	now := time.Now()
	longAgo := now.Add(-10 * 24 * time.Hour)
	recently := now.Add(-time.Hour)

	// Past expired retention (7d): delete.
	putRecord(t, store, "acc_old_expired", longAgo, nil)
	// Expired but within retention: keep.
	putRecord(t, store, "acc_new_expired", recently, nil)
	// Revoked past revoked retention (24h): delete.
	putRecord(t, store, "acc_old_revoked", now.Add(time.Hour), &longAgo)
	// Revoked recently: keep.
	putRecord(t, store, "acc_new_revoked", now.Add(time.Hour), &recently)
	// Live: keep.
	putRecord(t, store, "acc_live", now.Add(time.Hour), nil)

	sw := NewSweeper(store, 7*24*time.Hour, 24*time.Hour, zap.NewNop())
	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted %d, want 2", n)
	}

	for _, id := range []string{"acc_new_expired", "acc_new_revoked", "acc_live"} {
		if _, err := store.Get(context.Background(), id); err != nil {
			t.Errorf("record %s should survive: %v", id, err)
		}
	}
	for _, id := range []string{"acc_old_expired", "acc_old_revoked"} {
		if _, err := store.Get(context.Background(), id); err != ErrNotFound {
			t.Errorf("record %s should be gone", id)
		}
	}
}

func TestSweepDedupesOverlap(t *testing.T) {
	store := newMemoryStore()
	longAgo := time.Now().Add(-10 * 24 * time.Hour)

	// Both expired past retention and revoked past retention: one delete.
	putRecord(t, store, "acc_both", longAgo, &longAgo)

	sw := NewSweeper(store, 7*24*time.Hour, 24*time.Hour, zap.NewNop())
	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("deleted %d, want 1", n)
	}
}

func TestSweepEmptyStore(t *testing.T) {
	sw := NewSweeper(newMemoryStore(), 7*24*time.Hour, 24*time.Hour, zap.NewNop())
	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("deleted %d, want 0", n)
	}
}

func TestSweepHonorsContextCancellation(t *testing.T) {
	store := newMemoryStore()
	longAgo := time.Now().Add(-10 * 24 * time.Hour)
	putRecord(t, store, "acc_old", longAgo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sw := NewSweeper(store, 7*24*time.Hour, 24*time.Hour, zap.NewNop())
	if _, err := sw.Sweep(ctx); err == nil {
		t.Fatal("expected context error")
	}
	if _, err := store.Get(context.Background(), "acc_old"); err != nil {
		t.Fatal("record deleted despite cancelled context")
	}
}
