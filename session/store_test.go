package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, NewStore(rdb, time.Hour)
}

func TestStore_RoundTrip(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	snap := Snapshot{
		Subject: "subj-1",
		Role:    "agent",
		LoginAt: time.Now().UTC().Truncate(time.Second),
		Origin:  "203.0.113.9",
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if mr.TTL("session:subj-1") != time.Hour {
		t.Fatalf("TTL = %v, want 1h", mr.TTL("session:subj-1"))
	}

	got, err := store.Get(ctx, "subj-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a snapshot")
	}
	if got.Subject != snap.Subject || got.Role != snap.Role || got.Origin != snap.Origin {
		t.Fatalf("got %+v, want %+v", got, snap)
	}
	if !got.LoginAt.Equal(snap.LoginAt) {
		t.Fatalf("login at = %v, want %v", got.LoginAt, snap.LoginAt)
	}
}

func TestStore_MissingIsNotAnError(t *testing.T) {
	_, store := newTestStore(t)

	got, err := store.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil snapshot, got %+v", got)
	}
}

func TestStore_Delete(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Snapshot{Subject: "subj-1", Role: "agent"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "subj-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if mr.Exists("session:subj-1") {
		t.Fatal("snapshot should be gone")
	}
	// Deleting again is fine.
	if err := store.Delete(ctx, "subj-1"); err != nil {
		t.Fatalf("repeated Delete failed: %v", err)
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Snapshot{Subject: "subj-1", Role: "agent"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, Snapshot{Subject: "subj-1", Role: "admin"}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Get(ctx, "subj-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Role != "admin" {
		t.Fatalf("role = %q, want admin", got.Role)
	}
}
