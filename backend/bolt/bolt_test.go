package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/unkn0wn-root/recordcache/backend"
)

func openStore(t *testing.T, now *time.Time) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "records.db"), Options{
		Clock: func() time.Time { return *now },
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestRoundTripPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	path := filepath.Join(t.TempDir(), "records.db")

	s, err := Open(path, Options{Clock: func() time.Time { return now }})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetString(ctx, "k", `["a","b"]`, backend.EntryOptions{AbsoluteExpiration: time.Hour}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path, Options{Clock: func() time.Time { return now }})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)

	v, ok, err := s.GetString(ctx, "k")
	if err != nil || !ok || v != `["a","b"]` {
		t.Fatalf("expected persisted value, got v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestExpiryAndSliding(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := openStore(t, &now)

	_ = s.SetString(ctx, "abs", "v", backend.EntryOptions{AbsoluteExpiration: 10 * time.Second})
	_ = s.SetString(ctx, "slide", "v", backend.EntryOptions{SlidingExpiration: 10 * time.Second})

	now = now.Add(8 * time.Second)
	if _, ok, _ := s.GetString(ctx, "slide"); !ok {
		t.Fatalf("slide: expected hit")
	}

	now = now.Add(4 * time.Second) // 12s after write
	if _, ok, _ := s.GetString(ctx, "abs"); ok {
		t.Fatalf("abs: expected expiry")
	}
	if _, ok, _ := s.GetString(ctx, "slide"); !ok {
		t.Fatalf("slide: read should have extended the window")
	}

	// expired entry was physically removed
	_ = s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket).Get([]byte("abs")) != nil {
			t.Fatalf("expired entry still on disk")
		}
		return nil
	})
}

func TestCleanupRemovesExpiredAndCorrupt(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := openStore(t, &now)

	_ = s.SetString(ctx, "old", "v", backend.EntryOptions{AbsoluteExpiration: time.Second})
	_ = s.SetString(ctx, "keep", "v", backend.EntryOptions{})
	_ = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte("junk"), []byte("xx"))
	})

	now = now.Add(2 * time.Second)
	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	n := 0
	_ = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	if n != 1 {
		t.Fatalf("expected 1 remaining key, got %d", n)
	}
}
