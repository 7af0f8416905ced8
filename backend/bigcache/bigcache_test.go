package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/unkn0wn-root/recordcache/backend"
)

func newProvider(t *testing.T, now *time.Time) *Provider {
	t.Helper()
	p, err := New(context.Background(), Config{
		LifeWindow: time.Hour,
		Clock:      func() time.Time { return *now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestRoundTripAndOverwrite(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newProvider(t, &now)

	if _, ok, err := p.GetString(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	opts := backend.EntryOptions{AbsoluteExpiration: time.Minute}
	if err := p.SetString(ctx, "k", "first", opts); err != nil {
		t.Fatal(err)
	}
	if err := p.SetString(ctx, "k", "second", opts); err != nil {
		t.Fatal(err)
	}
	if v, ok, err := p.GetString(ctx, "k"); err != nil || !ok || v != "second" {
		t.Fatalf("expected second, got v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestPerEntryExpiration(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newProvider(t, &now)

	_ = p.SetString(ctx, "short", "v", backend.EntryOptions{AbsoluteExpiration: 5 * time.Second})
	_ = p.SetString(ctx, "long", "v", backend.EntryOptions{AbsoluteExpiration: time.Minute})
	_ = p.SetString(ctx, "idle", "v", backend.EntryOptions{SlidingExpiration: 4 * time.Second})

	now = now.Add(3 * time.Second)
	if _, ok, _ := p.GetString(ctx, "idle"); !ok {
		t.Fatalf("idle: expected hit inside sliding window")
	}

	now = now.Add(3 * time.Second) // 6s after write, 3s after last read
	if _, ok, _ := p.GetString(ctx, "short"); ok {
		t.Fatalf("short: expected expiry")
	}
	if _, ok, _ := p.GetString(ctx, "long"); !ok {
		t.Fatalf("long: expected hit")
	}
	if _, ok, _ := p.GetString(ctx, "idle"); !ok {
		t.Fatalf("idle: read should have extended the window")
	}
}

func TestForeignBytesAreDropped(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	p := newProvider(t, &now)

	if err := p.c.Set("k", []byte("not an envelope")); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := p.GetString(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss on foreign bytes, ok=%v err=%v", ok, err)
	}
	if _, err := p.c.Get("k"); err == nil {
		t.Fatalf("foreign entry should have been deleted")
	}
}
