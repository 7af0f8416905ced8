package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/recordcache/backend"
	"github.com/unkn0wn-root/recordcache/internal/envelope"
)

type Provider struct {
	c    *rc.Cache
	cost func(key, value string) int64
	now  func() time.Time
}

var (
	_ backend.Backend = (*Provider)(nil)
	_ backend.Closer  = (*Provider)(nil)
)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost of one entry. nil => len(value), so MaxCost reads as bytes.
	Cost func(key, value string) int64
	// Clock overrides time.Now for expiration checks (tests).
	Clock func() time.Time
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	p := &Provider{c: c, cost: cfg.Cost, now: cfg.Clock}
	if p.cost == nil {
		p.cost = func(_, v string) int64 { return int64(len(v)) }
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// SetString admits the entry with a native TTL and waits for the write
// buffer to drain so the next GetString observes it. Ristretto may still
// refuse admission under pressure; that is eviction, not an error.
func (p *Provider) SetString(_ context.Context, key, value string, opts backend.EntryOptions) error {
	now := p.now()
	e := envelope.New([]byte(value), opts, now)
	p.c.SetWithTTL(key, &e, p.cost(key, value), e.TTL(now))
	p.c.Wait()
	return nil
}

func (p *Provider) GetString(_ context.Context, key string) (string, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return "", false, nil
	}
	e, _ := v.(*envelope.Entry)
	if e == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return "", false, nil
	}
	now := p.now()
	if e.Expired(now) {
		p.c.Del(key)
		return "", false, nil
	}
	value := string(e.Value)
	next := *e
	if next.Touch(now) {
		// stored entries are never mutated in place; readers may share them
		p.c.SetWithTTL(key, &next, p.cost(key, value), next.TTL(now))
	}
	return value, true, nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Helper to expose metrics if desired by the application (not part of backend.Backend).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
