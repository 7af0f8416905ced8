package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/recordcache/backend"
	"github.com/unkn0wn-root/recordcache/internal/envelope"
)

// Provider keeps entries in BigCache. BigCache only knows one global
// LifeWindow, so per-entry absolute/sliding deadlines travel in an envelope
// and are checked on read. LifeWindow should be at least as long as the
// longest expiration you hand in; entries older than it are evicted anyway.
type Provider struct {
	c   *bc.BigCache
	now func() time.Time
}

var (
	_ backend.Backend = (*Provider)(nil)
	_ backend.Closer  = (*Provider)(nil)
)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
	Clock              func() time.Time
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Provider{c: c, now: now}, nil
}

func (p *Provider) SetString(_ context.Context, key, value string, opts backend.EntryOptions) error {
	buf, err := envelope.Encode(envelope.New([]byte(value), opts, p.now()))
	if err != nil {
		return err
	}
	return p.c.Set(key, buf)
}

func (p *Provider) GetString(_ context.Context, key string) (string, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	e, err := envelope.Decode(b)
	if err != nil {
		// foreign or truncated bytes: drop them
		_ = p.c.Delete(key)
		return "", false, nil
	}
	now := p.now()
	if e.Expired(now) {
		_ = p.c.Delete(key)
		return "", false, nil
	}
	value := string(e.Value)
	if e.Touch(now) {
		buf, err := envelope.Encode(e)
		if err == nil {
			err = p.c.Set(key, buf)
		}
		if err != nil {
			return "", false, err
		}
	}
	return value, true, nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
