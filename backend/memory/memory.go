// Package memory is an in-process backend. Useful for tests, single-replica
// services and as a reference for the backend contract.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/recordcache/backend"
	"github.com/unkn0wn-root/recordcache/internal/envelope"
)

type Config struct {
	// CleanupInterval enables a background sweep of expired entries.
	// 0 => expired entries are only dropped when read.
	CleanupInterval time.Duration
	// Clock overrides time.Now (tests).
	Clock func() time.Time
}

// Store keeps entries in a map guarded by a mutex. Reads take the write lock
// because a hit on a sliding entry moves its deadline.
type Store struct {
	mu      sync.Mutex
	entries map[string]envelope.Entry
	now     func() time.Time

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var (
	_ backend.Backend = (*Store)(nil)
	_ backend.Closer  = (*Store)(nil)
)

func New(cfg Config) *Store {
	s := &Store{
		entries: make(map[string]envelope.Entry),
		now:     cfg.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg.CleanupInterval > 0 {
		s.ticker = time.NewTicker(cfg.CleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Store) SetString(_ context.Context, key, value string, opts backend.EntryOptions) error {
	e := envelope.New([]byte(value), opts, s.now())
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) GetString(_ context.Context, key string) (string, bool, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if e.Expired(now) {
		delete(s.entries, key)
		return "", false, nil
	}
	if e.Touch(now) {
		s.entries[key] = e
	}
	return string(e.Value), true, nil
}

// Len reports the number of stored entries, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup drops every expired entry.
func (s *Store) Cleanup() {
	now := s.now()
	s.mu.Lock()
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
		}
	}
	s.mu.Unlock()
}

func (s *Store) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop()
			s.wg.Wait()
		}
	})
	return nil
}
