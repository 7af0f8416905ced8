// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitMissEvery: 100, // sample logs: ~every 100th hit/miss
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := recordcache.New[User](recordcache.Options[User]{
//	    Namespace: "app:prod:user:",
//	    Backend:   be,
//	    Hooks:     hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/recordcache"
)

// Hooks moves event delivery off the caller's goroutine. When the queue is
// full events are dropped and counted, never blocking the cache.
type Hooks struct {
	inner   recordcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	dropped atomic.Uint64

	mu     sync.RWMutex // write-held only while closing q
	closed bool
}

var _ recordcache.Hooks = (*Hooks)(nil)

func New(inner recordcache.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = recordcache.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events reported after
// Close are dropped.
func (h *Hooks) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.q)
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(k string)                   { h.try(func() { h.inner.Hit(k) }) }
func (h *Hooks) Miss(k string)                  { h.try(func() { h.inner.Miss(k) }) }
func (h *Hooks) EncodeFailed(k string, e error) { h.try(func() { h.inner.EncodeFailed(k, e) }) }
func (h *Hooks) DecodeFailed(k string, e error) { h.try(func() { h.inner.DecodeFailed(k, e) }) }
func (h *Hooks) LoadFailed(k string, e error)   { h.try(func() { h.inner.LoadFailed(k, e) }) }
func (h *Hooks) BackendFailed(op, k string, e error) {
	h.try(func() { h.inner.BackendFailed(op, k, e) })
}
