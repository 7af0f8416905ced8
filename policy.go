package recordcache

import (
	"time"

	"github.com/unkn0wn-root/recordcache/backend"
)

// DefaultAbsoluteExpiration applies when neither the call nor the cache
// options set an absolute expiration.
const DefaultAbsoluteExpiration = 60 * time.Second

// Policy is the expiration policy of one write. Zero fields fall back to the
// cache's Options.DefaultPolicy, then to DefaultAbsoluteExpiration and no
// sliding window, so every record has a bounded absolute lifetime.
//
// When both are set the backend expires the record at whichever comes first.
type Policy struct {
	AbsoluteExpiration time.Duration
	SlidingExpiration  time.Duration
}

// resolve merges p over the cache defaults.
func (p Policy) resolve(def Policy) (backend.EntryOptions, error) {
	if p.AbsoluteExpiration < 0 || p.SlidingExpiration < 0 {
		return backend.EntryOptions{}, ErrInvalidPolicy
	}
	return backend.EntryOptions{
		AbsoluteExpiration: coalesce(p.AbsoluteExpiration, def.AbsoluteExpiration),
		SlidingExpiration:  coalesce(p.SlidingExpiration, def.SlidingExpiration),
	}, nil
}
