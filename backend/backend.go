// Package backend defines the key-value store abstraction used by recordcache.
//
// A Backend stores string values under string keys and enforces the expiration
// options it is given. Eviction, replication and connection pooling are entirely
// the backend's business; recordcache never looks past GetString and SetString.
//
// Implementations MUST be transparent: GetString returns exactly the string
// previously passed to SetString for the key (no re-encoding, no metadata). Any
// bookkeeping a store needs for expiration (absolute deadline, sliding window)
// lives next to the value, never inside it.
package backend

import (
	"context"
	"time"
)

// EntryOptions carries the expiration policy for one write.
// A zero duration means "not set".
//
// When both are set the entry expires at whichever comes first: the absolute
// deadline (write time + AbsoluteExpiration) or SlidingExpiration since the
// last successful read. When neither is set the entry does not expire.
type EntryOptions struct {
	AbsoluteExpiration time.Duration
	SlidingExpiration  time.Duration
}

// Backend is the minimal get/set-with-expiration capability.
// Must be safe for concurrent use.
type Backend interface {
	// SetString stores value under key, replacing any previous entry entirely.
	SetString(ctx context.Context, key, value string, opts EntryOptions) error

	// GetString returns (value, true, nil) on hit and ("", false, nil) on miss
	// or after expiration. A hit on an entry with a sliding window extends it.
	// If an IO/remote error happens, return ("", false, err).
	GetString(ctx context.Context, key string) (string, bool, error)
}

// Closer is implemented by backends that own releasable resources.
type Closer interface {
	Close(ctx context.Context) error
}
