package recordcache

import (
	"context"

	"github.com/unkn0wn-root/recordcache/backend"
)

// SetRecord writes value as JSON under key with the given policy.
// It is the one-shot form of New(Options{Backend: b}).Set.
func SetRecord[V any](ctx context.Context, b backend.Backend, key string, value V, policy Policy) error {
	c, err := newCache(Options[V]{Backend: b})
	if err != nil {
		return err
	}
	return c.Set(ctx, key, value, policy)
}

// GetRecord reads the JSON record under key as V. A miss is (zero, false, nil).
// Reading a record written for an incompatible type yields *DeserializationError.
func GetRecord[V any](ctx context.Context, b backend.Backend, key string) (V, bool, error) {
	c, err := newCache(Options[V]{Backend: b})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return c.Get(ctx, key)
}
