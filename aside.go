package recordcache

import (
	"context"
	"errors"
)

func (c *cache[V]) GetOrLoad(ctx context.Context, key string, policy Policy, load LoadFunc[V]) (V, error) {
	var zero V
	if key == "" {
		return zero, ErrEmptyKey
	}
	if _, err := policy.resolve(c.policy); err != nil {
		return zero, err
	}

	v, ok, err := c.Get(ctx, key)
	if err == nil && ok {
		return v, nil
	}
	var de *DeserializationError
	switch {
	case errors.As(err, &de):
		c.log.Info("replacing undecodable record", Fields{"key": key})
	case err != nil:
		c.log.Warn("cache read failed; loading from source", Fields{"key": key, "err": err})
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	// One load per storage key in this process; other callers share its result.
	// The load outlives any single caller, so it keeps ctx values but not its
	// cancellation; each caller stops waiting when its own ctx is done.
	k := c.storageKey(key)
	lctx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(k, func() (any, error) {
		// a flight that just finished may have stored the value already
		if v, ok := c.peek(lctx, k); ok {
			return v, nil
		}
		v, err := load(lctx)
		if err != nil {
			c.hooks.LoadFailed(k, err)
			return nil, err
		}
		if err := c.Set(lctx, key, v, policy); err != nil {
			c.log.Warn("cache write after load failed", Fields{"key": key, "err": err})
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			c.log.Debug("load shared with concurrent caller", Fields{"key": key})
		}
		v, _ = res.Val.(V)
		return v, nil
	}
}

// peek reads k without reporting hooks; any failure counts as absent.
func (c *cache[V]) peek(ctx context.Context, k string) (V, bool) {
	var zero V
	if !c.enabled {
		return zero, false
	}
	raw, ok, err := c.backend.GetString(ctx, k)
	if err != nil || !ok {
		return zero, false
	}
	v, err := c.codec.Decode([]byte(raw))
	if err != nil {
		return zero, false
	}
	return v, true
}
