package recordcache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/recordcache/backend"
	"github.com/unkn0wn-root/recordcache/codec"
)

type cache[V any] struct {
	ns      string
	backend backend.Backend
	codec   codec.Codec[V]
	log     Logger
	hooks   Hooks
	enabled bool
	policy  Policy

	loads singleflight.Group
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Backend == nil {
		return nil, ErrNilBackend
	}
	if opts.DefaultPolicy.AbsoluteExpiration < 0 || opts.DefaultPolicy.SlidingExpiration < 0 {
		return nil, ErrInvalidPolicy
	}

	c := &cache[V]{
		ns:      opts.Namespace,
		backend: opts.Backend,
		codec:   opts.Codec,
		enabled: !opts.Disabled,
	}

	// defaults
	if c.codec == nil {
		c.codec = codec.StrictJSON[V]{}
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.policy = Policy{
		AbsoluteExpiration: coalesce(opts.DefaultPolicy.AbsoluteExpiration, DefaultAbsoluteExpiration),
		SlidingExpiration:  opts.DefaultPolicy.SlidingExpiration,
	}
	return c, nil
}

func (c *cache[V]) Enabled() bool { return c.enabled }

func (c *cache[V]) Close(ctx context.Context) error {
	if cl, ok := c.backend.(backend.Closer); ok {
		return cl.Close(ctx)
	}
	return nil
}

func (c *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if key == "" {
		return zero, false, ErrEmptyKey
	}
	if !c.enabled {
		return zero, false, nil
	}
	k := c.storageKey(key)
	raw, ok, err := c.backend.GetString(ctx, k)
	if err != nil {
		c.hooks.BackendFailed("get", k, err)
		return zero, false, &BackendError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		c.hooks.Miss(k)
		return zero, false, nil
	}
	v, err := c.codec.Decode([]byte(raw))
	if err != nil {
		c.hooks.DecodeFailed(k, err)
		c.log.Warn("stored record does not decode", Fields{"key": key, "err": err})
		return zero, false, &DeserializationError{Key: key, Err: err}
	}
	c.hooks.Hit(k)
	return v, true, nil
}

func (c *cache[V]) Set(ctx context.Context, key string, value V, policy Policy) error {
	if key == "" {
		return ErrEmptyKey
	}
	opts, err := policy.resolve(c.policy)
	if err != nil {
		return err
	}
	if !c.enabled {
		return nil
	}
	k := c.storageKey(key)
	payload, err := c.codec.Encode(value)
	if err != nil {
		c.hooks.EncodeFailed(k, err)
		c.log.Error("record encode failed", Fields{"key": key, "err": err})
		return &SerializationError{Key: key, Err: err}
	}
	if err := c.backend.SetString(ctx, k, string(payload), opts); err != nil {
		c.hooks.BackendFailed("set", k, err)
		return &BackendError{Op: "set", Key: key, Err: err}
	}
	c.log.Debug("record stored", Fields{
		"key":      key,
		"absolute": opts.AbsoluteExpiration,
		"sliding":  opts.SlidingExpiration,
	})
	return nil
}

func (c *cache[V]) storageKey(userKey string) string {
	// caller-supplied namespace, no separator added
	return c.ns + userKey
}
