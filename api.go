package recordcache

import (
	"context"

	"github.com/unkn0wn-root/recordcache/backend"
	"github.com/unkn0wn-root/recordcache/codec"
)

// LoadFunc computes a fresh value on a cache miss.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// Cache is the typed record API over a backend.Backend.
// V is the caller's value type. Serialization is handled by a pluggable codec.Codec[V].
type Cache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// Get returns (v, true, nil) on hit and (zero, false, nil) on miss.
	// Errors are ErrEmptyKey, *DeserializationError or *BackendError.
	Get(ctx context.Context, key string) (v V, ok bool, err error)

	// Set replaces whatever is stored under key. Zero Policy fields take the
	// cache defaults. Errors are ErrEmptyKey, ErrInvalidPolicy,
	// *SerializationError or *BackendError.
	Set(ctx context.Context, key string, value V, policy Policy) error

	// GetOrLoad is cache-aside: on a miss (or an undecodable record) load is
	// called once per key across concurrent callers and its result is stored.
	// Cache read/write failures do not fail the call; load errors do.
	GetOrLoad(ctx context.Context, key string, policy Policy, load LoadFunc[V]) (V, error)
}

// Options tune the behavior of the typed cache.
// Only Backend is required; others have sensible defaults.
type Options[V any] struct {
	// Required
	Backend backend.Backend

	Codec         codec.Codec[V] // nil => codec.StrictJSON[V]; unknown fields fail decoding
	Namespace     string         // prepended verbatim to every key, e.g. "forecast-api_"
	DefaultPolicy Policy         // zero fields => 60s absolute, no sliding
	Logger        Logger         // if nil, NopLogger is used
	Hooks         Hooks          // if nil, NopHooks is used
	Disabled      bool           // default false (enabled); disabled => every Get misses, Set is a no-op
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
