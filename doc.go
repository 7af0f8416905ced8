// Package recordcache stores typed records in a key-value cache backend.
//
// A Cache[V] serializes values with a pluggable Codec[V] (JSON by default),
// writes them through a backend.Backend with an expiration Policy, and decodes
// them on read. A miss is (zero, false, nil), never an error, so cache-aside
// callers branch on ok instead of inspecting errors.
//
// Components:
//   - backend.Backend: string store with absolute/sliding expiration
//     (memory, Redis, Ristretto, BigCache, bbolt).
//   - codec.Codec[V]: V <-> []byte (JSON, CBOR, msgpack, protobuf).
//   - Policy: absolute expiration (default 60s) and optional sliding window.
//
// Cache-aside:
//
//	v, err := cache.GetOrLoad(ctx, key, recordcache.Policy{}, func(ctx context.Context) (Forecast, error) {
//	    return computeForecast(ctx)
//	})
//
// Concurrent writers to one key race at the backend; the last write wins.
package recordcache
