// Package redis stores records in Redis hashes:
//
//	HSET <key> absexp <unix ms | -1> sldexp <ms | -1> data <value>
//	PEXPIRE <key> <min(absolute, sliding)>
//
// Reads with a sliding window re-arm the key TTL to min(sliding, time left
// until absexp), so Redis itself drops idle entries.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/recordcache/backend"
)

var ErrNilClient = errors.New("redis backend: nil client")

const (
	fieldAbsolute = "absexp"
	fieldSliding  = "sldexp"
	fieldData     = "data"

	notPresent int64 = -1
)

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	now         func() time.Time
}

var (
	_ backend.Backend = (*Redis)(nil)
	_ backend.Closer  = (*Redis)(nil)
)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool             // set true only if this backend exclusively owns the client
	Clock       func() time.Time // nil => time.Now
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient, now: now}, nil
}

// SetString writes the hash and its TTL in one MULTI/EXEC so a reader never
// observes the value without its expiration.
func (p *Redis) SetString(ctx context.Context, key, value string, opts backend.EntryOptions) error {
	abs, sliding := notPresent, notPresent
	var ttl time.Duration
	if opts.AbsoluteExpiration > 0 {
		abs = p.now().Add(opts.AbsoluteExpiration).UnixMilli()
		ttl = opts.AbsoluteExpiration
	}
	if opts.SlidingExpiration > 0 {
		sliding = opts.SlidingExpiration.Milliseconds()
		if ttl == 0 || opts.SlidingExpiration < ttl {
			ttl = opts.SlidingExpiration
		}
	}

	_, err := p.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldAbsolute, abs, fieldSliding, sliding, fieldData, value)
		if ttl > 0 {
			pipe.PExpire(ctx, key, ttl)
		} else {
			pipe.Persist(ctx, key) // overwrite of an expiring entry
		}
		return nil
	})
	return err
}

func (p *Redis) GetString(ctx context.Context, key string) (string, bool, error) {
	vals, err := p.rdb.HMGet(ctx, key, fieldAbsolute, fieldSliding, fieldData).Result()
	if err != nil {
		return "", false, err // transport/server error
	}
	if len(vals) != 3 || vals[2] == nil {
		return "", false, nil // miss
	}
	data, ok := vals[2].(string)
	if !ok {
		return "", false, fmt.Errorf("redis backend: unexpected %T for %s", vals[2], fieldData)
	}

	abs, err := parseMillis(vals[0])
	if err != nil {
		return "", false, fmt.Errorf("redis backend %s at %s: %w", fieldAbsolute, key, err)
	}
	sliding, err := parseMillis(vals[1])
	if err != nil {
		return "", false, fmt.Errorf("redis backend %s at %s: %w", fieldSliding, key, err)
	}
	if sliding <= 0 {
		return data, true, nil
	}

	ttl := time.Duration(sliding) * time.Millisecond
	if abs != notPresent {
		left := time.UnixMilli(abs).Sub(p.now())
		if left <= 0 {
			return "", false, nil // Redis has not reaped it yet
		}
		if left < ttl {
			ttl = left
		}
	}
	if err := p.rdb.PExpire(ctx, key, ttl).Err(); err != nil {
		return "", false, err
	}
	return data, true, nil
}

// Close releases the underlying redis client only when this backend owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func parseMillis(v any) (int64, error) {
	switch vv := v.(type) {
	case nil:
		return notPresent, nil
	case string:
		return strconv.ParseInt(vv, 10, 64)
	case int64:
		return vv, nil
	default:
		return strconv.ParseInt(fmt.Sprint(vv), 10, 64)
	}
}
