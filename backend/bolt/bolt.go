// Package bolt is a persistent single-node backend on top of bbolt.
// Entries survive restarts; expiration is checked lazily on read and
// optionally swept by Cleanup.
package bolt

import (
	"context"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/unkn0wn-root/recordcache/backend"
	"github.com/unkn0wn-root/recordcache/internal/envelope"
)

type Store struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time
}

var (
	_ backend.Backend = (*Store)(nil)
	_ backend.Closer  = (*Store)(nil)
)

type Options struct {
	// Bucket is the name of the Bolt bucket to use. Default "records".
	Bucket string
	// Timeout for acquiring the file lock. Default 1s.
	Timeout time.Duration
	Clock   func() time.Time
}

// Open initializes or opens a Store at the given path.
func Open(path string, opts Options) (*Store, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	bucket := []byte("records")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, bucket: bucket, now: now}, nil
}

func (s *Store) SetString(_ context.Context, key, value string, opts backend.EntryOptions) error {
	buf, err := envelope.Encode(envelope.New([]byte(value), opts, s.now()))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
}

func (s *Store) GetString(_ context.Context, key string) (string, bool, error) {
	now := s.now()
	var (
		out     string
		found   bool
		rewrite bool
	)
	if err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		e, err := envelope.Decode(v)
		if err != nil || e.Expired(now) {
			rewrite = true
			return nil
		}
		found = true
		out = string(e.Value) // copies; v is only valid inside the tx
		rewrite = e.Sliding > 0
		return nil
	}); err != nil {
		return "", false, err
	}
	if !rewrite {
		return out, found, nil
	}

	// drop corrupt/expired entries or slide the deadline
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		e, err := envelope.Decode(v)
		if err != nil || e.Expired(now) {
			return b.Delete([]byte(key))
		}
		if !e.Touch(now) {
			return nil
		}
		buf, err := envelope.Encode(e)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), buf)
	})
	if err != nil {
		return "", false, err
	}
	return out, found, nil
}

// Cleanup deletes every expired or unreadable entry.
func (s *Store) Cleanup() error {
	now := s.now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		// deleting under a live cursor skips siblings; collect first
		var stale [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			if e, err := envelope.Decode(v); err != nil || e.Expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *Store) Close(context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
