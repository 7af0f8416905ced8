package recordcache

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyKey      = errors.New("recordcache: empty key")
	ErrInvalidPolicy = errors.New("recordcache: negative expiration")
	ErrNilBackend    = errors.New("recordcache: backend is required")
)

// SerializationError reports a value the codec could not encode.
// Nothing was written to the backend.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("recordcache: encode %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// DeserializationError reports a stored record that does not decode into
// the requested type (schema drift between writer and reader, foreign
// writer). It is never returned for a miss.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("recordcache: decode %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// BackendError carries the backend's own error untouched in Err.
// recordcache never retries; errors.Is/As see through it.
type BackendError struct {
	Op  string // "get" or "set"
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("recordcache: backend %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
