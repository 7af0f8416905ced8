package codec

import (
	"errors"
	"fmt"
)

var ErrTooLarge = errors.New("codec: payload too large")

// Limit wraps another codec and refuses payloads above MaxBytes in both
// directions: oversized values are not written, oversized stored entries
// (shared cache, untrusted writer) are not decoded.
// If MaxBytes <= 0, size limiting is disabled.
type Limit[V any] struct {
	Inner    Codec[V]
	MaxBytes int
}

func (c Limit[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxBytes > 0 && len(b) > c.MaxBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(b), c.MaxBytes)
	}
	return b, nil
}

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxBytes > 0 && len(b) > c.MaxBytes {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(b), c.MaxBytes)
	}
	return c.Inner.Decode(b)
}
