// Package codec turns caller values into the transport representation kept
// in the backend and back.
//
// Decode must fail (rather than return a silently wrong value) when the bytes
// were produced for an incompatible type; recordcache reports that as a
// DeserializationError, distinct from a miss.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
