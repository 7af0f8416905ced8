package codec

import jsoniter "github.com/json-iterator/go"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON follows encoding/json semantics (struct tags, Marshaler/Unmarshaler)
// through json-iterator. Unknown object fields are ignored, so a record read
// as an unrelated struct decodes to its zero value; use StrictJSON (the cache
// default) when that must fail. The zero value is ready to use.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) {
	if err := acyclic(v); err != nil {
		return nil, err
	}
	return jsonAPI.Marshal(v)
}

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := jsonAPI.Unmarshal(b, &v)
	return v, err
}

// StrictJSON is JSON that also rejects unknown object fields, so a reader
// whose struct drifted from the writer's fails instead of dropping data.
// It is the codec a cache uses when Options.Codec is nil.
type StrictJSON[V any] struct{}

var strictAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

func (StrictJSON[V]) Encode(v V) ([]byte, error) {
	if err := acyclic(v); err != nil {
		return nil, err
	}
	return strictAPI.Marshal(v)
}

func (StrictJSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := strictAPI.Unmarshal(b, &v)
	return v, err
}
