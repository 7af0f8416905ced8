package codec

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrCycle reports a value that refers back to itself. The reflection based
// encoders recurse without bound on such values and overflow the stack.
var ErrCycle = errors.New("codec: value contains a reference cycle")

// types whose serialization is up to their own method; not walked
var opaque = []reflect.Type{
	reflect.TypeFor[json.Marshaler](),
	reflect.TypeFor[encoding.TextMarshaler](),
	reflect.TypeFor[encoding.BinaryMarshaler](),
	reflect.TypeFor[msgpack.CustomEncoder](),
	reflect.TypeFor[msgpack.Marshaler](),
	reflect.TypeFor[cbor.Marshaler](),
}

// visit identifies a reference on the current path. Slices need the length
// too: a sub-slice shares its backing array without being a cycle.
type visit struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

// acyclic walks v the way the encoders would and fails with ErrCycle when a
// pointer, map or slice is reached again below itself. Shared references that
// do not loop are fine.
func acyclic(v any) error {
	w := walker{path: make(map[visit]struct{})}
	return w.walk(reflect.ValueOf(v))
}

type walker struct {
	path map[visit]struct{}
}

func (w *walker) enter(k visit, next func() error) error {
	if _, ok := w.path[k]; ok {
		return fmt.Errorf("%w (via %s)", ErrCycle, k.typ)
	}
	w.path[k] = struct{}{}
	err := next()
	delete(w.path, k)
	return err
}

func (w *walker) walk(v reflect.Value) error {
	if !v.IsValid() || isOpaque(v) {
		return nil
	}
	t := v.Type()
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return w.enter(visit{ptr: v.Pointer(), typ: t}, func() error { return w.walk(v.Elem()) })
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return w.walk(v.Elem())
	case reflect.Map:
		if v.IsNil() || scalar(t.Elem().Kind()) {
			return nil
		}
		return w.enter(visit{ptr: v.Pointer(), typ: t}, func() error {
			it := v.MapRange()
			for it.Next() {
				if err := w.walk(it.Value()); err != nil {
					return err
				}
			}
			return nil
		})
	case reflect.Slice:
		if v.Len() == 0 || scalar(t.Elem().Kind()) {
			return nil
		}
		return w.enter(visit{ptr: v.Pointer(), typ: t, n: v.Len()}, func() error { return w.elems(v) })
	case reflect.Array:
		if scalar(t.Elem().Kind()) {
			return nil
		}
		return w.elems(v)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() && !f.Anonymous {
				continue
			}
			if f.Tag.Get("json") == "-" {
				continue
			}
			if err := w.walk(v.Field(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) elems(v reflect.Value) error {
	for i := 0; i < v.Len(); i++ {
		if err := w.walk(v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func isOpaque(v reflect.Value) bool {
	t := v.Type()
	for _, o := range opaque {
		if t.Implements(o) {
			return true
		}
		if v.CanAddr() && reflect.PointerTo(t).Implements(o) {
			return true
		}
	}
	return false
}

func scalar(k reflect.Kind) bool {
	return k <= reflect.Complex128 || k == reflect.String
}
