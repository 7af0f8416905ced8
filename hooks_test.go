package recordcache

import (
	"errors"
	"reflect"
	"testing"
)

func TestMultiHooks(t *testing.T) {
	a, b := &recHooks{}, &recHooks{}
	h := MultiHooks(a, nil, b)

	h.Hit("k")
	h.BackendFailed("set", "k", errors.New("x"))

	want := []string{"hit:k", "backend_set:k"}
	if !reflect.DeepEqual(a.events, want) || !reflect.DeepEqual(b.events, want) {
		t.Fatalf("a=%v b=%v", a.events, b.events)
	}
	if _, ok := MultiHooks(nil).(NopHooks); !ok {
		t.Fatalf("empty fan-out should be NopHooks")
	}
}
