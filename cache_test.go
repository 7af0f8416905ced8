package recordcache

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/unkn0wn-root/recordcache/backend"
	"github.com/unkn0wn-root/recordcache/backend/memory"
	"github.com/unkn0wn-root/recordcache/codec"
)

// recBackend is a map backend that records every call and can be told to fail.
type recBackend struct {
	mu       sync.Mutex
	m        map[string]string
	lastOpts backend.EntryOptions
	sets     int
	gets     int
	setErr   error
	getErr   error
	closed   bool
}

var (
	_ backend.Backend = (*recBackend)(nil)
	_ backend.Closer  = (*recBackend)(nil)
)

func newRecBackend() *recBackend { return &recBackend{m: make(map[string]string)} }

func (b *recBackend) SetString(_ context.Context, key, value string, opts backend.EntryOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sets++
	if b.setErr != nil {
		return b.setErr
	}
	b.m[key] = value
	b.lastOpts = opts
	return nil
}

func (b *recBackend) GetString(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gets++
	if b.getErr != nil {
		return "", false, b.getErr
	}
	v, ok := b.m[key]
	return v, ok, nil
}

func (b *recBackend) Close(context.Context) error { b.closed = true; return nil }

func (b *recBackend) getCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gets
}

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestCache[V any](t *testing.T, b backend.Backend, optsOpt func(*Options[V])) Cache[V] {
	t.Helper()
	opts := Options[V]{Backend: b}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	cc, err := New[V](opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cc
}

// ==============================
// Construction
// ==============================

func TestNewValidation(t *testing.T) {
	if _, err := New[user](Options[user]{}); !errors.Is(err, ErrNilBackend) {
		t.Fatalf("expected ErrNilBackend, got %v", err)
	}
	_, err := New[user](Options[user]{
		Backend:       newRecBackend(),
		DefaultPolicy: Policy{AbsoluteExpiration: -time.Second},
	})
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}

// ==============================
// Round-trip / miss / overwrite
// ==============================

type address struct {
	Street string `json:"street" fake:"{street}"`
	City   string `json:"city" fake:"{city}"`
}

type profile struct {
	ID      string         `json:"id" fake:"{uuid}"`
	Name    string         `json:"name" fake:"{name}"`
	Age     int            `json:"age" fake:"{number:1,120}"`
	Score   float64        `json:"score"`
	Active  bool           `json:"active"`
	Tags    []string       `json:"tags" fakesize:"3"`
	Attrs   map[string]int `json:"attrs" fakesize:"2"`
	Address *address       `json:"address"`
}

// TestRoundTripRandomValues: Set followed by Get returns a structurally equal value.
func TestRoundTripRandomValues(t *testing.T) {
	ctx := context.Background()
	faker := gofakeit.New(7)

	codecs := map[string]codec.Codec[profile]{
		"json":    codec.JSON[profile]{},
		"cbor":    codec.MustCBOR[profile](true),
		"msgpack": codec.Msgpack[profile]{},
	}
	for name, cd := range codecs {
		t.Run(name, func(t *testing.T) {
			cc := newTestCache(t, newRecBackend(), func(o *Options[profile]) { o.Codec = cd })
			for i := 0; i < 50; i++ {
				var in profile
				if err := faker.Struct(&in); err != nil {
					t.Fatalf("faker: %v", err)
				}
				key := faker.UUID()
				if err := cc.Set(ctx, key, in, Policy{}); err != nil {
					t.Fatalf("Set: %v", err)
				}
				out, ok, err := cc.Get(ctx, key)
				if err != nil || !ok {
					t.Fatalf("Get: ok=%v err=%v", ok, err)
				}
				if !reflect.DeepEqual(normalize(in), normalize(out)) {
					t.Fatalf("round-trip mismatch:\n in=%+v\nout=%+v", in, out)
				}
			}
		})
	}
}

// empty and nil collections are the same value once serialized
func normalize(p profile) profile {
	if len(p.Tags) == 0 {
		p.Tags = nil
	}
	if len(p.Attrs) == 0 {
		p.Attrs = nil
	}
	return p
}

func TestMissIsNotAnError(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache[user](t, newRecBackend(), nil)

	got, ok, err := cc.Get(ctx, "never-written")
	if err != nil || ok {
		t.Fatalf("expected plain miss, got ok=%v err=%v", ok, err)
	}
	if got != (user{}) {
		t.Fatalf("miss should return the zero value, got %+v", got)
	}
}

func TestOverwriteReplacesValue(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache[user](t, newRecBackend(), nil)

	_ = cc.Set(ctx, "u:1", user{ID: "1", Name: "Ada"}, Policy{})
	_ = cc.Set(ctx, "u:1", user{ID: "1", Name: "Grace"}, Policy{})

	got, ok, err := cc.Get(ctx, "u:1")
	if err != nil || !ok || got.Name != "Grace" {
		t.Fatalf("expected last write, got=%+v ok=%v err=%v", got, ok, err)
	}
}

// ==============================
// Expiration policy
// ==============================

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	b := newRecBackend()
	cc := newTestCache[user](t, b, nil)

	if err := cc.Set(ctx, "k", user{ID: "1"}, Policy{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	want := backend.EntryOptions{AbsoluteExpiration: 60 * time.Second}
	if b.lastOpts != want {
		t.Fatalf("default policy: got %+v want %+v", b.lastOpts, want)
	}
}

func TestPolicyResolution(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		defaults Policy
		call     Policy
		want     backend.EntryOptions
	}{
		{
			name: "call_overrides_absolute",
			call: Policy{AbsoluteExpiration: 5 * time.Minute},
			want: backend.EntryOptions{AbsoluteExpiration: 5 * time.Minute},
		},
		{
			name: "both_passed_through",
			call: Policy{AbsoluteExpiration: time.Hour, SlidingExpiration: 10 * time.Second},
			want: backend.EntryOptions{AbsoluteExpiration: time.Hour, SlidingExpiration: 10 * time.Second},
		},
		{
			name: "sliding_only_keeps_default_absolute",
			call: Policy{SlidingExpiration: 10 * time.Second},
			want: backend.EntryOptions{AbsoluteExpiration: DefaultAbsoluteExpiration, SlidingExpiration: 10 * time.Second},
		},
		{
			name:     "cache_defaults",
			defaults: Policy{AbsoluteExpiration: 2 * time.Minute, SlidingExpiration: 30 * time.Second},
			want:     backend.EntryOptions{AbsoluteExpiration: 2 * time.Minute, SlidingExpiration: 30 * time.Second},
		},
		{
			name:     "call_beats_cache_defaults",
			defaults: Policy{AbsoluteExpiration: 2 * time.Minute, SlidingExpiration: 30 * time.Second},
			call:     Policy{AbsoluteExpiration: time.Second},
			want:     backend.EntryOptions{AbsoluteExpiration: time.Second, SlidingExpiration: 30 * time.Second},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newRecBackend()
			cc := newTestCache(t, b, func(o *Options[user]) { o.DefaultPolicy = tc.defaults })
			if err := cc.Set(ctx, "k", user{}, tc.call); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if b.lastOpts != tc.want {
				t.Fatalf("got %+v want %+v", b.lastOpts, tc.want)
			}
		})
	}

	t.Run("negative_rejected", func(t *testing.T) {
		b := newRecBackend()
		cc := newTestCache[user](t, b, nil)
		err := cc.Set(ctx, "k", user{}, Policy{SlidingExpiration: -time.Second})
		if !errors.Is(err, ErrInvalidPolicy) {
			t.Fatalf("expected ErrInvalidPolicy, got %v", err)
		}
		if b.sets != 0 {
			t.Fatalf("invalid policy must not reach the backend")
		}
	})
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// TestExpiredRecordIsMiss runs the default policy against a real backend.
func TestExpiredRecordIsMiss(t *testing.T) {
	ctx := context.Background()
	clk := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	mem := memory.New(memory.Config{Clock: clk.Now})
	cc := newTestCache[user](t, mem, nil)
	defer cc.Close(ctx)

	_ = cc.Set(ctx, "k", user{ID: "1"}, Policy{})

	clk.Advance(59 * time.Second)
	if _, ok, err := cc.Get(ctx, "k"); err != nil || !ok {
		t.Fatalf("expected hit before 60s, ok=%v err=%v", ok, err)
	}
	clk.Advance(time.Second)
	if _, ok, err := cc.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss at 60s, ok=%v err=%v", ok, err)
	}
}

func TestSlidingExpirationThroughCache(t *testing.T) {
	ctx := context.Background()
	clk := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	cc := newTestCache[user](t, memory.New(memory.Config{Clock: clk.Now}), nil)

	_ = cc.Set(ctx, "k", user{ID: "1"}, Policy{AbsoluteExpiration: time.Hour, SlidingExpiration: 20 * time.Second})
	for i := 0; i < 3; i++ {
		clk.Advance(15 * time.Second)
		if _, ok, _ := cc.Get(ctx, "k"); !ok {
			t.Fatalf("read %d: sliding window should keep the record", i)
		}
	}
	clk.Advance(21 * time.Second)
	if _, ok, _ := cc.Get(ctx, "k"); ok {
		t.Fatalf("idle record should expire")
	}
}

// ==============================
// Errors
// ==============================

func TestEmptyKey(t *testing.T) {
	ctx := context.Background()
	b := newRecBackend()
	cc := newTestCache[user](t, b, nil)

	if err := cc.Set(ctx, "", user{}, Policy{}); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("Set: expected ErrEmptyKey, got %v", err)
	}
	if _, _, err := cc.Get(ctx, ""); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("Get: expected ErrEmptyKey, got %v", err)
	}
	if b.sets+b.gets != 0 {
		t.Fatalf("empty key must not reach the backend")
	}
}

type unencodable struct{}

func (unencodable) MarshalJSON() ([]byte, error) { return nil, errors.New("cannot encode") }

func TestSerializationError(t *testing.T) {
	ctx := context.Background()
	b := newRecBackend()
	cc := newTestCache[unencodable](t, b, nil)

	err := cc.Set(ctx, "k", unencodable{}, Policy{})
	var se *SerializationError
	if !errors.As(err, &se) {
		t.Fatalf("expected SerializationError, got %T: %v", err, err)
	}
	if se.Key != "k" {
		t.Fatalf("error key: got %q", se.Key)
	}
	if b.sets != 0 {
		t.Fatalf("nothing should be written when encoding fails")
	}
}

type cyclic struct {
	ID   string  `json:"id"`
	Next *cyclic `json:"next,omitempty"`
}

func TestSetCyclicValueIsSerializationError(t *testing.T) {
	ctx := context.Background()
	b := newRecBackend()
	cc := newTestCache[*cyclic](t, b, nil)

	n := &cyclic{ID: "loop"}
	n.Next = n
	err := cc.Set(ctx, "k", n, Policy{})
	var se *SerializationError
	if !errors.As(err, &se) || !errors.Is(err, codec.ErrCycle) {
		t.Fatalf("expected SerializationError wrapping ErrCycle, got %T: %v", err, err)
	}
	if b.sets != 0 {
		t.Fatalf("nothing should be written for a cyclic value")
	}
}

// TestTypeMismatch: a record written as A and read as an incompatible B is a
// DeserializationError, not a miss and not a silently wrong value.
func TestTypeMismatch(t *testing.T) {
	ctx := context.Background()
	b := newRecBackend()

	type counter struct {
		ID   int `json:"id"`
		Hits int `json:"hits"`
	}

	if err := SetRecord(ctx, b, "k", user{ID: "abc", Name: "Ada"}, Policy{}); err != nil {
		t.Fatalf("SetRecord: %v", err)
	}
	_, ok, err := GetRecord[counter](ctx, b, "k")
	var de *DeserializationError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeserializationError, got ok=%v err=%v", ok, err)
	}
	if ok {
		t.Fatalf("ok must be false on decode failure")
	}

	// no field in common with the record: still a mismatch, not a zero value
	hits, ok, err := GetRecord[struct{ Hits int }](ctx, b, "k")
	if !errors.As(err, &de) || ok {
		t.Fatalf("disjoint type: expected DeserializationError, got v=%+v ok=%v err=%v", hits, ok, err)
	}

	// the same record still reads fine as its own type
	got, ok, err := GetRecord[user](ctx, b, "k")
	if err != nil || !ok || got.Name != "Ada" {
		t.Fatalf("GetRecord[user]: got=%+v ok=%v err=%v", got, ok, err)
	}
}

func TestBackendFailurePassthrough(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("i/o timeout")

	t.Run("set", func(t *testing.T) {
		b := newRecBackend()
		b.setErr = boom
		cc := newTestCache[user](t, b, nil)

		err := cc.Set(ctx, "k", user{}, Policy{})
		var be *BackendError
		if !errors.As(err, &be) || be.Err != boom || be.Op != "set" {
			t.Fatalf("expected BackendError wrapping %v, got %v", boom, err)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("errors.Is should see the backend error")
		}
		if b.sets != 1 {
			t.Fatalf("expected exactly one backend write (no retry), got %d", b.sets)
		}
	})

	t.Run("get", func(t *testing.T) {
		b := newRecBackend()
		b.getErr = boom
		cc := newTestCache[user](t, b, nil)

		_, ok, err := cc.Get(ctx, "k")
		var be *BackendError
		if !errors.As(err, &be) || be.Err != boom || be.Op != "get" || ok {
			t.Fatalf("expected BackendError wrapping %v, got ok=%v err=%v", boom, ok, err)
		}
		if b.gets != 1 {
			t.Fatalf("expected exactly one backend read (no retry), got %d", b.gets)
		}
	})
}

// ==============================
// Options
// ==============================

func TestNamespacePrefixesKeys(t *testing.T) {
	ctx := context.Background()
	b := newRecBackend()
	cc := newTestCache(t, b, func(o *Options[user]) { o.Namespace = "Caching.Repository_" })

	_ = cc.Set(ctx, "WeatherForecast_20240301_1200", user{ID: "1"}, Policy{})
	if _, ok := b.m["Caching.Repository_WeatherForecast_20240301_1200"]; !ok {
		t.Fatalf("expected namespaced storage key, have %v", b.m)
	}
	if _, ok, _ := cc.Get(ctx, "WeatherForecast_20240301_1200"); !ok {
		t.Fatalf("Get should apply the same namespace")
	}
}

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	b := newRecBackend()
	cc := newTestCache(t, b, func(o *Options[user]) { o.Disabled = true })

	if cc.Enabled() {
		t.Fatalf("Enabled should be false")
	}
	if err := cc.Set(ctx, "k", user{ID: "1"}, Policy{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := cc.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("disabled cache should miss, ok=%v err=%v", ok, err)
	}
	if b.sets+b.gets != 0 {
		t.Fatalf("disabled cache must not touch the backend")
	}
}

func TestCloseClosesBackend(t *testing.T) {
	b := newRecBackend()
	cc := newTestCache[user](t, b, nil)
	if err := cc.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !b.closed {
		t.Fatalf("backend should be closed")
	}
}

// ==============================
// Hooks
// ==============================

type recHooks struct {
	mu     sync.Mutex
	events []string
}

func (h *recHooks) add(e string) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *recHooks) Hit(k string)                        { h.add("hit:" + k) }
func (h *recHooks) Miss(k string)                       { h.add("miss:" + k) }
func (h *recHooks) EncodeFailed(k string, _ error)      { h.add("encode:" + k) }
func (h *recHooks) DecodeFailed(k string, _ error)      { h.add("decode:" + k) }
func (h *recHooks) BackendFailed(op, k string, _ error) { h.add("backend_" + op + ":" + k) }
func (h *recHooks) LoadFailed(k string, _ error)        { h.add("load:" + k) }

func TestHooksObserveOutcomes(t *testing.T) {
	ctx := context.Background()
	b := newRecBackend()
	h := &recHooks{}
	cc := newTestCache(t, b, func(o *Options[user]) {
		o.Namespace = "ns:"
		o.Hooks = h
	})

	_, _, _ = cc.Get(ctx, "a")
	_ = cc.Set(ctx, "a", user{ID: "1"}, Policy{})
	_, _, _ = cc.Get(ctx, "a")
	b.m["ns:bad"] = "not json"
	_, _, _ = cc.Get(ctx, "bad")
	b.getErr = errors.New("down")
	_, _, _ = cc.Get(ctx, "a")

	want := []string{"miss:ns:a", "hit:ns:a", "decode:ns:bad", "backend_get:ns:a"}
	if !reflect.DeepEqual(h.events, want) {
		t.Fatalf("events: got %v want %v", h.events, want)
	}
}
