package recordcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths. Keys are storage keys (namespace applied).
type Hooks interface {
	Hit(storageKey string)
	Miss(storageKey string)

	// The codec failed on a value about to be written.
	EncodeFailed(storageKey string, err error)
	// A stored record did not decode into the requested type.
	DecodeFailed(storageKey string, err error)
	// The backend returned an error. op ∈ {"get", "set"}.
	BackendFailed(op, storageKey string, err error)
	// The GetOrLoad loader returned an error.
	LoadFailed(storageKey string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string)                          {}
func (NopHooks) Miss(string)                         {}
func (NopHooks) EncodeFailed(string, error)          {}
func (NopHooks) DecodeFailed(string, error)          {}
func (NopHooks) BackendFailed(string, string, error) {}
func (NopHooks) LoadFailed(string, error)            {}

// MultiHooks fans every event out to hs in order. Nil entries are skipped.
func MultiHooks(hs ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	if len(out) == 0 {
		return NopHooks{}
	}
	return out
}

type multiHooks []Hooks

func (m multiHooks) Hit(k string) {
	for _, h := range m {
		h.Hit(k)
	}
}

func (m multiHooks) Miss(k string) {
	for _, h := range m {
		h.Miss(k)
	}
}

func (m multiHooks) EncodeFailed(k string, err error) {
	for _, h := range m {
		h.EncodeFailed(k, err)
	}
}

func (m multiHooks) DecodeFailed(k string, err error) {
	for _, h := range m {
		h.DecodeFailed(k, err)
	}
}

func (m multiHooks) BackendFailed(op, k string, err error) {
	for _, h := range m {
		h.BackendFailed(op, k, err)
	}
}

func (m multiHooks) LoadFailed(k string, err error) {
	for _, h := range m {
		h.LoadFailed(k, err)
	}
}
