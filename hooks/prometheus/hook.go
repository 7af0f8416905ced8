// Package promhook counts cache events with Prometheus counters.
package promhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/unkn0wn-root/recordcache"
)

type Options struct {
	// Namespace prefixes every metric name, e.g. "myapp".
	Namespace string
	// Cache distinguishes several caches sharing one registry. Defaults to "default".
	Cache string
	// Registerer receives the collectors. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

type Hooks struct {
	lookups  *prometheus.CounterVec
	codec    *prometheus.CounterVec
	backend  *prometheus.CounterVec
	loadErrs prometheus.Counter

	hit, miss prometheus.Counter
	enc, dec  prometheus.Counter
}

var _ recordcache.Hooks = (*Hooks)(nil)

// New registers the collectors and returns hooks bound to opts.Cache.
func New(opts Options) (*Hooks, error) {
	if opts.Cache == "" {
		opts.Cache = "default"
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels{"cache": opts.Cache}

	h := &Hooks{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   "recordcache",
			Name:        "lookups_total",
			Help:        "Cache reads, partitioned by result (hit or miss).",
			ConstLabels: constLabels,
		}, []string{"result"}),
		codec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   "recordcache",
			Name:        "codec_errors_total",
			Help:        "Values that failed to serialize or deserialize.",
			ConstLabels: constLabels,
		}, []string{"direction"}),
		backend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   "recordcache",
			Name:        "backend_errors_total",
			Help:        "Backend operations that returned an error, partitioned by op.",
			ConstLabels: constLabels,
		}, []string{"op"}),
		loadErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   "recordcache",
			Name:        "load_errors_total",
			Help:        "Cache-aside loaders that returned an error.",
			ConstLabels: constLabels,
		}),
	}
	for _, c := range []prometheus.Collector{h.lookups, h.codec, h.backend, h.loadErrs} {
		if err := opts.Registerer.Register(c); err != nil {
			return nil, err
		}
	}
	h.hit = h.lookups.WithLabelValues("hit")
	h.miss = h.lookups.WithLabelValues("miss")
	h.enc = h.codec.WithLabelValues("encode")
	h.dec = h.codec.WithLabelValues("decode")
	return h, nil
}

func (h *Hooks) Hit(string)                          { h.hit.Inc() }
func (h *Hooks) Miss(string)                         { h.miss.Inc() }
func (h *Hooks) EncodeFailed(string, error)          { h.enc.Inc() }
func (h *Hooks) DecodeFailed(string, error)          { h.dec.Inc() }
func (h *Hooks) BackendFailed(op, _ string, _ error) { h.backend.WithLabelValues(op).Inc() }
func (h *Hooks) LoadFailed(string, error)            { h.loadErrs.Inc() }
