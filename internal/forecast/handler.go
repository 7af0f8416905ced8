package forecast

import (
	"log/slog"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/unkn0wn-root/recordcache"
	"github.com/unkn0wn-root/recordcache/internal/keys"
)

const KeyPrefix = "WeatherForecast"

type Handler struct {
	Cache recordcache.Cache[[]Forecast]
	Gen   *Generator
	Now   func() time.Time // nil => time.Now
	Log   *slog.Logger     // nil => slog.Default()
}

// ServeHTTP answers from the cache entry for the current minute, generating
// and storing a fresh set on a miss. Entries use the cache default policy.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	log := h.Log
	if log == nil {
		log = slog.Default()
	}

	key := keys.TimeBucket(KeyPrefix, now(), time.Minute)
	fs, err := h.Cache.GetOrLoad(r.Context(), key, recordcache.Policy{}, h.Gen.Generate)
	if err != nil {
		log.ErrorContext(r.Context(), "forecast unavailable", "key", key, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := jsoniter.NewEncoder(w).Encode(fs); err != nil {
		log.WarnContext(r.Context(), "write response", "err", err)
	}
}

// Routes mounts the forecast endpoint and, when metrics is non-nil, /metrics.
func Routes(h http.Handler, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /weatherforecast", h)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}
