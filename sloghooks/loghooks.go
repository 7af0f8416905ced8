package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/recordcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitMissEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ recordcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(storageKey string) {
	if h.l == nil || !sample(h.opts.HitMissEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("recordcache.hit", "key", h.redact(storageKey))
}

func (h *Hooks) Miss(storageKey string) {
	if h.l == nil || !sample(h.opts.HitMissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("recordcache.miss", "key", h.redact(storageKey))
}

func (h *Hooks) EncodeFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("recordcache.encode_failed",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) DecodeFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("recordcache.decode_failed",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) BackendFailed(op, storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("recordcache.backend_failed",
		"op", op,
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) LoadFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("recordcache.load_failed",
		"key", h.redact(storageKey),
		"err", err)
}
