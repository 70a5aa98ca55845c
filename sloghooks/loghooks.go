// Package sloghooks logs catalogcache hook events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/catalogcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery  uint64
	MissEvery uint64
	// Log every operation, not only failed ones.
	LogAllOps bool
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ catalogcache.Hooks = (*Hooks)(nil)

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

func (h *Hooks) CacheHit(key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("catalogcache.cache_hit", "key", h.redact(key))
}

func (h *Hooks) CacheMiss(key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("catalogcache.cache_miss", "key", h.redact(key))
}

func (h *Hooks) CacheEvicted(key, reason string) {
	if h.l == nil {
		return
	}
	switch reason {
	case "corrupt", "rejected":
		h.l.Warn("catalogcache.cache_evicted", "key", h.redact(key), "reason", reason)
	default:
		h.l.Debug("catalogcache.cache_evicted", "key", h.redact(key), "reason", reason)
	}
}

func (h *Hooks) FillSkipped(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("catalogcache.fill_skipped", "key", h.redact(key))
}

func (h *Hooks) OperationDone(op string, took time.Duration, err error) {
	if h.l == nil {
		return
	}
	if err != nil {
		h.l.Warn("catalogcache.operation_failed", "op", op, "took", took, "err", err)
		return
	}
	if h.opts.LogAllOps {
		h.l.Debug("catalogcache.operation_done", "op", op, "took", took)
	}
}

func (h *Hooks) SweepDone(scanned, removed int, took time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Info("catalogcache.sweep_done",
		"scanned", scanned,
		"removed", removed,
		"took", took)
}
