// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery: 100, // sample logs: ~every 100th hit
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	svc, _ := catalogcache.New(catalogcache.Options{
//	    Store: memstore.New(),
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/catalogcache"
)

// Hooks forwards events to inner on background workers. Events are dropped,
// never queued without bound, when the workers fall behind.
type Hooks struct {
	inner   catalogcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against concurrent sends
	closed  bool
	dropped atomic.Uint64
}

var _ catalogcache.Hooks = (*Hooks)(nil)

func New(inner catalogcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent afterwards
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(k string)    { h.try(func() { h.inner.CacheHit(k) }) }
func (h *Hooks) CacheMiss(k string)   { h.try(func() { h.inner.CacheMiss(k) }) }
func (h *Hooks) FillSkipped(k string) { h.try(func() { h.inner.FillSkipped(k) }) }
func (h *Hooks) CacheEvicted(k, r string) {
	h.try(func() { h.inner.CacheEvicted(k, r) })
}
func (h *Hooks) OperationDone(op string, d time.Duration, err error) {
	h.try(func() { h.inner.OperationDone(op, d, err) })
}
func (h *Hooks) SweepDone(scanned, removed int, d time.Duration) {
	h.try(func() { h.inner.SweepDone(scanned, removed, d) })
}
