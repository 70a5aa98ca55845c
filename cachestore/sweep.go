package cachestore

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Clear runs one synchronous TTL sweep and returns the number of removed
// entries. An entry is removed when its record's authoritative last-modified
// time is older than now-TTL, when the record no longer exists, or when the
// lookup failed. Entries re-Put while the sweep was running are left alone.
//
// If ctx is cancelled mid-sweep nothing is removed.
func (c *Cache) Clear(ctx context.Context) int {
	start := c.now()
	cutoff := start.Add(-c.ttl)

	c.mu.Lock()
	snap := make([]entry, 0, len(c.items))
	for el := c.lru.Front(); el != nil; el = el.Next() {
		snap = append(snap, *el.Value.(*entry))
	}
	c.mu.Unlock()

	expired := make([]bool, len(snap))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, e := range snap {
		g.Go(func() error {
			lastModified, ok, err := c.lookup(gctx, e.key)
			expired[i] = err != nil || !ok || lastModified.Before(cutoff)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return 0
	}

	var evicted []eviction
	c.mu.Lock()
	for i, e := range snap {
		if !expired[i] {
			continue
		}
		el, ok := c.items[e.key]
		if !ok || el.Value.(*entry).version != e.version {
			continue
		}
		c.unlinkLocked(e.key)
		_ = c.provider.Del(ctx, e.key)
		evicted = append(evicted, eviction{e.key, EvictExpired})
	}
	c.pruneGensLocked(start)
	c.mu.Unlock()

	c.notify(evicted)
	if c.onSweep != nil {
		c.onSweep(len(snap), len(evicted), c.now().Sub(start))
	}
	return len(evicted)
}

// pruneGensLocked forgets write generations of keys that are not cached and
// were last bumped before the retention window.
func (c *Cache) pruneGensLocked(now time.Time) {
	cutoff := now.Add(-c.genRetention)
	for k, g := range c.gens {
		if _, cached := c.items[k]; cached {
			continue
		}
		if g.updatedAt.Before(cutoff) {
			delete(c.gens, k)
		}
	}
}

func (c *Cache) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.Clear(c.ctx)
		}
	}
}
