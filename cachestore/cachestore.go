package cachestore

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/catalogcache/codec"
	"github.com/unkn0wn-root/catalogcache/internal/wire"
	pr "github.com/unkn0wn-root/catalogcache/provider"
	"github.com/unkn0wn-root/catalogcache/provider/memory"
	"github.com/unkn0wn-root/catalogcache/record"
)

const (
	defaultMaxSize          = 10
	defaultTTL              = 2 * time.Minute
	defaultSweepInterval    = time.Minute
	defaultSweepParallelism = 8
	defaultGenRetention     = 30 * time.Minute
)

var ErrNoLookup = errors.New("cachestore: lookup is required")

// LookupFunc resolves the authoritative last-modified time of the record
// stored under key. ok=false means the record no longer exists.
type LookupFunc func(ctx context.Context, key string) (lastModified time.Time, ok bool, err error)

// EvictReason tells why an entry left the cache without an explicit Remove.
type EvictReason string

const (
	EvictCapacity EvictReason = "capacity"
	EvictExpired  EvictReason = "expired"
	EvictCorrupt  EvictReason = "corrupt"  // provider lost, mangled or outdated the bytes
	EvictRejected EvictReason = "rejected" // encode failed or provider refused the write
)

// Options configure a Cache. Only Lookup is required.
type Options struct {
	MaxSize          int           // 0 => 10
	TTL              time.Duration // 0 => 2m
	SweepInterval    time.Duration // 0 => 1m; < 0 disables the background sweep
	SweepParallelism int           // concurrent lookups per sweep; 0 => 8
	GenRetention     time.Duration // how long write generations outlive their last bump; 0 => 30m

	Lookup   LookupFunc
	Provider pr.Provider                // nil => in-process memory provider
	Codec    codec.Codec[record.Record] // nil => msgpack

	// Callbacks run outside the cache lock. They must be cheap.
	OnEvict func(key string, reason EvictReason)
	OnSweep func(scanned, removed int, took time.Duration)

	Now func() time.Time // nil => time.Now
}

type entry struct {
	key     string
	version uint64
}

type genEntry struct {
	gen       uint64
	updatedAt time.Time
}

type eviction struct {
	key    string
	reason EvictReason
}

// Cache is safe for concurrent use. A single mutex guards the index, the
// recency list and the generations; it is held across provider calls so the
// index and the provider never disagree about which version is current.
type Cache struct {
	maxSize       int
	ttl           time.Duration
	sweepInterval time.Duration
	parallelism   int
	genRetention  time.Duration

	lookup   LookupFunc
	provider pr.Provider
	codec    codec.Codec[record.Record]
	onEvict  func(string, EvictReason)
	onSweep  func(int, int, time.Duration)
	now      func() time.Time

	mu          sync.Mutex
	items       map[string]*list.Element
	lru         *list.List // Front = most recently used, Back = least recently used
	nextVersion uint64
	gens        map[string]genEntry

	// background sweep
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New builds a Cache and starts its sweep loop unless SweepInterval < 0.
func New(opts Options) (*Cache, error) {
	if opts.Lookup == nil {
		return nil, ErrNoLookup
	}
	if opts.MaxSize < 0 {
		return nil, fmt.Errorf("cachestore: negative max size %d", opts.MaxSize)
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("cachestore: negative ttl %s", opts.TTL)
	}

	c := &Cache{
		maxSize:       coalesce(opts.MaxSize, defaultMaxSize),
		ttl:           coalesce(opts.TTL, defaultTTL),
		sweepInterval: coalesce(opts.SweepInterval, defaultSweepInterval),
		parallelism:   coalesce(opts.SweepParallelism, defaultSweepParallelism),
		genRetention:  coalesce(opts.GenRetention, defaultGenRetention),
		lookup:        opts.Lookup,
		provider:      opts.Provider,
		codec:         opts.Codec,
		onEvict:       opts.OnEvict,
		onSweep:       opts.OnSweep,
		now:           opts.Now,
		items:         make(map[string]*list.Element),
		lru:           list.New(),
		gens:          make(map[string]genEntry),
	}
	if c.provider == nil {
		c.provider = memory.New()
	}
	if c.codec == nil {
		c.codec = codec.Msgpack[record.Record]{}
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	if c.sweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop()
	}
	return c, nil
}

// Put inserts or replaces key, marks it most recently used and evicts least
// recently used entries until the cache is back within MaxSize.
func (c *Cache) Put(ctx context.Context, key string, rec record.Record) {
	payload, err := c.codec.Encode(rec)

	c.mu.Lock()
	c.bumpGenLocked(key)
	var evicted []eviction
	if err != nil {
		if c.unlinkLocked(key) {
			_ = c.provider.Del(ctx, key)
		}
		evicted = []eviction{{key, EvictRejected}}
	} else {
		evicted = c.storeLocked(ctx, key, payload)
	}
	c.mu.Unlock()

	c.notify(evicted)
}

// PutIfGen stores rec only if key's write generation still equals observed.
// It reports whether the value was stored.
func (c *Cache) PutIfGen(ctx context.Context, key string, rec record.Record, observed uint64) bool {
	payload, err := c.codec.Encode(rec)
	if err != nil {
		c.notify([]eviction{{key, EvictRejected}})
		return false
	}

	c.mu.Lock()
	if c.gens[key].gen != observed {
		c.mu.Unlock()
		return false
	}
	evicted := c.storeLocked(ctx, key, payload)
	c.mu.Unlock()

	c.notify(evicted)
	for _, ev := range evicted {
		if ev.key == key && ev.reason == EvictRejected {
			return false
		}
	}
	return true
}

// Get returns a copy of the cached record and marks it most recently used.
// A false result means "unknown", not "does not exist".
func (c *Cache) Get(ctx context.Context, key string) (*record.Record, bool) {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}
	ver := el.Value.(*entry).version

	raw, hit, err := c.provider.Get(ctx, key)
	if err != nil {
		// provider outage: keep the entry, report unknown
		c.mu.Unlock()
		return nil, false
	}
	var payload []byte
	if hit {
		var framed uint64
		framed, payload, err = wire.Decode(raw)
		hit = err == nil && framed == ver
	}
	if !hit {
		c.unlinkLocked(key)
		_ = c.provider.Del(ctx, key)
		c.mu.Unlock()
		c.notify([]eviction{{key, EvictCorrupt}})
		return nil, false
	}
	c.lru.MoveToFront(el)
	c.mu.Unlock()

	rec, err := c.codec.Decode(payload)
	if err != nil {
		c.dropIfVersion(ctx, key, ver, EvictCorrupt)
		return nil, false
	}
	return &rec, true
}

// Remove deletes key if present. Removing a missing key is a no-op apart from
// invalidating in-flight fills for it.
func (c *Cache) Remove(ctx context.Context, key string) {
	c.mu.Lock()
	c.bumpGenLocked(key)
	if c.unlinkLocked(key) {
		_ = c.provider.Del(ctx, key)
	}
	c.mu.Unlock()
}

// Snapshot returns key's current write generation. Missing => 0.
func (c *Cache) Snapshot(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key].gen
}

// Len returns the number of indexed entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns keys in MRU -> LRU order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, c.lru.Len())
	for el := c.lru.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry).key)
	}
	return out
}

// MaxSize and TTL report the effective configuration.
func (c *Cache) MaxSize() int       { return c.maxSize }
func (c *Cache) TTL() time.Duration { return c.ttl }

// Shutdown stops the background sweep. It is idempotent and waits for an
// in-flight sweep to return. Put, Get, Remove and Clear keep working.
func (c *Cache) Shutdown() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.wg.Wait()
	})
}

// Close shuts the sweep down and releases the provider. Use it at process
// exit only; the cache is unusable afterwards.
func (c *Cache) Close(ctx context.Context) error {
	c.Shutdown()
	return c.provider.Close(ctx)
}

// storeLocked writes payload under a fresh version, marks key MRU and applies
// capacity eviction. Caller holds c.mu.
func (c *Cache) storeLocked(ctx context.Context, key string, payload []byte) []eviction {
	c.nextVersion++
	ver := c.nextVersion
	if el, ok := c.items[key]; ok {
		el.Value.(*entry).version = ver
		c.lru.MoveToFront(el)
	} else {
		c.items[key] = c.lru.PushFront(&entry{key: key, version: ver})
	}

	ok, err := c.provider.Set(ctx, key, wire.Encode(ver, payload), 1, 0)
	if err != nil || !ok {
		c.unlinkLocked(key)
		_ = c.provider.Del(ctx, key)
		return []eviction{{key, EvictRejected}}
	}

	var evicted []eviction
	for len(c.items) > c.maxSize {
		el := c.lru.Back()
		if el == nil {
			break
		}
		victim := el.Value.(*entry).key
		c.unlinkLocked(victim)
		_ = c.provider.Del(ctx, victim)
		evicted = append(evicted, eviction{victim, EvictCapacity})
	}
	return evicted
}

func (c *Cache) dropIfVersion(ctx context.Context, key string, ver uint64, reason EvictReason) bool {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok || el.Value.(*entry).version != ver {
		c.mu.Unlock()
		return false
	}
	c.unlinkLocked(key)
	_ = c.provider.Del(ctx, key)
	c.mu.Unlock()
	c.notify([]eviction{{key, reason}})
	return true
}

func (c *Cache) unlinkLocked(key string) bool {
	el, ok := c.items[key]
	if !ok {
		return false
	}
	delete(c.items, key)
	c.lru.Remove(el)
	return true
}

// bumpGenLocked draws key's next generation from the cache-wide version
// counter, so a generation forgotten by pruning is never handed out again.
func (c *Cache) bumpGenLocked(key string) {
	c.nextVersion++
	g := c.gens[key]
	g.gen = c.nextVersion
	g.updatedAt = c.now()
	c.gens[key] = g
}

func (c *Cache) notify(evicted []eviction) {
	if c.onEvict == nil {
		return
	}
	for _, ev := range evicted {
		c.onEvict(ev.key, ev.reason)
	}
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
