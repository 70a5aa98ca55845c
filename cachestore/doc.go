// Package cachestore is the bounded, self-cleaning record cache that sits in
// front of the persistent store.
//
// Two independent mechanisms remove entries:
//
//   - Capacity: strict LRU, applied synchronously inside Put, so Len() <= MaxSize
//     holds after every Put.
//   - Time: a background sweep calls Clear every SweepInterval. Clear asks the
//     injected LookupFunc for each key's authoritative last-modified time and
//     removes entries older than TTL, entries whose record is gone and entries
//     whose lookup failed. Idle time in the cache does not matter.
//
// Values are kept as codec-encoded copies inside a provider.Provider, framed
// with the index version of the entry that wrote them. The cache owns the LRU
// index; a provider that drops or mangles bytes only ever causes a miss.
//
// Per-key write generations make read-through fills safe:
//
//	gen := c.Snapshot(key)      // before the store read
//	rec := readFromStore(key)
//	c.PutIfGen(ctx, key, rec, gen) // fills iff no Put/Remove touched key since
package cachestore
