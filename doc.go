// Package catalogcache serves a catalog of records from a persistent store
// through a bounded, time-limited in-memory cache.
//
// Components:
//   - Store: the authoritative record store (see store/memstore, store/redisstore).
//   - cachestore.Cache: LRU index over a byte Provider with a background TTL
//     sweep that checks each entry against the store's UpdatedAt.
//   - Validator, Backup: optional collaborators for writes and file backups.
//   - Service: the asynchronous facade. Every operation returns a *Future.
//
// Reads go to the cache first. A miss reads the store once per id (concurrent
// misses share the read) and fills the cache only if no write touched the key
// in the meantime:
//
//	obs := cache.Snapshot(id) // before the store read
//	rec := store.FindByID(id)
//	cache.PutIfGen(ctx, id, rec, obs) // skipped if a Put/Remove happened
//
// Writes complete their Future only after the cache reflects them, so a read
// issued after a write has resolved observes that write.
package catalogcache
