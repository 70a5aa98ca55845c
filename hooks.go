package catalogcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The service calls them on hot paths.
type Hooks interface {
	// FindByID answered from the cache / had to go to the store.
	CacheHit(key string)
	CacheMiss(key string)

	// An entry left the cache without an explicit delete.
	// reason ∈ {"capacity", "expired", "corrupt", "rejected"}
	CacheEvicted(key, reason string)

	// A read-through fill was dropped because a write touched the key
	// after the store read started.
	FillSkipped(key string)

	// A service operation finished. err is nil on success.
	OperationDone(op string, took time.Duration, err error)

	// A TTL sweep finished.
	SweepDone(scanned, removed int, took time.Duration)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string)                            {}
func (NopHooks) CacheMiss(string)                           {}
func (NopHooks) CacheEvicted(string, string)                {}
func (NopHooks) FillSkipped(string)                         {}
func (NopHooks) OperationDone(string, time.Duration, error) {}
func (NopHooks) SweepDone(int, int, time.Duration)          {}
