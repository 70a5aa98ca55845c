package catalogcache

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/unkn0wn-root/catalogcache/cachestore"
	"github.com/unkn0wn-root/catalogcache/record"
	"golang.org/x/sync/semaphore"
)

// Store is the authoritative record store. Implementations must be safe for
// concurrent use. A nil record with a nil error means "absent" (FindByID) or
// "not applied" (Save, Update).
type Store interface {
	FindAll(ctx context.Context) ([]record.Record, error)
	FindByID(ctx context.Context, id string) (*record.Record, error)
	// FindByName matches the whole name, ignoring case.
	FindByName(ctx context.Context, name string) ([]record.Record, error)
	Save(ctx context.Context, rec record.Record) (*record.Record, error)
	Update(ctx context.Context, id string, rec record.Record) (*record.Record, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Validator checks a record before it is written.
type Validator interface {
	Validate(rec record.Record) error
}

// Backup writes and reads the full record set to and from a file.
type Backup interface {
	Export(ctx context.Context, dir, fileName string, recs []record.Record) error
	Import(ctx context.Context, dir, fileName string) ([]record.Record, error)
}

// Options configure a Service. Only Store is required.
type Options struct {
	Store     Store
	Validator Validator // nil => every record is accepted
	Backup    Backup    // nil => ExportData/ImportData fail with ErrNoBackup
	Logger    Logger    // nil => NopLogger
	Hooks     Hooks     // nil => NopHooks
	Workers   int       // max in-flight operations; 0 => 4*GOMAXPROCS

	// Cache is used as is when set; the caller owns its lifetime and wiring.
	// Otherwise New builds one from CacheOptions, filling in Lookup with
	// StoreLastModified(Store) and routing evictions and sweeps to Hooks.
	Cache        *cachestore.Cache
	CacheOptions cachestore.Options
}

// New wires a Service. The built cache starts its background sweep here.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("catalogcache: store is required")
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("catalogcache: negative workers %d", opts.Workers)
	}

	s := &Service{
		store:     opts.Store,
		validator: opts.Validator,
		backup:    opts.Backup,
		log:       coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:     coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
	s.sem = semaphore.NewWeighted(int64(coalesce(opts.Workers, 4*runtime.GOMAXPROCS(0))))

	if opts.Cache != nil {
		s.cache = opts.Cache
		return s, nil
	}

	co := opts.CacheOptions
	if co.Lookup == nil {
		co.Lookup = StoreLastModified(opts.Store)
	}
	onEvict, onSweep := co.OnEvict, co.OnSweep
	co.OnEvict = func(key string, reason cachestore.EvictReason) {
		s.hooks.CacheEvicted(key, string(reason))
		s.log.Debug("cache entry evicted", Fields{"key": key, "reason": string(reason)})
		if onEvict != nil {
			onEvict(key, reason)
		}
	}
	co.OnSweep = func(scanned, removed int, took time.Duration) {
		s.hooks.SweepDone(scanned, removed, took)
		if removed > 0 {
			s.log.Debug("cache sweep", Fields{"scanned": scanned, "removed": removed, "took": took})
		}
		if onSweep != nil {
			onSweep(scanned, removed, took)
		}
	}

	c, err := cachestore.New(co)
	if err != nil {
		return nil, fmt.Errorf("catalogcache: build cache: %w", err)
	}
	s.cache = c
	s.ownsCache = true
	return s, nil
}

// StoreLastModified adapts st into the cache's lookup of a record's
// authoritative last-modified time.
func StoreLastModified(st Store) cachestore.LookupFunc {
	return func(ctx context.Context, key string) (time.Time, bool, error) {
		rec, err := st.FindByID(ctx, key)
		if err != nil {
			return time.Time{}, false, err
		}
		if rec == nil {
			return time.Time{}, false, nil
		}
		return rec.UpdatedAt, true, nil
	}
}
