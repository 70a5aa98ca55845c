package catalogcache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/unkn0wn-root/catalogcache/cachestore"
	"github.com/unkn0wn-root/catalogcache/record"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Service is the asynchronous CRUD facade over a Store and a cache. Every
// operation runs on its own goroutine, bounded by a shared worker limit.
// Safe for concurrent use.
type Service struct {
	store     Store
	validator Validator
	backup    Backup
	cache     *cachestore.Cache
	ownsCache bool
	log       Logger
	hooks     Hooks

	sem   *semaphore.Weighted
	fills singleflight.Group // read-through misses, keyed by id + write generation
}

// run executes fn on a pooled goroutine and completes the returned Future
// with its result. Waiting for a pool slot honours ctx.
func run[T any](s *Service, ctx context.Context, op string, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		start := time.Now()
		var (
			v   T
			err error
		)
		if err = s.sem.Acquire(ctx, 1); err == nil {
			v, err = fn(ctx)
			s.sem.Release(1)
		}
		if err != nil {
			s.log.Debug("operation failed", Fields{"op": op, "err": err})
		}
		s.hooks.OperationDone(op, time.Since(start), err)
		f.complete(v, err)
	}()
	return f
}

// FindAll returns every stored record. The cache is not consulted.
func (s *Service) FindAll(ctx context.Context) *Future[[]record.Record] {
	return run(s, ctx, "find_all", s.findAll)
}

func (s *Service) findAll(ctx context.Context) ([]record.Record, error) {
	recs, err := s.store.FindAll(ctx)
	if err != nil {
		s.log.Warn("store find all failed", Fields{"err": err})
		return nil, storeErr("find all", err)
	}
	if recs == nil {
		recs = []record.Record{}
	}
	return recs, nil
}

// FindByID answers from the cache when it can; otherwise reads the store and
// fills the cache. A missing record yields (nil, nil).
func (s *Service) FindByID(ctx context.Context, id string) *Future[*record.Record] {
	return run(s, ctx, "find_by_id", func(ctx context.Context) (*record.Record, error) {
		return s.findByID(ctx, id)
	})
}

func (s *Service) findByID(ctx context.Context, id string) (*record.Record, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, nil
	}
	if rec, ok := s.cache.Get(ctx, id); ok {
		s.hooks.CacheHit(id)
		s.log.Debug("cache hit", Fields{"id": id})
		return rec, nil
	}
	s.hooks.CacheMiss(id)

	// Requests that observed the same generation share one store read. A
	// write bumps the generation, so readers that start after it never join
	// a read that began before it.
	obs := s.cache.Snapshot(id)
	v, err, shared := s.fills.Do(id+"#"+strconv.FormatUint(obs, 10), func() (any, error) {
		rctx := context.WithoutCancel(ctx)
		rec, err := s.store.FindByID(rctx, id)
		if err != nil {
			s.log.Warn("store find by id failed", Fields{"id": id, "err": err})
			return nil, storeErr("find by id", err)
		}
		if rec == nil {
			return (*record.Record)(nil), nil
		}
		if s.cache.PutIfGen(rctx, id, *rec, obs) {
			s.log.Debug("cache filled", Fields{"id": id})
		} else {
			s.hooks.FillSkipped(id)
			s.log.Debug("cache fill skipped (key written during read)", Fields{"id": id, "obs": obs})
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	rec := v.(*record.Record)
	if shared {
		rec = rec.Clone()
	}
	return rec, nil
}

// FindByName returns the records whose name equals name, ignoring case. An
// empty match fails with *NotFoundError.
func (s *Service) FindByName(ctx context.Context, name string) *Future[[]record.Record] {
	return run(s, ctx, "find_by_name", func(ctx context.Context) ([]record.Record, error) {
		recs, err := s.store.FindByName(ctx, name)
		if err != nil {
			s.log.Warn("store find by name failed", Fields{"name": name, "err": err})
			return nil, storeErr("find by name", err)
		}
		if len(recs) == 0 {
			return nil, &NotFoundError{Name: name}
		}
		return recs, nil
	})
}

// Save validates rec, stores it and caches the stored copy. The Future
// completes after the cache holds the new record.
func (s *Service) Save(ctx context.Context, rec record.Record) *Future[*record.Record] {
	return run(s, ctx, "save", func(ctx context.Context) (*record.Record, error) {
		if err := s.validate(rec); err != nil {
			return nil, err
		}
		saved, err := s.store.Save(ctx, rec)
		if err != nil {
			s.log.Warn("store save failed", Fields{"id": idString(rec.ID), "err": err})
			return nil, storeErr("save", err)
		}
		if saved == nil {
			return nil, &NotSavedError{ID: idString(rec.ID)}
		}
		s.cache.Put(ctx, saved.Key(), *saved)
		return saved, nil
	})
}

// Update replaces the record stored under id. The identifier cannot change:
// rec.ID must be zero or equal to id.
func (s *Service) Update(ctx context.Context, id string, rec record.Record) *Future[*record.Record] {
	return run(s, ctx, "update", func(ctx context.Context) (*record.Record, error) {
		if err := s.validate(rec); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, &ValidationError{Field: "id", Reason: "not a valid identifier", Err: err}
		}
		if rec.ID != uuid.Nil && rec.ID != parsed {
			return nil, &ValidationError{Field: "id", Reason: "identifier is immutable"}
		}
		id = parsed.String()
		updated, err := s.store.Update(ctx, id, rec)
		if err != nil {
			s.log.Warn("store update failed", Fields{"id": id, "err": err})
			return nil, storeErr("update", err)
		}
		if updated == nil {
			return nil, &ValidationError{Reason: "update rejected"}
		}
		s.cache.Put(ctx, updated.Key(), *updated)
		return updated, nil
	})
}

// Delete removes the record stored under id. It reports false when there was
// nothing to delete and fails with *NotRemovedError when an existing record
// could not be removed; the cache is untouched in that case.
func (s *Service) Delete(ctx context.Context, id string) *Future[bool] {
	return run(s, ctx, "delete", func(ctx context.Context) (bool, error) {
		id, valid := canonicalID(id)
		if !valid {
			return false, nil
		}
		rec, err := s.findByID(ctx, id)
		if err != nil {
			return false, err
		}
		if rec == nil {
			return false, nil
		}
		ok, err := s.store.Delete(ctx, id)
		if err != nil {
			s.log.Warn("store delete failed", Fields{"id": id, "err": err})
			return false, &NotRemovedError{ID: id, Err: err}
		}
		if !ok {
			return false, &NotRemovedError{ID: id}
		}
		s.cache.Remove(ctx, id)
		return true, nil
	})
}

// ExportData writes every stored record to dir/fileName through the Backup.
// Backup errors are returned unchanged.
func (s *Service) ExportData(ctx context.Context, dir, fileName string) *Future[struct{}] {
	return run(s, ctx, "export", func(ctx context.Context) (struct{}, error) {
		if s.backup == nil {
			return struct{}{}, ErrNoBackup
		}
		recs, err := s.findAll(ctx)
		if err != nil {
			return struct{}{}, err
		}
		if err := s.backup.Export(ctx, dir, fileName, recs); err != nil {
			return struct{}{}, err
		}
		s.log.Info("records exported", Fields{"dir": dir, "file": fileName, "count": len(recs)})
		return struct{}{}, nil
	})
}

// ImportData reads records from dir/fileName through the Backup. Neither the
// store nor the cache is touched.
func (s *Service) ImportData(ctx context.Context, dir, fileName string) *Future[[]record.Record] {
	return run(s, ctx, "import", func(ctx context.Context) ([]record.Record, error) {
		if s.backup == nil {
			return nil, ErrNoBackup
		}
		return s.backup.Import(ctx, dir, fileName)
	})
}

// Shutdown stops the cache's background sweep. Operations keep working
// against the cache contents. Idempotent.
func (s *Service) Shutdown() {
	s.cache.Shutdown()
}

// Close shuts down and, if New built the cache, releases its provider.
func (s *Service) Close(ctx context.Context) error {
	s.Shutdown()
	if s.ownsCache {
		return s.cache.Close(ctx)
	}
	return nil
}

// Cache exposes the underlying cache for diagnostics.
func (s *Service) Cache() *cachestore.Cache { return s.cache }

func (s *Service) validate(rec record.Record) error {
	if s.validator == nil {
		return nil
	}
	err := s.validator.Validate(rec)
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &ValidationError{Reason: "rejected by validator", Err: err}
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

// canonicalID maps any accepted spelling of a UUID to the form used as cache
// key, so "ABC..." and "abc..." address the same entry.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
