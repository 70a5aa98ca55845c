// Package memstore is an in-process record store. It backs tests and the demo
// command; nothing survives a restart.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unkn0wn-root/catalogcache"
	"github.com/unkn0wn-root/catalogcache/record"
)

var ErrDuplicateID = errors.New("memstore: duplicate id")

// Store keeps records in a map keyed by id. Callers always get copies.
type Store struct {
	mu   sync.RWMutex
	recs map[string]record.Record
	seq  int64
	now  func() time.Time
}

var _ catalogcache.Store = (*Store)(nil)

func New() *Store { return NewWithClock(nil) }

// NewWithClock uses now to stamp CreatedAt/UpdatedAt. nil => time.Now.
func NewWithClock(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{recs: make(map[string]record.Record), now: now}
}

// FindAll returns every record ordered by catalog number.
func (s *Store) FindAll(_ context.Context) ([]record.Record, error) {
	s.mu.RLock()
	out := make([]record.Record, 0, len(s.recs))
	for _, r := range s.recs {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*record.Record, error) {
	s.mu.RLock()
	r, ok := s.recs[normalize(id)]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// FindByName matches the whole name, ignoring case.
func (s *Store) FindByName(ctx context.Context, name string) ([]record.Record, error) {
	all, _ := s.FindAll(ctx)
	out := make([]record.Record, 0)
	for _, r := range all {
		if strings.EqualFold(r.Name, name) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Save inserts rec. A zero ID gets a random one; a caller-supplied ID (CSV
// imports) is kept and must not exist yet.
func (s *Store) Save(_ context.Context, rec record.Record) (*record.Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.Key()]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	s.seq++
	now := s.now()
	rec.Number = s.seq
	rec.CreatedAt, rec.UpdatedAt = now, now
	s.recs[rec.Key()] = rec
	return &rec, nil
}

// Update replaces the record stored under id. It returns nil when id is
// unknown. ID, Number and CreatedAt are kept from the stored record.
func (s *Store) Update(_ context.Context, id string, rec record.Record) (*record.Record, error) {
	id = normalize(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.recs[id]
	if !ok {
		return nil, nil
	}
	rec.ID, rec.Number, rec.CreatedAt = cur.ID, cur.Number, cur.CreatedAt
	rec.UpdatedAt = s.now()
	s.recs[id] = rec
	return &rec, nil
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	id = normalize(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return false, nil
	}
	delete(s.recs, id)
	return true, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}

func normalize(id string) string { return strings.ToLower(strings.TrimSpace(id)) }
