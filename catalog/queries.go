// Package catalog answers aggregate questions about the whole catalog. Each
// query reads every record through FindAll and reduces the result, so it
// always reflects the store rather than the cache.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/unkn0wn-root/catalogcache"
	"github.com/unkn0wn-root/catalogcache/record"
)

// ErrEmptyCatalog is returned by queries that have no answer for an empty
// catalog (maximum, average).
var ErrEmptyCatalog = errors.New("catalog: no records")

// Source is the part of *catalogcache.Service the queries read from.
type Source interface {
	FindAll(ctx context.Context) *catalogcache.Future[[]record.Record]
}

// Queries runs the catalog reports against a Source.
type Queries struct {
	src Source
}

func New(src Source) *Queries { return &Queries{src: src} }

// MostExpensive resolves to the highest priced record.
func (q *Queries) MostExpensive(ctx context.Context) *catalogcache.Future[*record.Record] {
	return catalogcache.Then(q.src.FindAll(ctx), func(recs []record.Record) (*record.Record, error) {
		r, ok := MostExpensive(recs)
		if !ok {
			return nil, ErrEmptyCatalog
		}
		return &r, nil
	})
}

// AveragePrice resolves to the mean price of all records.
func (q *Queries) AveragePrice(ctx context.Context) *catalogcache.Future[float64] {
	return catalogcache.Then(q.src.FindAll(ctx), func(recs []record.Record) (float64, error) {
		avg, ok := AveragePrice(recs)
		if !ok {
			return 0, ErrEmptyCatalog
		}
		return avg, nil
	})
}

func (q *Queries) GroupByModel(ctx context.Context) *catalogcache.Future[map[record.Model][]record.Record] {
	return catalogcache.Then(q.src.FindAll(ctx), func(recs []record.Record) (map[record.Model][]record.Record, error) {
		return GroupByModel(recs), nil
	})
}

func (q *Queries) CountByModel(ctx context.Context) *catalogcache.Future[map[record.Model]int] {
	return catalogcache.Then(q.src.FindAll(ctx), func(recs []record.Record) (map[record.Model]int, error) {
		return CountByModel(recs), nil
	})
}

func (q *Queries) ReleasedIn(ctx context.Context, year int) *catalogcache.Future[[]record.Record] {
	return catalogcache.Then(q.src.FindAll(ctx), func(recs []record.Record) ([]record.Record, error) {
		return ReleasedIn(recs, year), nil
	})
}

func (q *Queries) WithNamePrefix(ctx context.Context, prefix string) *catalogcache.Future[[]record.Record] {
	return catalogcache.Then(q.src.FindAll(ctx), func(recs []record.Record) ([]record.Record, error) {
		return WithNamePrefix(recs, prefix), nil
	})
}

func (q *Queries) CountNamePrefix(ctx context.Context, prefix string) *catalogcache.Future[int] {
	return catalogcache.Then(q.src.FindAll(ctx), func(recs []record.Record) (int, error) {
		return CountNamePrefix(recs, prefix), nil
	})
}

// MostExpensive returns the highest priced record. Ties go to the earliest
// one in recs.
func MostExpensive(recs []record.Record) (record.Record, bool) {
	if len(recs) == 0 {
		return record.Record{}, false
	}
	best := recs[0]
	for _, r := range recs[1:] {
		if r.Price > best.Price {
			best = r
		}
	}
	return best, true
}

func AveragePrice(recs []record.Record) (float64, bool) {
	if len(recs) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range recs {
		sum += r.Price
	}
	return sum / float64(len(recs)), true
}

// GroupByModel buckets recs by model. Order inside a bucket follows recs.
func GroupByModel(recs []record.Record) map[record.Model][]record.Record {
	out := make(map[record.Model][]record.Record)
	for _, r := range recs {
		out[r.Model] = append(out[r.Model], r)
	}
	return out
}

func CountByModel(recs []record.Record) map[record.Model]int {
	out := make(map[record.Model]int)
	for _, r := range recs {
		out[r.Model]++
	}
	return out
}

// ReleasedIn keeps the records whose release date falls in year.
func ReleasedIn(recs []record.Record, year int) []record.Record {
	out := make([]record.Record, 0)
	for _, r := range recs {
		if r.ReleaseDate.Year() == year {
			out = append(out, r)
		}
	}
	return out
}

// WithNamePrefix keeps the records whose name starts with prefix. The match
// is case-sensitive.
func WithNamePrefix(recs []record.Record, prefix string) []record.Record {
	out := make([]record.Record, 0)
	for _, r := range recs {
		if strings.HasPrefix(r.Name, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func CountNamePrefix(recs []record.Record, prefix string) int {
	n := 0
	for _, r := range recs {
		if strings.HasPrefix(r.Name, prefix) {
			n++
		}
	}
	return n
}
