// Package record defines the catalog item stored by the persistent store and
// copied into the cache.
package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Model is the product line a record belongs to.
type Model string

const (
	Marvel Model = "MARVEL"
	Disney Model = "DISNEY"
	Anime  Model = "ANIME"
	Other  Model = "OTHER"
)

// Models lists every known model in declaration order.
var Models = []Model{Marvel, Disney, Anime, Other}

// ParseModel maps a model name (case-insensitive) to a Model.
// "OTROS" is accepted as an alias of Other for legacy CSV exports.
func ParseModel(s string) (Model, error) {
	switch m := Model(strings.ToUpper(strings.TrimSpace(s))); m {
	case Marvel, Disney, Anime, Other:
		return m, nil
	case "OTROS":
		return Other, nil
	default:
		return "", fmt.Errorf("record: unknown model %q", s)
	}
}

// Valid reports whether m is one of Models.
func (m Model) Valid() bool {
	switch m {
	case Marvel, Disney, Anime, Other:
		return true
	}
	return false
}

// Record is a single catalog item. ID is immutable once the store created it.
// UpdatedAt is the authoritative last-modified time maintained by the store.
type Record struct {
	ID          uuid.UUID `json:"id" cbor:"id" msgpack:"id"`
	Number      int64     `json:"number" cbor:"number" msgpack:"number"`
	Name        string    `json:"name" cbor:"name" msgpack:"name"`
	Model       Model     `json:"model" cbor:"model" msgpack:"model"`
	Price       float64   `json:"price" cbor:"price" msgpack:"price"`
	ReleaseDate time.Time `json:"releaseDate" cbor:"releaseDate" msgpack:"releaseDate"`
	CreatedAt   time.Time `json:"createdAt" cbor:"createdAt" msgpack:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" cbor:"updatedAt" msgpack:"updatedAt"`
}

// New returns a record with a fresh random identifier.
func New(name string, model Model, price float64, releaseDate time.Time) Record {
	return Record{
		ID:          uuid.New(),
		Name:        name,
		Model:       model,
		Price:       price,
		ReleaseDate: releaseDate,
	}
}

// Key is the cache key of the record: its identifier as string.
func (r Record) Key() string { return r.ID.String() }

// Clone returns an independent copy. Record holds no reference types today,
// Clone exists so callers never depend on that.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

func (r Record) String() string {
	return fmt.Sprintf("Record{id=%s, number=%d, name=%q, model=%s, price=%.2f, releaseDate=%s, updatedAt=%s}",
		r.ID, r.Number, r.Name, r.Model, r.Price,
		r.ReleaseDate.Format(time.DateOnly), r.UpdatedAt.Format(time.RFC3339))
}
