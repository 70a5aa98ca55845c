// Package validator holds the structural rules a record must satisfy before
// the store sees it.
package validator

import (
	"math"
	"strings"
	"time"

	"github.com/unkn0wn-root/catalogcache"
	"github.com/unkn0wn-root/catalogcache/record"
)

// Validator rejects records with a *catalogcache.ValidationError naming the
// first offending field.
type Validator struct {
	// MaxNameLen bounds the name in runes; 0 => unbounded.
	MaxNameLen int
	// Now is used for the "release date not in the future" rule. nil => time.Now.
	Now func() time.Time
}

var _ catalogcache.Validator = Validator{}

func New() Validator { return Validator{} }

func (v Validator) Validate(r record.Record) error {
	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		return invalid("name", "must not be empty")
	case v.MaxNameLen > 0 && len([]rune(name)) > v.MaxNameLen:
		return invalid("name", "too long")
	case math.IsNaN(r.Price) || math.IsInf(r.Price, 0):
		return invalid("price", "must be a finite number")
	case r.Price < 0:
		return invalid("price", "must not be negative")
	case !r.Model.Valid():
		return invalid("model", "unknown model "+string(r.Model))
	case r.ReleaseDate.IsZero():
		return invalid("releaseDate", "is required")
	case r.ReleaseDate.After(v.now()):
		return invalid("releaseDate", "must not be in the future")
	}
	return nil
}

func (v Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func invalid(field, reason string) error {
	return &catalogcache.ValidationError{Field: field, Reason: reason}
}
