package validator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/catalogcache"
	"github.com/unkn0wn-root/catalogcache/record"
)

func TestValidate(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	v := Validator{MaxNameLen: 20, Now: func() time.Time { return now }}

	ok := record.Record{
		Name:        "Goku",
		Model:       record.Anime,
		Price:       0,
		ReleaseDate: now.AddDate(-1, 0, 0),
	}
	require.NoError(t, v.Validate(ok))

	tests := []struct {
		name  string
		edit  func(*record.Record)
		field string
	}{
		{"empty name", func(r *record.Record) { r.Name = "" }, "name"},
		{"blank name", func(r *record.Record) { r.Name = "   " }, "name"},
		{"long name", func(r *record.Record) { r.Name = "Son Goku Super Saiyan Blue" }, "name"},
		{"negative price", func(r *record.Record) { r.Price = -0.01 }, "price"},
		{"NaN price", func(r *record.Record) { r.Price = math.NaN() }, "price"},
		{"infinite price", func(r *record.Record) { r.Price = math.Inf(1) }, "price"},
		{"unknown model", func(r *record.Record) { r.Model = "PIXAR" }, "model"},
		{"missing release date", func(r *record.Record) { r.ReleaseDate = time.Time{} }, "releaseDate"},
		{"future release date", func(r *record.Record) { r.ReleaseDate = now.Add(24 * time.Hour) }, "releaseDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ok
			tt.edit(&r)
			err := v.Validate(r)
			var ve *catalogcache.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			require.Equal(t, tt.field, ve.Field)
			require.NotEmpty(t, ve.Reason)
		})
	}
}

func TestZeroValueValidatorUsesWallClock(t *testing.T) {
	r := record.New("Naruto", record.Anime, 9.99, time.Now().AddDate(0, 0, -1))
	require.NoError(t, New().Validate(r))

	r.ReleaseDate = time.Now().AddDate(1, 0, 0)
	require.Error(t, New().Validate(r))
}
