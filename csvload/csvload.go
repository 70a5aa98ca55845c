// Package csvload reads the catalog's seed CSV:
//
//	COD,NOMBRE,MODELO,PRECIO,FECHA_LANZAMIENTO
//
// The first line is a header. COD is a UUID; exports from the legacy system
// append junk after it, so only the first 36 characters are used.
package csvload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/catalogcache/record"
)

const (
	dateLayout = "2006-01-02"
	idLen      = 36
	numFields  = 5
)

// LineError points at the offending line (1-based, header included).
type LineError struct {
	Line  int
	Field string
	Err   error
}

func (e *LineError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("csv line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csv line %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Load reads the file at path.
func Load(ctx context.Context, path string) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvload: %w", err)
	}
	defer f.Close()
	return Read(ctx, f)
}

// Read parses every data row of r. It stops at the first bad row or when ctx
// is done.
func Read(ctx context.Context, r io.Reader) ([]record.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []record.Record{}, nil
		}
		return nil, &LineError{Line: 1, Err: err}
	}

	out := make([]record.Record, 0, 64)
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		rec, err := parseRow(row)
		if err != nil {
			var le *LineError
			if errors.As(err, &le) {
				le.Line = line
			}
			return nil, err
		}
		out = append(out, rec)
	}
}

func parseRow(row []string) (record.Record, error) {
	cod := strings.TrimSpace(row[0])
	if len(cod) > idLen {
		cod = cod[:idLen]
	}
	id, err := uuid.Parse(cod)
	if err != nil {
		return record.Record{}, &LineError{Field: "COD", Err: err}
	}
	model, err := record.ParseModel(row[2])
	if err != nil {
		return record.Record{}, &LineError{Field: "MODELO", Err: err}
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return record.Record{}, &LineError{Field: "PRECIO", Err: err}
	}
	released, err := time.Parse(dateLayout, strings.TrimSpace(row[4]))
	if err != nil {
		return record.Record{}, &LineError{Field: "FECHA_LANZAMIENTO", Err: err}
	}
	return record.Record{
		ID:          id,
		Name:        strings.TrimSpace(row[1]),
		Model:       model,
		Price:       price,
		ReleaseDate: released,
	}, nil
}
