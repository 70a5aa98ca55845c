package codec

import (
	"strings"
	"testing"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/unkn0wn-root/catalogcache/record"
)

func sampleRecord() record.Record {
	r := record.New("Doctor Who Tardis", record.Other, 42.24, time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC))
	r.Number = 7
	r.CreatedAt = time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	r.UpdatedAt = time.Date(2023, 1, 2, 11, 30, 15, 123456789, time.UTC)
	return r
}

func sameRecord(t *testing.T, got, want record.Record) {
	t.Helper()
	if got.ID != want.ID || got.Number != want.Number || got.Name != want.Name ||
		got.Model != want.Model || got.Price != want.Price {
		t.Fatalf("scalar fields differ:\n got=%v\nwant=%v", got, want)
	}
	if !got.ReleaseDate.Equal(want.ReleaseDate) || !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("time fields differ:\n got=%v\nwant=%v", got, want)
	}
}

func TestRecordCodecs(t *testing.T) {
	for _, name := range []string{"msgpack", "cbor", "json", "protobuf"} {
		t.Run(name, func(t *testing.T) {
			c, err := ForRecords(name)
			if err != nil {
				t.Fatalf("ForRecords: %v", err)
			}
			want := sampleRecord()
			b, err := c.Encode(want)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := c.Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			sameRecord(t, got, want)
		})
	}
}

func TestForRecordsUnknown(t *testing.T) {
	if _, err := ForRecords("xml"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestRecordProtoZeroTimesStayZero(t *testing.T) {
	r := record.New("Bare", record.Marvel, 0, time.Time{})
	b, err := RecordProto{}.Encode(r)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := RecordProto{}.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.ReleaseDate.IsZero() || !got.UpdatedAt.IsZero() {
		t.Fatalf("zero times should stay zero, got %v", got)
	}
	if got.ID != r.ID || got.Name != "Bare" {
		t.Fatalf("got %v", got)
	}
}

func TestRecordProtoSkipsUnknownFields(t *testing.T) {
	want := sampleRecord()
	b, err := RecordProto{}.Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b = protowire.AppendTag(b, 42, protowire.BytesType)
	b = protowire.AppendString(b, "from the future")
	got, err := RecordProto{}.Decode(b)
	if err != nil {
		t.Fatalf("Decode with unknown field: %v", err)
	}
	sameRecord(t, got, want)
}

func TestRecordProtoRejectsTruncated(t *testing.T) {
	b, err := RecordProto{}.Encode(sampleRecord())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := (RecordProto{}).Decode(b[:len(b)-3]); err == nil {
		t.Fatalf("expected error on truncated payload")
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	c := Limit[record.Record]{Inner: JSON[record.Record]{}, MaxDecode: 16}
	b, err := c.Encode(sampleRecord())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, err = c.Decode(b)
	if err == nil || !strings.Contains(err.Error(), "payload too large") {
		t.Fatalf("expected size error, got %v", err)
	}

	c.MaxDecode = 0
	if _, err := c.Decode(b); err != nil {
		t.Fatalf("limit disabled should decode: %v", err)
	}
}
