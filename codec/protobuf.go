package codec

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/unkn0wn-root/catalogcache/record"
)

// Field numbers of the record message:
//
//	message Record {
//	  bytes id = 1;
//	  int64 number = 2;
//	  string name = 3;
//	  string model = 4;
//	  double price = 5;
//	  google.protobuf.Timestamp release_date = 6;
//	  google.protobuf.Timestamp created_at = 7;
//	  google.protobuf.Timestamp updated_at = 8;
//	}
const (
	fieldID protowire.Number = iota + 1
	fieldNumber
	fieldName
	fieldModel
	fieldPrice
	fieldReleaseDate
	fieldCreatedAt
	fieldUpdatedAt
)

var errProtoTruncated = errors.New("codec: truncated protobuf record")

// RecordProto encodes records in protobuf wire format without generated code.
// Unknown fields are skipped on decode so newer writers stay readable.
type RecordProto struct{}

var _ Codec[record.Record] = RecordProto{}

func (RecordProto) Encode(r record.Record) ([]byte, error) {
	b := make([]byte, 0, 96+len(r.Name))
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, r.ID[:])
	if r.Number != 0 {
		b = protowire.AppendTag(b, fieldNumber, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Number))
	}
	if r.Name != "" {
		b = protowire.AppendTag(b, fieldName, protowire.BytesType)
		b = protowire.AppendString(b, r.Name)
	}
	if r.Model != "" {
		b = protowire.AppendTag(b, fieldModel, protowire.BytesType)
		b = protowire.AppendString(b, string(r.Model))
	}
	if r.Price != 0 {
		b = protowire.AppendTag(b, fieldPrice, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(r.Price))
	}
	var err error
	for _, ts := range []struct {
		num protowire.Number
		t   time.Time
	}{
		{fieldReleaseDate, r.ReleaseDate},
		{fieldCreatedAt, r.CreatedAt},
		{fieldUpdatedAt, r.UpdatedAt},
	} {
		if ts.t.IsZero() {
			continue
		}
		if b, err = appendTimestamp(b, ts.num, ts.t); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (RecordProto) Decode(b []byte) (record.Record, error) {
	var r record.Record
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return record.Record{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return record.Record{}, protowire.ParseError(n)
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return record.Record{}, fmt.Errorf("codec: record id: %w", err)
			}
			r.ID = id
			b = b[n:]
		case num == fieldNumber && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return record.Record{}, protowire.ParseError(n)
			}
			r.Number = int64(v)
			b = b[n:]
		case (num == fieldName || num == fieldModel) && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return record.Record{}, protowire.ParseError(n)
			}
			if num == fieldName {
				r.Name = v
			} else {
				r.Model = record.Model(v)
			}
			b = b[n:]
		case num == fieldPrice && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return record.Record{}, protowire.ParseError(n)
			}
			r.Price = math.Float64frombits(v)
			b = b[n:]
		case num >= fieldReleaseDate && num <= fieldUpdatedAt && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return record.Record{}, protowire.ParseError(n)
			}
			t, err := decodeTimestamp(v)
			if err != nil {
				return record.Record{}, err
			}
			switch num {
			case fieldReleaseDate:
				r.ReleaseDate = t
			case fieldCreatedAt:
				r.CreatedAt = t
			default:
				r.UpdatedAt = t
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return record.Record{}, errProtoTruncated
			}
			b = b[n:]
		}
	}
	return r, nil
}

func appendTimestamp(b []byte, num protowire.Number, t time.Time) ([]byte, error) {
	raw, err := proto.Marshal(timestamppb.New(t))
	if err != nil {
		return nil, err
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, raw), nil
}

func decodeTimestamp(raw []byte) (time.Time, error) {
	var ts timestamppb.Timestamp
	if err := proto.Unmarshal(raw, &ts); err != nil {
		return time.Time{}, fmt.Errorf("codec: timestamp: %w", err)
	}
	if err := ts.CheckValid(); err != nil {
		return time.Time{}, fmt.Errorf("codec: timestamp: %w", err)
	}
	return ts.AsTime(), nil
}
