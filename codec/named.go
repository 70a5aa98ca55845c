package codec

import (
	"fmt"
	"strings"

	"github.com/unkn0wn-root/catalogcache/record"
)

// ForRecords returns the record codec registered under name:
// "msgpack", "cbor", "json" or "protobuf".
func ForRecords(name string) (Codec[record.Record], error) {
	switch strings.ToLower(name) {
	case "", "msgpack":
		return Msgpack[record.Record]{}, nil
	case "cbor":
		return NewCBOR[record.Record](false)
	case "json":
		return JSON[record.Record]{}, nil
	case "protobuf", "proto":
		return RecordProto{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown record codec %q", name)
	}
}
