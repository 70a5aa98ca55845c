// Package wire frames cached record copies before they are handed to a
// provider. The frame carries the index version of the entry that wrote it,
// so a reader can tell its own bytes apart from leftovers of an earlier
// entry under the same key.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("catalogcache: corrupt cache entry")
	magic4     = [...]byte{'C', 'A', 'T', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode: magic(4) | ver(1) | entryVersion(u64 be) | vlen(u32 be) | payload(vlen)
func Encode(entryVersion uint64, payload []byte) []byte {
	out := make([]byte, hdrLen+len(payload))
	copy(out, magic4[:])
	out[4] = version
	binary.BigEndian.PutUint64(out[5:13], entryVersion)
	binary.BigEndian.PutUint32(out[13:17], uint32(len(payload)))
	copy(out[hdrLen:], payload)
	return out
}

// Decode validates the frame and returns a slice of b holding the payload.
// Trailing bytes after the payload are rejected.
func Decode(b []byte) (entryVersion uint64, payload []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return 0, nil, ErrCorrupt
	}
	entryVersion = binary.BigEndian.Uint64(b[5:13])
	vlen := int(binary.BigEndian.Uint32(b[13:17]))
	if vlen != len(b)-hdrLen {
		return 0, nil, ErrCorrupt
	}
	return entryVersion, b[hdrLen:], nil
}
