// Package backup writes the record set to a file and reads it back.
//
// The format follows the file extension:
//
//	.json            indented JSON (default for any other extension)
//	.cbor            CBOR, deterministic encoding
//	.msgpack, .mp    MessagePack
package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/catalogcache"
	"github.com/unkn0wn-root/catalogcache/codec"
	"github.com/unkn0wn-root/catalogcache/record"
)

const defaultMaxFileSize = 64 << 20

var errNotDir = errors.New("not a directory")

type Options struct {
	MaxFileSize int // largest file Import decodes; 0 => 64 MiB
}

// Files is a file-system Backup. Safe for concurrent use; concurrent exports
// to the same path are last-writer-wins.
type Files struct {
	maxFileSize int
}

var _ catalogcache.Backup = (*Files)(nil)

func New(opts Options) *Files {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	return &Files{maxFileSize: opts.MaxFileSize}
}

// Export writes recs to dir/fileName. The directory must exist. The file is
// written to a temporary name first and renamed into place.
func (f *Files) Export(ctx context.Context, dir, fileName string, recs []record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkDir(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fileName)
	format, c := f.codecFor(fileName)

	if recs == nil {
		recs = []record.Record{}
	}
	b, err := c.Encode(recs)
	if err != nil {
		return &ParseError{Path: path, Format: format, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".backup-*")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Import reads the records stored in dir/fileName.
func (f *Files) Import(ctx context.Context, dir, fileName string) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fileName)
	format, c := f.codecFor(fileName)

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	recs, err := c.Decode(b)
	if err != nil {
		return nil, &ParseError{Path: path, Format: format, Err: err}
	}
	if recs == nil {
		recs = []record.Record{}
	}
	return recs, nil
}

func (f *Files) codecFor(fileName string) (string, codec.Codec[[]record.Record]) {
	var (
		format string
		inner  codec.Codec[[]record.Record]
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".cbor":
		format, inner = "cbor", codec.MustCBOR[[]record.Record](true)
	case ".msgpack", ".mp":
		format, inner = "msgpack", codec.Msgpack[[]record.Record]{}
	default:
		format, inner = "json", codec.JSON[[]record.Record]{Indent: "  "}
	}
	return format, codec.Limit[[]record.Record]{Inner: inner, MaxDecode: f.maxFileSize}
}

func checkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return &DirectoryError{Dir: dir, Err: err}
	}
	if !fi.IsDir() {
		return &DirectoryError{Dir: dir, Err: errNotDir}
	}
	return nil
}
