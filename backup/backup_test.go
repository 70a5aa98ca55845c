package backup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/catalogcache/record"
)

func records() []record.Record {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	return []record.Record{
		{ID: uuid.New(), Number: 1, Name: "Baby Yoda", Model: record.Disney, Price: 9.99,
			ReleaseDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), CreatedAt: ts, UpdatedAt: ts},
		{ID: uuid.New(), Number: 2, Name: "Zoro", Model: record.Anime, Price: 14.5,
			ReleaseDate: time.Date(2021, 7, 9, 0, 0, 0, 0, time.UTC), CreatedAt: ts, UpdatedAt: ts},
	}
}

func TestRoundTripPerFormat(t *testing.T) {
	ctx := context.Background()
	b := New(Options{})
	want := records()

	for _, name := range []string{"funkos.json", "funkos.cbor", "funkos.msgpack", "funkos.mp", "funkos.bak"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, b.Export(ctx, dir, name, want))

			got, err := b.Import(ctx, dir, name)
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				require.Equal(t, want[i].ID, got[i].ID)
				require.Equal(t, want[i].Name, got[i].Name)
				require.Equal(t, want[i].Model, got[i].Model)
				require.Equal(t, want[i].Price, got[i].Price)
				require.True(t, want[i].ReleaseDate.Equal(got[i].ReleaseDate))
				require.True(t, want[i].UpdatedAt.Equal(got[i].UpdatedAt))
			}

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, entries, 1, "temporary file left behind")
		})
	}
}

func TestExportEmptySet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := New(Options{})

	require.NoError(t, b.Export(ctx, dir, "empty.json", nil))
	raw, err := os.ReadFile(filepath.Join(dir, "empty.json"))
	require.NoError(t, err)
	require.Equal(t, "[]", string(raw))

	got, err := b.Import(ctx, dir, "empty.json")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestMissingDirectory(t *testing.T) {
	ctx := context.Background()
	b := New(Options{})
	dir := filepath.Join(t.TempDir(), "nope")

	err := b.Export(ctx, dir, "f.json", records())
	var de *DirectoryError
	require.True(t, errors.As(err, &de), "got %v", err)
	require.Equal(t, dir, de.Dir)
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = b.Import(ctx, dir, "f.json")
	require.True(t, errors.As(err, &de), "got %v", err)
}

func TestPathIsAFile(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := New(Options{}).Export(ctx, file, "f.json", records())
	var de *DirectoryError
	require.True(t, errors.As(err, &de), "got %v", err)
}

func TestImportMissingFile(t *testing.T) {
	_, err := New(Options{}).Import(context.Background(), t.TempDir(), "absent.json")
	var ioe *IOError
	require.True(t, errors.As(err, &ioe), "got %v", err)
	require.Equal(t, "read", ioe.Op)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestImportMalformed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"bad.json":    `[{"name": `,
		"bad.cbor":    "\xff\x00",
		"bad.msgpack": "\xc1",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
		_, err := New(Options{}).Import(ctx, dir, name)
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "%s: got %v", name, err)
	}
}

func TestImportRejectsOversizedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := New(Options{})
	require.NoError(t, b.Export(ctx, dir, "big.json", records()))

	_, err := New(Options{MaxFileSize: 16}).Import(ctx, dir, "big.json")
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := New(Options{})
	require.ErrorIs(t, b.Export(ctx, t.TempDir(), "f.json", records()), context.Canceled)
	_, err := b.Import(ctx, t.TempDir(), "f.json")
	require.ErrorIs(t, err, context.Canceled)
}
