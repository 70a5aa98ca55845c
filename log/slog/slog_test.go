package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/catalogcache"
)

func TestTextOutputIsOrdered(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{
		Level: stdslog.LevelInfo,
		ReplaceAttr: func(_ []string, a stdslog.Attr) stdslog.Attr {
			if a.Key == stdslog.TimeKey {
				return stdslog.Attr{}
			}
			return a
		},
	})
	l := Logger{L: stdslog.New(h)}

	l.Debug("dropped", catalogcache.Fields{"x": 1})
	l.Info("cache sweep", catalogcache.Fields{"scanned": 3, "removed": 1})

	got := strings.TrimSpace(buf.String())
	want := `level=INFO msg="cache sweep" removed=1 scanned=3`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}
