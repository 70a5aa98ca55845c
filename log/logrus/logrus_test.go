package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/unkn0wn-root/catalogcache"
)

func TestForwardsLevelAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Debug("cache hit", catalogcache.Fields{"id": "a"})
	l.Warn("store delete failed", catalogcache.Fields{"id": "b"})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Level != logrus.DebugLevel || entries[1].Level != logrus.WarnLevel {
		t.Fatalf("levels = %s, %s", entries[0].Level, entries[1].Level)
	}
	last := hook.LastEntry()
	if last.Message != "store delete failed" || last.Data["id"] != "b" || last.Data["component"] != "catalogcache" {
		t.Fatalf("unexpected entry %+v", last)
	}
}
