package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	promhooks "github.com/unkn0wn-root/catalogcache/hooks/prometheus"
	"github.com/unkn0wn-root/catalogcache/sloghooks"
)

func TestNewHooksSelectsSink(t *testing.T) {
	h, err := newHooks("slog", prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("slog: %v", err)
	}
	if _, ok := h.(*sloghooks.Hooks); !ok {
		t.Fatalf("slog: got %T", h)
	}

	for _, kind := range []string{"prometheus", ""} {
		h, err := newHooks(kind, prometheus.NewRegistry())
		if err != nil {
			t.Fatalf("%q: %v", kind, err)
		}
		if _, ok := h.(*promhooks.Hooks); !ok {
			t.Fatalf("%q: got %T", kind, h)
		}
	}

	if _, err := newHooks("statsd", prometheus.NewRegistry()); err == nil {
		t.Fatalf("expected error for unknown sink")
	}
}
