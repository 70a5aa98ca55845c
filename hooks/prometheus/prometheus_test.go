package prometheus

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg, "catalog")

	h.CacheHit("a")
	h.CacheHit("a")
	h.CacheMiss("b")
	h.FillSkipped("b")
	h.CacheEvicted("c", "capacity")
	h.CacheEvicted("d", "expired")
	h.CacheEvicted("e", "expired")
	h.OperationDone("save", 2*time.Millisecond, nil)
	h.OperationDone("save", time.Millisecond, errors.New("x"))
	h.SweepDone(10, 3, 5*time.Millisecond)

	if v := testutil.ToFloat64(h.CacheHits); v != 2 {
		t.Errorf("hits = %v", v)
	}
	if v := testutil.ToFloat64(h.CacheMisses); v != 1 {
		t.Errorf("misses = %v", v)
	}
	if v := testutil.ToFloat64(h.FillsSkipped); v != 1 {
		t.Errorf("skipped = %v", v)
	}
	if v := testutil.ToFloat64(h.Evictions.WithLabelValues("expired")); v != 2 {
		t.Errorf("expired evictions = %v", v)
	}
	if v := testutil.ToFloat64(h.Operations.WithLabelValues("save", "error")); v != 1 {
		t.Errorf("failed saves = %v", v)
	}
	if v := testutil.ToFloat64(h.SweepRemoved); v != 3 {
		t.Errorf("sweep removed = %v", v)
	}
	if v := testutil.ToFloat64(h.SweepScanned); v != 10 {
		t.Errorf("sweep scanned = %v", v)
	}

	expected := `
# HELP catalog_cache_hits_total FindByID requests answered from the cache
# TYPE catalog_cache_hits_total counter
catalog_cache_hits_total 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "catalog_cache_hits_total"); err != nil {
		t.Fatal(err)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, "catalog")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	New(reg, "catalog")
}
