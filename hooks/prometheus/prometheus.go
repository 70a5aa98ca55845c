// Package prometheus exports catalogcache hook events as Prometheus metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/catalogcache"
)

// Hooks holds all metrics. Register once per registry.
type Hooks struct {
	// Cache metrics
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	Evictions    *prometheus.CounterVec
	FillsSkipped prometheus.Counter

	// Operation metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Sweep metrics
	SweepRemoved  prometheus.Counter
	SweepScanned  prometheus.Gauge
	SweepDuration prometheus.Histogram
}

var _ catalogcache.Hooks = (*Hooks)(nil)

// New registers the metrics on reg under namespace. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Hooks{
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "FindByID requests answered from the cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "FindByID requests that went to the store",
		}),
		Evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Entries removed by the cache itself, by reason",
		}, []string{"reason"}),
		FillsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_fills_skipped_total",
			Help:      "Read-through fills dropped because the key was written during the read",
		}),

		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by name and status",
		}, []string{"op", "status"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency by name",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),

		SweepRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_removed_total",
			Help:      "Entries expired by TTL sweeps",
		}),
		SweepScanned: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_scanned_entries",
			Help:      "Entries examined by the last sweep",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "TTL sweep duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (h *Hooks) CacheHit(string)    { h.CacheHits.Inc() }
func (h *Hooks) CacheMiss(string)   { h.CacheMisses.Inc() }
func (h *Hooks) FillSkipped(string) { h.FillsSkipped.Inc() }

func (h *Hooks) CacheEvicted(_ string, reason string) {
	h.Evictions.WithLabelValues(reason).Inc()
}

func (h *Hooks) OperationDone(op string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.Operations.WithLabelValues(op, status).Inc()
	h.OperationDuration.WithLabelValues(op).Observe(took.Seconds())
}

func (h *Hooks) SweepDone(scanned, removed int, took time.Duration) {
	h.SweepRemoved.Add(float64(removed))
	h.SweepScanned.Set(float64(scanned))
	h.SweepDuration.Observe(took.Seconds())
}
