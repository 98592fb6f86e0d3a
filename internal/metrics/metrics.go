// Package metrics exposes the poll-cycle telemetry named in
// SPEC_FULL.md §4.7/§2.1 through github.com/prometheus/client_golang. A
// nil *Registry is always a valid no-op receiver, so components under
// test never need a real Prometheus registerer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Registry struct {
	pollDuration  prometheus.Histogram
	softErrors    prometheus.Counter
	reconnects    prometheus.Counter
	cacheHitRatio prometheus.Gauge
}

// New registers the poll-cycle collectors against reg, labelled with the
// default asset name. reg may be prometheus.DefaultRegisterer or any
// other Registerer the host wants metrics scraped from.
func New(reg prometheus.Registerer, asset string) *Registry {
	labels := prometheus.Labels{"asset": asset}

	r := &Registry{
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "modbus_poll_duration_seconds",
			Help:        "Duration of one Modbus poll cycle.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		softErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "modbus_poll_soft_errors_total",
			Help:        "Soft (non-fatal) read errors observed across poll cycles.",
			ConstLabels: labels,
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "modbus_poll_reconnects_total",
			Help:        "Forced reconnects triggered across poll cycles.",
			ConstLabels: labels,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "modbus_cache_hit_ratio",
			Help:        "Fraction of cache blocks that refreshed successfully on the last poll.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(r.pollDuration, r.softErrors, r.reconnects, r.cacheHitRatio)
	return r
}

// ObservePoll records one completed poll cycle's outcome.
func (r *Registry) ObservePoll(durationSeconds float64, softErrors, reconnects int, cacheHitRatio float64) {
	if r == nil {
		return
	}
	r.pollDuration.Observe(durationSeconds)
	r.softErrors.Add(float64(softErrors))
	r.reconnects.Add(float64(reconnects))
	r.cacheHitRatio.Set(cacheHitRatio)
}
