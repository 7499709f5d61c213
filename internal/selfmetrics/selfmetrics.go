// Package selfmetrics instruments the aggregation engine itself: series
// counts, capacity rejections, track throughput. This is distinct from
// the downstream telemetry pipeline the engine feeds.
package selfmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the Manager updates during
// normal operation. A nil *Metrics is valid and every method on it is a
// no-op, so instrumentation stays optional.
type Metrics struct {
	seriesCreatedTotal     *prometheus.CounterVec
	capacityRejectedTotal  *prometheus.CounterVec
	trackCallsTotal        prometheus.Counter
	cycleDurationSeconds   *prometheus.HistogramVec
	activeSeries           *prometheus.GaugeVec
}

// New creates and registers the engine's self-metrics against reg. Pass
// a prometheus.NewRegistry() in tests to avoid touching the default
// global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		seriesCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metricagg",
			Name:      "series_created_total",
			Help:      "Series created by the directory, by metric id.",
		}, []string{"metric_id"}),
		capacityRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metricagg",
			Name:      "capacity_rejected_total",
			Help:      "get_or_create calls rejected for capacity or configuration mismatch, by metric id and reason.",
		}, []string{"metric_id", "reason"}),
		trackCallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metricagg",
			Name:      "track_calls_total",
			Help:      "Total Track calls absorbed across all series.",
		}),
		cycleDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "metricagg",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time spent processing one cycle boundary, by cycle name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cycle"}),
		activeSeries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "metricagg",
			Name:      "active_series",
			Help:      "Series holding a live kernel as of the cycle's last start, cycle or stop, by cycle name.",
		}, []string{"cycle"}),
	}

	if reg != nil {
		reg.MustRegister(m.seriesCreatedTotal, m.capacityRejectedTotal, m.trackCallsTotal, m.cycleDurationSeconds, m.activeSeries)
	}
	return m
}

func (m *Metrics) SeriesCreated(metricID string) {
	if m == nil {
		return
	}
	m.seriesCreatedTotal.WithLabelValues(metricID).Inc()
}

func (m *Metrics) CapacityRejected(metricID, reason string) {
	if m == nil {
		return
	}
	m.capacityRejectedTotal.WithLabelValues(metricID, reason).Inc()
}

func (m *Metrics) TrackCall() {
	if m == nil {
		return
	}
	m.trackCallsTotal.Inc()
}

func (m *Metrics) ObserveCycleDuration(cycle string, seconds float64) {
	if m == nil {
		return
	}
	m.cycleDurationSeconds.WithLabelValues(cycle).Observe(seconds)
}

func (m *Metrics) SetActiveSeries(cycle string, count float64) {
	if m == nil {
		return
	}
	m.activeSeries.WithLabelValues(cycle).Set(count)
}
