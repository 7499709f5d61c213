// Package prometheussink is a reference Sink implementation for local
// inspection and testing: it renders Aggregates as Prometheus gauges,
// keyed by metric id and dimension map. It is not a production
// telemetry pipeline, just a collaborator good enough to see the
// engine work end to end.
package prometheussink

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netpulse/metricagg/aggregate"
)

// Sink renders Aggregates onto a dynamically-grown set of Prometheus
// GaugeVecs, one metric family per distinct (metric id, dimension key
// set, field) triple.
type Sink struct {
	reg prometheus.Registerer

	mu       sync.Mutex
	families map[string]*prometheus.GaugeVec
}

// New creates a Sink that registers its dynamically discovered metric
// families against reg.
func New(reg prometheus.Registerer) *Sink {
	return &Sink{reg: reg, families: make(map[string]*prometheus.GaugeVec)}
}

// Enqueue implements aggregate.Sink.
func (s *Sink) Enqueue(_ context.Context, agg aggregate.Aggregate) error {
	mt := aggregate.ToMetricTelemetry(agg)

	labelNames := sortedKeys(mt.Properties)
	labelValues := make([]string, len(labelNames))
	for i, k := range labelNames {
		labelValues[i] = mt.Properties[k]
	}

	for _, field := range []struct {
		suffix string
		value  float64
	}{
		{"count", float64(mt.Count)},
		{"sum", mt.Sum},
		{"min", mt.Min},
		{"max", mt.Max},
		{"stddev", mt.StdDev},
	} {
		gv := s.familyFor(mt.Name, field.suffix, labelNames)
		gv.WithLabelValues(labelValues...).Set(field.value)
	}
	return nil
}

func (s *Sink) familyFor(name, field string, labelNames []string) *prometheus.GaugeVec {
	key := name + "|" + field + "|" + strings.Join(labelNames, ",")

	s.mu.Lock()
	defer s.mu.Unlock()

	if gv, ok := s.families[key]; ok {
		return gv
	}

	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "metricagg",
		Subsystem: "metric",
		Name:      sanitize(name) + "_" + field,
		Help:      "Aggregated " + field + " for metric " + name + ".",
	}, labelNames)
	s.reg.MustRegister(gv)
	s.families[key] = gv
	return gv
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.ToLower(b.String())
}
