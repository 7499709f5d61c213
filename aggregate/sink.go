package aggregate

import (
	"context"
	"strconv"
)

// Sink is the downstream telemetry pipeline collaborator. The Manager
// pushes Default-cycle Aggregates to it one at a time, outside the
// directory lock. Sinks must not block indefinitely; pass a bounded ctx.
type Sink interface {
	Enqueue(ctx context.Context, agg Aggregate) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, agg Aggregate) error

func (f SinkFunc) Enqueue(ctx context.Context, agg Aggregate) error { return f(ctx, agg) }

// MetricTelemetry is the serialized wire shape pushed downstream: every
// Aggregate, Measurement or Accumulator, surfaces with the same five
// numeric fields (Accumulators report StdDev=0, since they keep no
// second moment), plus dimensions and the reserved
// "_MS.AggregationIntervalMs" property.
type MetricTelemetry struct {
	Name       string
	Count      uint64
	Sum        float64
	Min        float64
	Max        float64
	StdDev     float64
	Properties map[string]string
	// RestrictToNonnegativeIntegers passes through
	// SeriesConfig.RestrictToNonnegativeIntegers: the sink may round/cast
	// the numeric fields above to integers when this is set, rather than
	// emit them as the floating-point values the kernels store.
	RestrictToNonnegativeIntegers bool
}

// AggregationIntervalMsProperty is the reserved properties key carrying
// the period duration in whole milliseconds.
const AggregationIntervalMsProperty = "_MS.AggregationIntervalMs"

// ToMetricTelemetry renders an Aggregate into the wire shape pushed to
// the sink on Default cycle boundaries.
func ToMetricTelemetry(agg Aggregate) MetricTelemetry {
	mt := MetricTelemetry{Name: agg.MetricID, RestrictToNonnegativeIntegers: agg.RestrictToNonnegativeIntegers}

	switch agg.Kind {
	case KindAccumulator:
		mt.Count = agg.Accumulator.Count
		mt.Sum = agg.Accumulator.Sum
		mt.Min = agg.Accumulator.Min
		mt.Max = agg.Accumulator.Max
		mt.StdDev = 0
	default:
		mt.Count = agg.Measurement.Count
		mt.Sum = agg.Measurement.Sum
		mt.Min = agg.Measurement.Min
		mt.Max = agg.Measurement.Max
		mt.StdDev = agg.Measurement.StdDev
	}

	props := make(map[string]string, len(agg.Dimensions)+len(agg.Context)+1)
	for k, v := range agg.Dimensions {
		props[k] = v
	}
	for k, v := range agg.Context {
		props[k] = v
	}
	props[AggregationIntervalMsProperty] = strconv.FormatInt(agg.PeriodDuration().Milliseconds(), 10)
	mt.Properties = props

	return mt
}
