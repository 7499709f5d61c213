package aggregate

import "time"

// Kind identifies which aggregation kernel produced an Aggregate.
type Kind uint8

const (
	// KindMeasurement marks a non-persistent, summary-statistics aggregate.
	KindMeasurement Kind = iota
	// KindAccumulator marks a persistent, running-total aggregate.
	KindAccumulator
)

func (k Kind) String() string {
	switch k {
	case KindMeasurement:
		return "Measurement"
	case KindAccumulator:
		return "Accumulator"
	default:
		return "Unknown"
	}
}

// MeasurementData is the payload of a Measurement-kernel snapshot.
type MeasurementData struct {
	Count  uint64
	Sum    float64
	Min    float64
	Max    float64
	StdDev float64
}

// AccumulatorData is the payload of an Accumulator-kernel snapshot.
// Count is the number of Track calls absorbed since the last reset, not
// since the last snapshot: Accumulators do not reset at cycle
// boundaries.
type AccumulatorData struct {
	Sum   float64
	Min   float64
	Max   float64
	Count uint64
}

// Aggregate is an immutable snapshot produced by a kernel for one period.
// Exactly one of Measurement/Accumulator is populated, selected by Kind.
type Aggregate struct {
	MetricID string
	// Dimensions maps dimension position name (from the metric schema) to
	// the dimension value this series was tracked under.
	Dimensions map[string]string
	// Context carries reserved TelemetryContext.* dimension values that
	// were routed out of the aggregation fingerprint (see
	// Manager.GetOrCreateSeriesNamed).
	Context map[string]string

	PeriodStart time.Time
	PeriodEnd   time.Time

	Kind Kind

	Measurement MeasurementData
	Accumulator AccumulatorData

	// RestrictToNonnegativeIntegers carries the metric's
	// SeriesConfig.RestrictToNonnegativeIntegers flag through to the sink.
	// It does not alter how values are stored or aggregated here; it is
	// metadata the sink may use to render the value as an integer count.
	RestrictToNonnegativeIntegers bool
}

// PeriodDuration returns PeriodEnd-PeriodStart, never negative.
func (a Aggregate) PeriodDuration() time.Duration {
	d := a.PeriodEnd.Sub(a.PeriodStart)
	if d < 0 {
		return 0
	}
	return d
}
