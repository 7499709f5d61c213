package aggregate

import "time"

// kernel is the concurrency-safe state one series keeps per active cycle.
// track absorbs a value; snapshot produces an immutable Aggregate; reset
// returns the kernel to its identity state. Implementations must support
// concurrent track from many goroutines; snapshot may observe a
// non-atomic cut across fields (acceptable for statistical summaries),
// but once a kernel is detached from a series no further track call may
// land in it (see Series.snapCurrent).
type kernel interface {
	track(v float64)
	snapshot(metricID string, dims, ctx map[string]string, periodStart, periodEnd time.Time) Aggregate
	reset()
	kind() Kind
	// hasData reports whether anything has been tracked since identity
	// (Measurement) or since the last reset (Accumulator). Used to decide
	// whether a persistent aggregate belongs in a cycle summary.
	hasData() bool
}

func newKernel(k Kind) kernel {
	switch k {
	case KindAccumulator:
		return newAccumulatorKernel()
	default:
		return newMeasurementKernel()
	}
}
