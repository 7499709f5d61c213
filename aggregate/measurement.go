package aggregate

import (
	"math"
	"time"

	"go.uber.org/atomic"
)

// measurementKernel implements the summary-statistics kernel: count, sum,
// sum-of-squares, min, max. It is replaced wholesale at cycle boundaries
// (see Series.snapCurrent) rather than reset in place, so reset() is
// reached only through Series.ResetAggregation or by callers that hold a
// kernel directly (tests).
type measurementKernel struct {
	count  atomic.Uint64
	sum    atomic.Float64
	sumSq  atomic.Float64
	min    atomic.Float64
	max    atomic.Float64
}

func newMeasurementKernel() *measurementKernel {
	k := &measurementKernel{}
	k.min.Store(math.Inf(1))
	k.max.Store(math.Inf(-1))
	return k
}

func (k *measurementKernel) kind() Kind { return KindMeasurement }

func (k *measurementKernel) track(v float64) {
	v = clampValue(v)

	k.count.Inc()
	k.sum.Add(v)
	k.sumSq.Add(v * v)
	casMinFloat64(&k.min, v)
	casMaxFloat64(&k.max, v)
}

func (k *measurementKernel) hasData() bool {
	return k.count.Load() > 0
}

func (k *measurementKernel) reset() {
	k.count.Store(0)
	k.sum.Store(0)
	k.sumSq.Store(0)
	k.min.Store(math.Inf(1))
	k.max.Store(math.Inf(-1))
}

func (k *measurementKernel) snapshot(metricID string, dims, ctx map[string]string, periodStart, periodEnd time.Time) Aggregate {
	count := k.count.Load()

	data := MeasurementData{Count: count}
	if count == 0 {
		// Identity snapshot: zeros, min/max omitted (reported as 0).
	} else {
		sum := k.sum.Load()
		sumSq := k.sumSq.Load()
		mean := sum / float64(count)
		variance := sumSq/float64(count) - mean*mean
		if variance < 0 {
			// Catastrophic cancellation from the two-moment form can push
			// this slightly negative for a near-constant series; floor it.
			variance = 0
		}
		data.Sum = sum
		data.Min = k.min.Load()
		data.Max = k.max.Load()
		data.StdDev = math.Sqrt(variance)
	}

	return Aggregate{
		MetricID:    metricID,
		Dimensions:  dims,
		Context:     ctx,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Kind:        KindMeasurement,
		Measurement: data,
	}
}

// casMinFloat64/casMaxFloat64 implement lock-free min/max via a
// compare-and-swap spin loop, per the kernel's concurrency contract.
func casMinFloat64(a *atomic.Float64, v float64) {
	for {
		cur := a.Load()
		if v >= cur {
			return
		}
		if a.CompareAndSwap(cur, v) {
			return
		}
	}
}

func casMaxFloat64(a *atomic.Float64, v float64) {
	for {
		cur := a.Load()
		if v <= cur {
			return
		}
		if a.CompareAndSwap(cur, v) {
			return
		}
	}
}
