package aggregate

import (
	"math"
	"time"

	"go.uber.org/atomic"
)

// accumulatorKernel implements the running-accumulator kernel: sum, min,
// max, count. Unlike measurementKernel it survives cycle boundaries in
// place: Series.snapCurrent snapshots it without swapping it out. Only
// an explicit reset() (via Series.ResetAggregation) clears it.
type accumulatorKernel struct {
	sum   atomic.Float64
	min   atomic.Float64
	max   atomic.Float64
	count atomic.Uint64
}

func newAccumulatorKernel() *accumulatorKernel {
	k := &accumulatorKernel{}
	k.min.Store(math.Inf(1))
	k.max.Store(math.Inf(-1))
	return k
}

func (k *accumulatorKernel) kind() Kind { return KindAccumulator }

func (k *accumulatorKernel) track(v float64) {
	v = clampValue(v)

	k.sum.Add(v)
	casMinFloat64(&k.min, v)
	casMaxFloat64(&k.max, v)
	k.count.Inc()
}

func (k *accumulatorKernel) hasData() bool {
	return k.count.Load() > 0
}

func (k *accumulatorKernel) reset() {
	k.sum.Store(0)
	k.min.Store(math.Inf(1))
	k.max.Store(math.Inf(-1))
	k.count.Store(0)
}

func (k *accumulatorKernel) snapshot(metricID string, dims, ctx map[string]string, periodStart, periodEnd time.Time) Aggregate {
	count := k.count.Load()

	data := AccumulatorData{Count: count}
	if count > 0 {
		data.Sum = k.sum.Load()
		data.Min = k.min.Load()
		data.Max = k.max.Load()
	}

	return Aggregate{
		MetricID:    metricID,
		Dimensions:  dims,
		Context:     ctx,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Kind:        KindAccumulator,
		Accumulator: data,
	}
}
