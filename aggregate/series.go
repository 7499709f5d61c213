package aggregate

import (
	"time"

	"go.uber.org/atomic"
)

// ValueFilter is consulted once per track call for a series admitted into
// an active cycle; it may drop individual values (e.g. sampling, or a
// QuickPulse subscription narrowed to a value range).
type ValueFilter interface {
	Admit(v float64) bool
}

// kernelBox pairs an active kernel with the value filter that was in
// effect when the cycle admitted this series, so track() can consult
// both without two separate atomic loads.
type kernelBox struct {
	k           kernel
	valueFilter ValueFilter
}

// Series is one data stream: its identity (metric id + ordered dimension
// values), its frozen configuration, and up to three live kernels, one
// per cycle (Default/Custom/QuickPulse). A nil slot means that cycle is
// currently inactive for this series.
type Series struct {
	metricID    string
	dimValues   []string
	fingerprint string
	config      SeriesConfig
	schema      *metricSchema
	context     map[string]string

	slots [cycleCount]atomic.Pointer[kernelBox]
}

func newSeries(metricID string, dimValues []string, fingerprint string, config SeriesConfig, schema *metricSchema, context map[string]string) *Series {
	return &Series{
		metricID:    metricID,
		dimValues:   append([]string(nil), dimValues...),
		fingerprint: fingerprint,
		config:      config,
		schema:      schema,
		context:     context,
	}
}

// MetricID returns the series' metric id.
func (s *Series) MetricID() string { return s.metricID }

// DimensionValues returns the ordered dimension values identifying this
// series. The returned slice must not be mutated.
func (s *Series) DimensionValues() []string { return s.dimValues }

// Config returns the frozen configuration for this series' metric.
func (s *Series) Config() SeriesConfig { return s.config }

// Track routes v into each cycle currently active for this series,
// subject to that cycle's value filter (if any). track never fails: a
// value dropped by a filter, or destined for an inactive cycle, is
// silently discarded.
func (s *Series) Track(v float64) {
	for i := range s.slots {
		box := s.slots[i].Load()
		if box == nil {
			continue
		}
		if box.valueFilter != nil && !box.valueFilter.Admit(v) {
			continue
		}
		box.k.track(v)
	}
}

// activateCycle installs a fresh kernel for the given cycle slot,
// admitting this series into that cycle with the supplied value filter.
func (s *Series) activateCycle(name cycleName, kind Kind, vf ValueFilter) {
	s.slots[name].Store(&kernelBox{k: newKernel(kind), valueFilter: vf})
}

// updateFilter rebinds the value filter for an already-installed cycle
// slot without disturbing the kernel's accumulated state.
func (s *Series) updateFilter(name cycleName, vf ValueFilter) {
	box := s.slots[name].Load()
	if box == nil {
		return
	}
	s.slots[name].Store(&kernelBox{k: box.k, valueFilter: vf})
}

// isActiveIn reports whether this series currently has a kernel
// installed for the given cycle.
func (s *Series) isActiveIn(name cycleName) bool {
	return s.slots[name].Load() != nil
}

// detachCycle removes this series' kernel slot for the given cycle,
// without producing an aggregate. Used by stop() after the final snap.
func (s *Series) detachCycle(name cycleName) {
	s.slots[name].Store(nil)
}

// dimensionMap renders this series' dimension values into a name->value
// map using the metric schema's declared dimension names.
func (s *Series) dimensionMap() map[string]string {
	if len(s.dimValues) == 0 {
		return nil
	}
	out := make(map[string]string, len(s.dimValues))
	names := s.schema.dimensionNamesSnapshot()
	for i, v := range s.dimValues {
		name := positionalName(i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		out[name] = v
	}
	return out
}

// snapCurrent produces an Aggregate for the given cycle's kernel, if one
// is installed. For Measurement kernels the kernel is atomically
// replaced by a fresh one so concurrent Track calls never straddle a
// snapshot; for Accumulator kernels the live kernel is snapshotted in
// place and keeps accumulating across cycles. ok is false if no kernel
// was installed for this cycle.
func (s *Series) snapCurrent(name cycleName, periodStart, periodEnd time.Time) (agg Aggregate, hadData, ok bool) {
	box := s.slots[name].Load()
	if box == nil {
		return Aggregate{}, false, false
	}

	if box.k.kind() == KindMeasurement {
		fresh := &kernelBox{k: newKernel(KindMeasurement), valueFilter: box.valueFilter}
		s.slots[name].Store(fresh)
	}

	hadData = box.k.hasData()
	agg = box.k.snapshot(s.metricID, s.dimensionMap(), s.context, periodStart, periodEnd)
	agg.RestrictToNonnegativeIntegers = s.config.RestrictToNonnegativeIntegers
	return agg, hadData, true
}

// ResetAggregation resets the Default cycle's current kernel to its
// identity state, in place. Semantically meaningful for Accumulators,
// which otherwise never reset on their own.
func (s *Series) ResetAggregation() {
	box := s.slots[cycleDefault].Load()
	if box == nil {
		return
	}
	box.k.reset()
}

// GetCurrentUnsafe returns a best-effort, non-destructive read of the
// Default cycle's current kernel state, for introspection. The result
// must be treated as statistical, not exact: it may race with concurrent
// track/snap calls.
func (s *Series) GetCurrentUnsafe() (Aggregate, bool) {
	box := s.slots[cycleDefault].Load()
	if box == nil {
		return Aggregate{}, false
	}
	now := time.Now()
	agg := box.k.snapshot(s.metricID, s.dimensionMap(), s.context, now, now)
	agg.RestrictToNonnegativeIntegers = s.config.RestrictToNonnegativeIntegers
	return agg, true
}

func positionalName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "dim" + string(digits[i])
	}
	// Positions of two or more digits.
	name := "dim"
	n := i
	var rev []byte
	for n > 0 {
		rev = append(rev, digits[n%10])
		n /= 10
	}
	for j := len(rev) - 1; j >= 0; j-- {
		name += string(rev[j])
	}
	return name
}
