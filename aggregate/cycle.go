package aggregate

import (
	"sync"
	"time"
)

// cycleName indexes the three cycle slots every Series carries: a fixed
// array of three rather than a general named-cycle registry, since the
// set of cycles is small, known ahead of time, and never grows at
// runtime.
type cycleName uint8

const (
	cycleDefault cycleName = iota
	cycleCustom
	cycleQuickPulse
	cycleCount
)

func (n cycleName) String() string {
	switch n {
	case cycleDefault:
		return "Default"
	case cycleCustom:
		return "Custom"
	case cycleQuickPulse:
		return "QuickPulse"
	default:
		return "Unknown"
	}
}

// CycleFilter is consulted once per series when a cycle activates or
// cycles. It decides whether the series participates in the new period,
// and may return a ValueFilter that further screens individual track
// calls for the period.
type CycleFilter interface {
	Admits(series *Series) (bool, ValueFilter)
}

// admitAllFilter is the Default cycle's filter: every series
// participates, no value is dropped.
type admitAllFilter struct{}

func (admitAllFilter) Admits(*Series) (bool, ValueFilter) { return true, nil }

// AggregationSummary is returned whenever a named cycle starts, cycles,
// or stops: the Aggregates produced by snapping every series active in
// that cycle, split by kernel persistence.
type AggregationSummary struct {
	// NonPersistentAggregates holds one entry per (series, Measurement
	// kernel) that had at least one tracked value in the period.
	NonPersistentAggregates []Aggregate
	// PersistentAggregates holds one entry per (series, Accumulator
	// kernel) with non-identity state, regardless of whether anything was
	// tracked in this period.
	PersistentAggregates []Aggregate
}

// aggregationCycle is the state machine for one named cycle: inactive,
// or active with a start time and the filter that was supplied when it
// last activated/cycled.
type aggregationCycle struct {
	mu          sync.Mutex
	name        cycleName
	active      bool
	periodStart time.Time
	filter      CycleFilter
}

func newAggregationCycle(name cycleName) *aggregationCycle {
	return &aggregationCycle{name: name}
}
