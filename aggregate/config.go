package aggregate

import "go.uber.org/atomic"

const (
	// DefaultSeriesCountLimit is the default max series the directory
	// will create for a single metric id.
	DefaultSeriesCountLimit = 1000
	// DefaultValuesPerDimensionLimit is the default max distinct values
	// the directory will observe at a single dimension position.
	DefaultValuesPerDimensionLimit = 100
)

// SeriesConfig is attached once at a metric's first registration and is
// immutable thereafter.
type SeriesConfig struct {
	SeriesCountLimit              int
	ValuesPerDimensionLimit       int
	KernelKind                    Kind
	RestrictToNonnegativeIntegers bool
	// DimensionNames optionally names each dimension position for
	// Aggregate.Dimensions map keys. Positions beyond the supplied names,
	// or all positions when this is empty, fall back to "dimN".
	DimensionNames []string
}

func (c SeriesConfig) normalized() SeriesConfig {
	if c.SeriesCountLimit <= 0 {
		c.SeriesCountLimit = DefaultSeriesCountLimit
	}
	if c.ValuesPerDimensionLimit <= 0 {
		c.ValuesPerDimensionLimit = DefaultValuesPerDimensionLimit
	}
	return c
}

// compatible reports whether other, supplied on a later GetOrCreate
// call, is consistent with the already-registered configuration c.
// RestrictToNonnegativeIntegers participates here the same as the other
// fields: it is sink-facing metadata fixed at a metric's first
// registration, so a later call asking for a different value is a
// configuration mismatch, not a silent override.
func (c SeriesConfig) compatible(other SeriesConfig) bool {
	return c.KernelKind == other.KernelKind &&
		c.SeriesCountLimit == other.SeriesCountLimit &&
		c.ValuesPerDimensionLimit == other.ValuesPerDimensionLimit &&
		c.RestrictToNonnegativeIntegers == other.RestrictToNonnegativeIntegers
}

var (
	// defaultMeasurementConfig and defaultAccumulatorConfig are published
	// process-wide through an atomic handle so concurrent readers never
	// observe a torn struct. Overrides apply only to metrics registered
	// after the override lands.
	defaultMeasurementConfig = newDefaultConfigHandle(SeriesConfig{
		SeriesCountLimit:        DefaultSeriesCountLimit,
		ValuesPerDimensionLimit: DefaultValuesPerDimensionLimit,
		KernelKind:              KindMeasurement,
	})
	defaultAccumulatorConfig = newDefaultConfigHandle(SeriesConfig{
		SeriesCountLimit:        DefaultSeriesCountLimit,
		ValuesPerDimensionLimit: DefaultValuesPerDimensionLimit,
		KernelKind:              KindAccumulator,
	})
)

func newDefaultConfigHandle(initial SeriesConfig) *atomic.Pointer[SeriesConfig] {
	p := &atomic.Pointer[SeriesConfig]{}
	p.Store(&initial)
	return p
}

// SetDefaultMeasurementConfig overrides the process-wide default config
// used for metrics first registered as Measurement with no explicit
// config. It does not affect metrics already registered.
func SetDefaultMeasurementConfig(c SeriesConfig) {
	c.KernelKind = KindMeasurement
	c = c.normalized()
	defaultMeasurementConfig.Store(&c)
}

// SetDefaultAccumulatorConfig stores the process-wide default
// Accumulator config. The directory does not read it: a metric
// registered with no explicit config always gets the Measurement
// default, and an Accumulator metric is registered only through an
// explicit config, whose zero limits fall back to the package constants.
func SetDefaultAccumulatorConfig(c SeriesConfig) {
	c.KernelKind = KindAccumulator
	c = c.normalized()
	defaultAccumulatorConfig.Store(&c)
}

func defaultConfigFor(kind Kind) SeriesConfig {
	if kind == KindAccumulator {
		return *defaultAccumulatorConfig.Load()
	}
	return *defaultMeasurementConfig.Load()
}
