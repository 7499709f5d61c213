package aggregate

import (
	"fmt"
	"strings"
	"sync"
)

// metricSchema is the per-metric-id registration: its frozen
// configuration, declared dimension arity and names, and the
// capacity-tracking state the directory enforces against.
type metricSchema struct {
	dimensionCount  int
	dimensionNames  []string
	config          SeriesConfig
	dimensionValues []map[string]struct{}
	seriesCount     int
}

func (s *metricSchema) dimensionNamesSnapshot() []string {
	return s.dimensionNames
}

// SeriesDirectory is the concurrent, capacity-bounded registry mapping a
// (metric id, ordered dimension values) fingerprint to a single,
// canonical Series: the same fingerprint always resolves to the same
// Series, and series-count and per-dimension-value caps are enforced on
// every creation. A single RWMutex guards both the fingerprint map and
// the per-metric schema map, with a shared-lock fast path for lookups
// and an exclusive lock only on the create path.
type SeriesDirectory struct {
	mu      sync.RWMutex
	schemas map[string]*metricSchema
	series  map[string]*Series
}

// NewSeriesDirectory creates an empty directory.
func NewSeriesDirectory() *SeriesDirectory {
	return &SeriesDirectory{
		schemas: make(map[string]*metricSchema),
		series:  make(map[string]*Series),
	}
}

// GetOrCreate resolves a series by fingerprint lookup under a shared
// lock; on miss it takes an exclusive lock, double-checks, installs or
// validates the metric's schema, runs capacity checks (series count then
// per-position distinct values), and finally creates the series. No
// partial state is committed on any failure path. created reports
// whether this call is what brought the series into existence, so a
// caller that needs to admit fresh series into already-running cycles
// knows not to disturb one that already existed.
func (d *SeriesDirectory) GetOrCreate(metricID string, dimValues []string, cfg *SeriesConfig, context map[string]string) (series *Series, created bool, err error) {
	if strings.TrimSpace(metricID) == "" {
		return nil, false, fmt.Errorf("%w: metric id", ErrNullArgument)
	}
	for i, v := range dimValues {
		if strings.TrimSpace(v) == "" {
			return nil, false, fmt.Errorf("%w: dimension value at position %d", ErrNullArgument, i)
		}
	}

	key := buildFingerprint(metricID, dimValues)

	d.mu.RLock()
	if existing, ok := d.series[key]; ok {
		d.mu.RUnlock()
		return existing, false, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.series[key]; ok {
		return existing, false, nil
	}

	schema, resolvedCfg, err := d.resolveSchema(metricID, dimValues, cfg)
	if err != nil {
		return nil, false, err
	}

	if err := checkCapacity(schema, dimValues); err != nil {
		return nil, false, err
	}

	s := newSeries(metricID, dimValues, key, resolvedCfg, schema, context)
	d.series[key] = s

	for i, v := range dimValues {
		if schema.dimensionValues[i] == nil {
			schema.dimensionValues[i] = make(map[string]struct{})
		}
		schema.dimensionValues[i][v] = struct{}{}
	}
	schema.seriesCount++

	return s, true, nil
}

// resolveSchema installs a new metric schema on first sight, or
// validates compatibility against an existing one. A nil cfg matches
// any existing schema; absent any schema it falls back to the
// process-wide default Measurement configuration.
func (d *SeriesDirectory) resolveSchema(metricID string, dimValues []string, cfg *SeriesConfig) (*metricSchema, SeriesConfig, error) {
	existing, ok := d.schemas[metricID]
	if !ok {
		resolved := SeriesConfig{KernelKind: KindMeasurement}
		if cfg != nil {
			resolved = *cfg
		} else {
			resolved = defaultConfigFor(KindMeasurement)
		}
		resolved = resolved.normalized()

		schema := &metricSchema{
			dimensionCount:  len(dimValues),
			dimensionNames:  resolved.DimensionNames,
			config:          resolved,
			dimensionValues: make([]map[string]struct{}, len(dimValues)),
		}
		d.schemas[metricID] = schema
		return schema, resolved, nil
	}

	if len(dimValues) != existing.dimensionCount {
		return nil, SeriesConfig{}, fmt.Errorf("%w: metric %q declared %d dimensions, got %d",
			ErrDimensionArityMismatch, metricID, existing.dimensionCount, len(dimValues))
	}

	if cfg == nil {
		return existing, existing.config, nil
	}

	supplied := cfg.normalized()
	if !existing.config.compatible(supplied) {
		return nil, SeriesConfig{}, fmt.Errorf("%w: metric %q", ErrConfigurationMismatch, metricID)
	}

	return existing, existing.config, nil
}

// checkCapacity validates, but does not commit, the series-count and
// per-dimension-value limits for a would-be new series.
func checkCapacity(schema *metricSchema, dimValues []string) error {
	if schema.seriesCount >= schema.config.SeriesCountLimit {
		return fmt.Errorf("%w: series count limit %d reached", ErrCapacityExceeded, schema.config.SeriesCountLimit)
	}

	for i, v := range dimValues {
		set := schema.dimensionValues[i]
		if _, seen := set[v]; seen {
			continue
		}
		if len(set) >= schema.config.ValuesPerDimensionLimit {
			return fmt.Errorf("%w: dimension position %d exceeds %d distinct values", ErrCapacityExceeded, i, schema.config.ValuesPerDimensionLimit)
		}
	}

	return nil
}

// AllSeries returns every series registered for metricID. Iteration
// order is not guaranteed to be stable.
func (d *SeriesDirectory) AllSeries(metricID string) []*Series {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*Series
	for _, s := range d.series {
		if s.metricID == metricID {
			out = append(out, s)
		}
	}
	return out
}

// allSeriesGlobal returns every series across every metric, snapshotted
// under a read lock. Used by cycle boundaries, which then process the
// returned slice without holding the directory lock.
func (d *SeriesDirectory) allSeriesGlobal() []*Series {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Series, 0, len(d.series))
	for _, s := range d.series {
		out = append(out, s)
	}
	return out
}

// DimensionValueCount returns the number of distinct values observed at
// the given dimension position for metricID.
func (d *SeriesDirectory) DimensionValueCount(metricID string, position int) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	schema, ok := d.schemas[metricID]
	if !ok || position < 0 || position >= len(schema.dimensionValues) {
		return 0
	}
	return len(schema.dimensionValues[position])
}
