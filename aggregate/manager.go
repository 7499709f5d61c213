package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/netpulse/metricagg/internal/logger"
	"github.com/netpulse/metricagg/internal/selfmetrics"
)

// DefaultCyclePeriod is the nominal Default cycle window.
const DefaultCyclePeriod = 60 * time.Second

// Manager owns the series directory, the three named cycles, and the
// sink handle. It is the entry point for tracking, cycling, and
// flushing. A Manager is typically created once per host telemetry
// pipeline and lives for the process.
type Manager struct {
	directory *SeriesDirectory
	cycles    [cycleCount]*aggregationCycle

	sink   Sink
	period time.Duration
	clock  func() time.Time
	log    *slog.Logger
	stats  *selfmetrics.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithSink sets the downstream sink that Default-cycle Aggregates are
// pushed to. The zero value discards everything.
func WithSink(s Sink) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.sink = s
		}
	}
}

// WithPeriod overrides the Default cycle's period (default 60s).
func WithPeriod(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.period = d
		}
	}
}

// WithLogger overrides the Manager's logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// WithSelfMetrics registers the engine's own operability metrics
// (series counts, capacity rejections, track throughput) against reg.
func WithSelfMetrics(reg prometheus.Registerer) ManagerOption {
	return func(m *Manager) { m.stats = selfmetrics.New(reg) }
}

// WithClock overrides the clock used to stamp Default cycle boundaries.
// Intended for tests; production callers should not need this.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewManager creates a Manager, starts its Default cycle (active from
// construction), and launches the background goroutine that drives it
// on a fixed period.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		directory: NewSeriesDirectory(),
		sink:      SinkFunc(func(context.Context, Aggregate) error { return nil }),
		period:    DefaultCyclePeriod,
		clock:     time.Now,
		log:       logger.New("aggregate.manager"),
	}
	for _, opt := range opts {
		opt(m)
	}

	for i := range m.cycles {
		m.cycles[i] = newAggregationCycle(cycleName(i))
	}
	now := m.clock()
	m.cycles[cycleDefault].active = true
	m.cycles[cycleDefault].periodStart = now
	m.cycles[cycleDefault].filter = admitAllFilter{}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go m.runDefaultLoop(ctx)

	return m
}

func (m *Manager) runDefaultLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cycleDefaultAt(m.clock())
		}
	}
}

// Close stops the background worker, performs a final Default cycle
// boundary, and pushes whatever it produced to the sink before
// returning.
func (m *Manager) Close(ctx context.Context) AggregationSummary {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	final := m.stop(cycleDefault, m.clock())
	m.pushToSink(ctx, final)
	return final
}

// GetOrCreateSeries exposes the directory's lookup-or-create positionally:
// dimension values are ordered and not named at lookup time.
func (m *Manager) GetOrCreateSeries(metricID string, dimValues []string, cfg *SeriesConfig) (*Series, error) {
	s, created, err := m.directory.GetOrCreate(metricID, dimValues, cfg, nil)
	if err != nil {
		m.noteGetOrCreateError(metricID, err)
		return nil, err
	}
	if created {
		m.stats.SeriesCreated(metricID)
		m.admitIntoLiveCycles(s)
	}
	return s, nil
}

// GetOrCreateSeriesNamed is a convenience surface over GetOrCreateSeries
// that accepts named dimensions, routes "TelemetryContext."-prefixed
// names onto the emitted Aggregate's Context instead of the fingerprint,
// and derives a stable dimension order from the remaining names.
func (m *Manager) GetOrCreateSeriesNamed(metricID string, dims map[string]string, cfg *SeriesConfig) (*Series, error) {
	names, values, ctx := splitReservedDimensions(dims)

	resolved := cfg
	if len(names) > 0 {
		var c SeriesConfig
		if cfg != nil {
			c = *cfg
		} else {
			c = defaultConfigFor(KindMeasurement)
		}
		c.DimensionNames = names
		resolved = &c
	}

	s, created, err := m.directory.GetOrCreate(metricID, values, resolved, ctx)
	if err != nil {
		m.noteGetOrCreateError(metricID, err)
		return nil, err
	}
	if created {
		m.stats.SeriesCreated(metricID)
		m.admitIntoLiveCycles(s)
	}
	return s, nil
}

// admitIntoLiveCycles installs a kernel for s in every cycle that is
// currently active, consulting that cycle's filter. Without this, a
// series created after a named cycle has already started would sit out
// the rest of that cycle's period: its Track calls would have nowhere
// to land until the next StartOrCycle* boundary reconciles it.
func (m *Manager) admitIntoLiveCycles(s *Series) {
	for i := range m.cycles {
		cyc := m.cycles[i]
		cyc.mu.Lock()
		active := cyc.active
		filter := cyc.filter
		cyc.mu.Unlock()

		if !active || filter == nil {
			continue
		}
		if admit, vf := filter.Admits(s); admit {
			s.activateCycle(cycleName(i), s.config.KernelKind, vf)
		}
	}
}

func (m *Manager) noteGetOrCreateError(metricID string, err error) {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		m.stats.CapacityRejected(metricID, "capacity")
		m.log.Debug("capacity exceeded", "metric_id", metricID, "error", err)
	case errors.Is(err, ErrConfigurationMismatch):
		m.stats.CapacityRejected(metricID, "config_mismatch")
		m.log.Warn("configuration mismatch", "metric_id", metricID, "error", err)
	default:
		m.log.Warn("get-or-create failed", "metric_id", metricID, "error", err)
	}
}

// TryTrackValue looks up or lazily creates a series and tracks v,
// returning false instead of raising when creation fails (capacity,
// arity, or empty-argument errors; it passes no config, so it never
// hits a configuration mismatch). Series.Track itself never fails.
func (m *Manager) TryTrackValue(metricID string, value float64, dimValues ...string) bool {
	s, err := m.GetOrCreateSeries(metricID, dimValues, nil)
	if err != nil {
		return false
	}
	s.Track(value)
	m.stats.TrackCall()
	return true
}

// TrackValue is the non-try variant: it returns the lookup-or-create
// error instead of swallowing it.
func (m *Manager) TrackValue(metricID string, value float64, dimValues ...string) error {
	s, err := m.GetOrCreateSeries(metricID, dimValues, nil)
	if err != nil {
		return err
	}
	s.Track(value)
	m.stats.TrackCall()
	return nil
}

// Directory exposes the underlying SeriesDirectory for callers that need
// AllSeries/DimensionValueCount introspection.
func (m *Manager) Directory() *SeriesDirectory { return m.directory }

// StartOrCycleCustom drives the Custom cycle's state machine at caller
// time now: if the cycle was inactive it starts cleanly with an empty
// summary; if it was already active it closes the prior period and
// opens a new one, returning the aggregates produced by the boundary.
func (m *Manager) StartOrCycleCustom(now time.Time, filter CycleFilter) AggregationSummary {
	return m.startOrCycle(cycleCustom, now, filter)
}

// StopCustom stops the Custom cycle.
func (m *Manager) StopCustom(now time.Time) AggregationSummary {
	return m.stop(cycleCustom, now)
}

// StartOrCycleQuickPulse is semantically identical to StartOrCycleCustom,
// kept as a distinct cycle slot for a live-metrics collaborator that
// needs its own start/stop lifecycle independent of Custom.
func (m *Manager) StartOrCycleQuickPulse(now time.Time, filter CycleFilter) AggregationSummary {
	return m.startOrCycle(cycleQuickPulse, now, filter)
}

// StopQuickPulse stops the QuickPulse cycle.
func (m *Manager) StopQuickPulse(now time.Time) AggregationSummary {
	return m.stop(cycleQuickPulse, now)
}

// Flush forces a Default cycle boundary at now and hands the resulting
// Aggregates to the sink. It does not affect Custom/QuickPulse.
func (m *Manager) Flush(now time.Time) AggregationSummary {
	return m.cycleDefaultAt(now)
}

func (m *Manager) cycleDefaultAt(now time.Time) AggregationSummary {
	summary := m.cycleWhileActive(cycleDefault, now, admitAllFilter{})
	m.pushToSink(context.Background(), summary)
	return summary
}

func (m *Manager) pushToSink(ctx context.Context, summary AggregationSummary) {
	for _, agg := range summary.NonPersistentAggregates {
		if err := m.sink.Enqueue(ctx, agg); err != nil {
			m.log.Warn("sink enqueue failed", "metric_id", agg.MetricID, "error", err)
		}
	}
	for _, agg := range summary.PersistentAggregates {
		if err := m.sink.Enqueue(ctx, agg); err != nil {
			m.log.Warn("sink enqueue failed", "metric_id", agg.MetricID, "error", err)
		}
	}
}

func (m *Manager) startOrCycle(name cycleName, now time.Time, filter CycleFilter) AggregationSummary {
	if filter == nil {
		filter = admitAllFilter{}
	}

	cyc := m.cycles[name]
	cyc.mu.Lock()
	wasActive := cyc.active
	cyc.mu.Unlock()

	if !wasActive {
		m.activateCycle(name, now, filter)
		return AggregationSummary{}
	}
	return m.cycleWhileActive(name, now, filter)
}

func (m *Manager) activateCycle(name cycleName, now time.Time, filter CycleFilter) {
	all := m.directory.allSeriesGlobal()

	var mu sync.Mutex
	admitted := 0

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(fanOutLimit())
	for _, s := range all {
		s := s
		g.Go(func() error {
			if admit, vf := filter.Admits(s); admit {
				s.activateCycle(name, s.config.KernelKind, vf)
				mu.Lock()
				admitted++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	cyc := m.cycles[name]
	cyc.mu.Lock()
	cyc.active = true
	cyc.periodStart = now
	cyc.filter = filter
	cyc.mu.Unlock()

	m.stats.SetActiveSeries(name.String(), float64(admitted))
}

func (m *Manager) cycleWhileActive(name cycleName, now time.Time, filter CycleFilter) AggregationSummary {
	start := time.Now()
	defer func() { m.stats.ObserveCycleDuration(name.String(), time.Since(start).Seconds()) }()

	cyc := m.cycles[name]
	cyc.mu.Lock()
	oldStart := cyc.periodStart
	cyc.mu.Unlock()

	all := m.directory.allSeriesGlobal()

	var mu sync.Mutex
	summary := AggregationSummary{}
	active := 0

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(fanOutLimit())
	for _, s := range all {
		s := s
		g.Go(func() error {
			agg, hadData, stillActive := m.reconcileSeries(s, name, oldStart, now, filter)
			if stillActive {
				mu.Lock()
				active++
				mu.Unlock()
			}
			if !hadData {
				return nil
			}
			mu.Lock()
			if agg.Kind == KindAccumulator {
				summary.PersistentAggregates = append(summary.PersistentAggregates, agg)
			} else {
				summary.NonPersistentAggregates = append(summary.NonPersistentAggregates, agg)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	cyc.mu.Lock()
	cyc.periodStart = now
	cyc.filter = filter
	cyc.active = true
	cyc.mu.Unlock()

	m.stats.SetActiveSeries(name.String(), float64(active))
	return summary
}

// reconcileSeries applies one cycle boundary to a single series: snap
// the existing kernel if one was installed, then install/keep/drop the
// kernel according to the (possibly new) filter's admission decision.
func (m *Manager) reconcileSeries(s *Series, name cycleName, oldStart, now time.Time, filter CycleFilter) (agg Aggregate, hadData, stillActive bool) {
	wasAdmitted := s.isActiveIn(name)
	admit, vf := filter.Admits(s)

	if wasAdmitted {
		snapped, snapHadData, ok := s.snapCurrent(name, oldStart, now)
		if !ok {
			if admit {
				s.activateCycle(name, s.config.KernelKind, vf)
			}
			return Aggregate{}, false, admit
		}
		if admit {
			// snapCurrent already installed a fresh Measurement kernel (or
			// left the Accumulator kernel live) bound to the *old* filter;
			// rebind it to the cycle's current filter without disturbing
			// kernel state.
			s.updateFilter(name, vf)
		} else {
			s.detachCycle(name)
		}
		return snapped, snapHadData, admit
	}

	if admit {
		s.activateCycle(name, s.config.KernelKind, vf)
	}
	return Aggregate{}, false, admit
}

func (m *Manager) stop(name cycleName, now time.Time) AggregationSummary {
	cyc := m.cycles[name]
	cyc.mu.Lock()
	wasActive := cyc.active
	oldStart := cyc.periodStart
	cyc.mu.Unlock()

	if !wasActive {
		return AggregationSummary{}
	}

	all := m.directory.allSeriesGlobal()

	var mu sync.Mutex
	summary := AggregationSummary{}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(fanOutLimit())
	for _, s := range all {
		s := s
		g.Go(func() error {
			if !s.isActiveIn(name) {
				return nil
			}
			agg, hadData, ok := s.snapCurrent(name, oldStart, now)
			s.detachCycle(name)
			if !ok || !hadData {
				return nil
			}
			mu.Lock()
			if agg.Kind == KindAccumulator {
				summary.PersistentAggregates = append(summary.PersistentAggregates, agg)
			} else {
				summary.NonPersistentAggregates = append(summary.NonPersistentAggregates, agg)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	cyc.mu.Lock()
	cyc.active = false
	cyc.filter = nil
	cyc.mu.Unlock()

	m.stats.SetActiveSeries(name.String(), 0)
	return summary
}

func fanOutLimit() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}
