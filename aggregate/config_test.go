package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeriesConfigNormalizedFillsDefaults(t *testing.T) {
	c := SeriesConfig{}.normalized()
	require.Equal(t, DefaultSeriesCountLimit, c.SeriesCountLimit)
	require.Equal(t, DefaultValuesPerDimensionLimit, c.ValuesPerDimensionLimit)

	c2 := SeriesConfig{SeriesCountLimit: 5, ValuesPerDimensionLimit: 7}.normalized()
	require.Equal(t, 5, c2.SeriesCountLimit)
	require.Equal(t, 7, c2.ValuesPerDimensionLimit)
}

func TestSeriesConfigCompatibleIgnoresDimensionNames(t *testing.T) {
	a := SeriesConfig{KernelKind: KindMeasurement, SeriesCountLimit: 10, ValuesPerDimensionLimit: 5, DimensionNames: []string{"x"}}
	b := SeriesConfig{KernelKind: KindMeasurement, SeriesCountLimit: 10, ValuesPerDimensionLimit: 5, DimensionNames: []string{"y", "z"}}

	require.True(t, a.compatible(b))
}

func TestSeriesConfigCompatibleRejectsKernelKindChange(t *testing.T) {
	a := SeriesConfig{KernelKind: KindMeasurement, SeriesCountLimit: 10, ValuesPerDimensionLimit: 5}
	b := SeriesConfig{KernelKind: KindAccumulator, SeriesCountLimit: 10, ValuesPerDimensionLimit: 5}

	require.False(t, a.compatible(b))
}

func TestSeriesConfigCompatibleRejectsRestrictToNonnegativeIntegersChange(t *testing.T) {
	a := SeriesConfig{KernelKind: KindMeasurement, SeriesCountLimit: 10, ValuesPerDimensionLimit: 5, RestrictToNonnegativeIntegers: true}
	b := SeriesConfig{KernelKind: KindMeasurement, SeriesCountLimit: 10, ValuesPerDimensionLimit: 5, RestrictToNonnegativeIntegers: false}

	require.False(t, a.compatible(b))
}

func TestDefaultConfigOverridesApplyToNewMetricsOnly(t *testing.T) {
	t.Cleanup(func() {
		SetDefaultMeasurementConfig(SeriesConfig{SeriesCountLimit: DefaultSeriesCountLimit, ValuesPerDimensionLimit: DefaultValuesPerDimensionLimit})
	})

	d := NewSeriesDirectory()
	_, _, err := d.GetOrCreate("Existing", []string{"a"}, nil, nil)
	require.NoError(t, err)

	SetDefaultMeasurementConfig(SeriesConfig{SeriesCountLimit: 1, ValuesPerDimensionLimit: 1})

	// The already-registered metric keeps its original limits.
	_, _, err = d.GetOrCreate("Existing", []string{"b"}, nil, nil)
	require.NoError(t, err)

	// A brand new metric picks up the overridden default.
	_, _, err = d.GetOrCreate("Fresh", []string{"a"}, nil, nil)
	require.NoError(t, err)
	_, _, err = d.GetOrCreate("Fresh", []string{"b"}, nil, nil)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}
