package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeriesDirectoryGetOrCreateIsIdempotent(t *testing.T) {
	d := NewSeriesDirectory()

	s1, _, err := d.GetOrCreate("PageViews", []string{"US", "Chrome"}, nil, nil)
	require.NoError(t, err)

	s2, _, err := d.GetOrCreate("PageViews", []string{"US", "Chrome"}, nil, nil)
	require.NoError(t, err)

	require.Same(t, s1, s2)

	s3, _, err := d.GetOrCreate("PageViews", []string{"US", "Firefox"}, nil, nil)
	require.NoError(t, err)
	require.NotSame(t, s1, s3)
}

func TestSeriesDirectoryRejectsNullArguments(t *testing.T) {
	d := NewSeriesDirectory()

	_, _, err := d.GetOrCreate("", nil, nil, nil)
	require.ErrorIs(t, err, ErrNullArgument)

	_, _, err = d.GetOrCreate("M", []string{"  "}, nil, nil)
	require.ErrorIs(t, err, ErrNullArgument)
}

func TestSeriesDirectoryDimensionArityMismatch(t *testing.T) {
	d := NewSeriesDirectory()

	_, _, err := d.GetOrCreate("M", []string{"a", "b"}, nil, nil)
	require.NoError(t, err)

	_, _, err = d.GetOrCreate("M", []string{"a"}, nil, nil)
	require.ErrorIs(t, err, ErrDimensionArityMismatch)
}

func TestSeriesDirectoryConfigurationMismatch(t *testing.T) {
	d := NewSeriesDirectory()

	cfgA := SeriesConfig{KernelKind: KindMeasurement, SeriesCountLimit: 10}
	_, _, err := d.GetOrCreate("M", []string{"a"}, &cfgA, nil)
	require.NoError(t, err)

	cfgB := SeriesConfig{KernelKind: KindAccumulator, SeriesCountLimit: 10}
	_, _, err = d.GetOrCreate("M", []string{"b"}, &cfgB, nil)
	require.ErrorIs(t, err, ErrConfigurationMismatch)

	// A nil cfg on a later call is always compatible with whatever was
	// registered first.
	_, _, err = d.GetOrCreate("M", []string{"c"}, nil, nil)
	require.NoError(t, err)
}

func TestSeriesDirectoryCapacityLimits(t *testing.T) {
	d := NewSeriesDirectory()
	cfg := SeriesConfig{SeriesCountLimit: 2, ValuesPerDimensionLimit: 100}

	_, _, err := d.GetOrCreate("M", []string{"a"}, &cfg, nil)
	require.NoError(t, err)
	_, _, err = d.GetOrCreate("M", []string{"b"}, &cfg, nil)
	require.NoError(t, err)

	_, _, err = d.GetOrCreate("M", []string{"c"}, &cfg, nil)
	require.True(t, errors.Is(err, ErrCapacityExceeded))
}

func TestSeriesDirectoryPerDimensionValueLimit(t *testing.T) {
	d := NewSeriesDirectory()
	cfg := SeriesConfig{SeriesCountLimit: 1000, ValuesPerDimensionLimit: 2}

	_, _, err := d.GetOrCreate("M", []string{"a", "x"}, &cfg, nil)
	require.NoError(t, err)
	_, _, err = d.GetOrCreate("M", []string{"b", "x"}, &cfg, nil)
	require.NoError(t, err)

	// Third distinct value at position 0 exceeds the per-dimension cap,
	// even though the series-count cap has plenty of headroom.
	_, _, err = d.GetOrCreate("M", []string{"c", "x"}, &cfg, nil)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	// Reusing an already-seen value at position 0 is always fine.
	_, _, err = d.GetOrCreate("M", []string{"a", "y"}, &cfg, nil)
	require.NoError(t, err)
}

func TestSeriesDirectoryAllSeriesAndDimensionValueCount(t *testing.T) {
	d := NewSeriesDirectory()
	_, _, _ = d.GetOrCreate("M", []string{"a"}, nil, nil)
	_, _, _ = d.GetOrCreate("M", []string{"b"}, nil, nil)
	_, _, _ = d.GetOrCreate("N", []string{"a"}, nil, nil)

	require.Len(t, d.AllSeries("M"), 2)
	require.Len(t, d.AllSeries("N"), 1)
	require.Len(t, d.AllSeries("missing"), 0)

	require.Equal(t, 2, d.DimensionValueCount("M", 0))
	require.Equal(t, 0, d.DimensionValueCount("missing", 0))
	require.Equal(t, 0, d.DimensionValueCount("M", 5))
}
