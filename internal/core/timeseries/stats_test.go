package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	var samples []Sample
	for i := 1; i <= 100; i++ {
		samples = append(samples, Sample{
			Timestamp: start.Add(time.Duration(i-1) * 5 * time.Minute),
			Value:     float64(i),
			Unit:      "W",
		})
	}

	stats, err := Stats(samples)
	require.NoError(t, err)

	require.Equal(t, start, stats.Start)
	require.Equal(t, start.Add(99*5*time.Minute), stats.End)
	require.Equal(t, "W", stats.Unit)
	require.InDelta(t, 25, stats.Q25, 1e-9)
	require.InDelta(t, 50, stats.Q50, 1e-9)
	require.InDelta(t, 75, stats.Q75, 1e-9)
	require.InDelta(t, 29.0115, stats.StdDev, 1e-3)
	require.InDelta(t, 5050, stats.Sum, 1e-9)
}

func TestStats_UnorderedInput(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Timestamp: base.Add(time.Hour), Value: 3, Unit: "W"},
		{Timestamp: base, Value: 1, Unit: "W"},
		{Timestamp: base.Add(30 * time.Minute), Value: 2, Unit: "W"},
	}

	stats, err := Stats(samples)
	require.NoError(t, err)
	require.Equal(t, base, stats.Start)
	require.Equal(t, base.Add(time.Hour), stats.End)
	require.InDelta(t, 6, stats.Sum, 1e-9)
}

func TestStats_EmptyInput(t *testing.T) {
	_, err := Stats(nil)
	require.ErrorIs(t, err, ErrEmptySeries)
}
