package readings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wattbill-lab/wattbill/internal/core/cache"
	"github.com/wattbill-lab/wattbill/internal/core/timeseries"
	"github.com/wattbill-lab/wattbill/internal/storage"
)

type fakeReadingStore struct {
	latest   map[string]timeseries.Sample
	counters map[string][]timeseries.Sample
}

func (f *fakeReadingStore) LatestReading(_ context.Context, metric string) (timeseries.Sample, error) {
	sample, ok := f.latest[metric]
	if !ok {
		return timeseries.Sample{}, fmt.Errorf("latest reading for %q: %w", metric, storage.ErrNoData)
	}
	return sample, nil
}

func (f *fakeReadingStore) CounterSamples(_ context.Context, metric string, start, end time.Time) ([]timeseries.Sample, error) {
	var out []timeseries.Sample
	for _, s := range f.counters[metric] {
		if !s.Timestamp.Before(start) && s.Timestamp.Before(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func newTestService(store *fakeReadingStore, now time.Time) *Service {
	svc := NewService(store, cache.New(), time.UTC)
	svc.nowFn = func() time.Time { return now }
	return svc
}

func TestCurrentNetPower_ImportWins(t *testing.T) {
	now := time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)
	store := &fakeReadingStore{latest: map[string]timeseries.Sample{
		MetricPowerFromGrid: {Timestamp: now, Value: 1.25, Unit: "kW"},
		MetricPowerToGrid:   {Timestamp: now.Add(-30 * time.Second), Value: 0.5, Unit: "kW"},
	}}

	net, err := newTestService(store, now).CurrentNetPower(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1250.0, net.Value)
	require.Equal(t, "W", net.Unit)
	require.Equal(t, now, net.Timestamp)
}

func TestCurrentNetPower_ExportIsNegative(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	store := &fakeReadingStore{latest: map[string]timeseries.Sample{
		MetricPowerFromGrid: {Timestamp: now.Add(-time.Minute), Value: 0, Unit: "kW"},
		MetricPowerToGrid:   {Timestamp: now, Value: 2.0, Unit: "kW"},
	}}

	net, err := newTestService(store, now).CurrentNetPower(context.Background())
	require.NoError(t, err)
	require.Equal(t, -2000.0, net.Value)
}

func TestCurrentNetPower_NoReadings(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	store := &fakeReadingStore{latest: map[string]timeseries.Sample{}}

	_, err := newTestService(store, now).CurrentNetPower(context.Background())
	require.ErrorIs(t, err, storage.ErrNoData)
}

func TestCurrentFromGridPower_ClampsExport(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	store := &fakeReadingStore{latest: map[string]timeseries.Sample{
		MetricPowerToGrid: {Timestamp: now, Value: 2.0, Unit: "kW"},
	}}

	fromGrid, err := newTestService(store, now).CurrentFromGridPower(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0.0, fromGrid.Value)
}

func TestCurrentProduction_StaleReadingIsZero(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	store := &fakeReadingStore{latest: map[string]timeseries.Sample{
		MetricPowerProduction: {Timestamp: now.Add(-10 * time.Minute), Value: 1500, Unit: "W"},
	}}

	production, err := newTestService(store, now).CurrentProduction(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0.0, production.Value)
	require.Equal(t, now, production.Timestamp)
}

func TestCurrentConsumption_SumsProductionAndNet(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	store := &fakeReadingStore{latest: map[string]timeseries.Sample{
		MetricPowerFromGrid:   {Timestamp: now.Add(-5 * time.Second), Value: 0.4, Unit: "kW"},
		MetricPowerProduction: {Timestamp: now, Value: 1800, Unit: "W"},
	}}

	consumption, err := newTestService(store, now).CurrentConsumption(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2200.0, consumption.Value)
	require.Equal(t, now, consumption.Timestamp)
}

func TestBaselineConsumption(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	start := now.Add(-time.Hour)

	// A steady counter: 0.05 kWh imported per 5-minute bucket, nothing
	// exported or produced. 0.05 kWh / 5 min is a constant 600 W.
	var counter []timeseries.Sample
	for i := 0; i <= 12; i++ {
		counter = append(counter, timeseries.Sample{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Value:     1000.0 + 0.05*float64(i),
			Unit:      "kWh",
		})
	}

	store := &fakeReadingStore{counters: map[string][]timeseries.Sample{
		MetricCounterFromGridRate1: counter,
	}}

	stats, err := newTestService(store, now).BaselineConsumption(context.Background())
	require.NoError(t, err)
	require.Equal(t, "W", stats.Unit)
	require.InDelta(t, 600.0, stats.Q50, 1e-6)
	require.InDelta(t, 600.0, stats.Q25, 1e-6)
	require.InDelta(t, 0.0, stats.StdDev, 1e-6)
}

func TestBaselineConsumption_NoCounters(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	store := &fakeReadingStore{}

	_, err := newTestService(store, now).BaselineConsumption(context.Background())
	require.ErrorIs(t, err, storage.ErrNoData)
}
