package readings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wattbill-lab/wattbill/internal/core/cache"
	"github.com/wattbill-lab/wattbill/internal/core/timeseries"
	"github.com/wattbill-lab/wattbill/internal/storage"
)

// Metric names as recorded by the meter bridge. Power readings are
// instantaneous kW from the P1 port and W from the inverter; energy counters
// are cumulative kWh.
const (
	MetricPowerFromGrid   = "power_fromgrid"
	MetricPowerToGrid     = "power_togrid"
	MetricPowerProduction = "production_power"

	MetricCounterFromGridRate1 = "energy_fromgrid_rate1"
	MetricCounterFromGridRate2 = "energy_fromgrid_rate2"
	MetricCounterToGridRate1   = "energy_togrid_rate1"
	MetricCounterToGridRate2   = "energy_togrid_rate2"
	MetricCounterProduction    = "energy_production"
)

const (
	instantTTL  = 5 * time.Second
	baselineTTL = 10 * time.Minute

	// A production reading older than this means the inverter is offline
	// (asleep at night), which counts as zero production.
	productionStaleAfter = time.Minute

	baselinePeriod = 24 * time.Hour
	baselineBucket = 5 * time.Minute
)

// Service exposes live and baseline readings of the household meter.
type Service struct {
	store storage.ReadingStore
	cache *cache.Cache
	loc   *time.Location
	nowFn func() time.Time
}

func NewService(store storage.ReadingStore, c *cache.Cache, loc *time.Location) *Service {
	return &Service{
		store: store,
		cache: c,
		loc:   loc,
		nowFn: time.Now,
	}
}

// CurrentNetPower returns the instantaneous net grid power in W: positive
// when importing, negative when exporting. The P1 meter reports either
// import or export at any moment, so the most recent of the two readings
// wins.
func (s *Service) CurrentNetPower(ctx context.Context) (timeseries.Sample, error) {
	return cache.GetOrCompute(s.cache, cache.KeyOf("readings.power_net"), instantTTL,
		func() (timeseries.Sample, error) {
			fromGrid, errFrom := s.store.LatestReading(ctx, MetricPowerFromGrid)
			toGrid, errTo := s.store.LatestReading(ctx, MetricPowerToGrid)

			switch {
			case errFrom != nil && errTo != nil:
				return timeseries.Sample{}, errFrom
			case errFrom != nil && !errors.Is(errFrom, storage.ErrNoData):
				return timeseries.Sample{}, errFrom
			case errTo != nil && !errors.Is(errTo, storage.ErrNoData):
				return timeseries.Sample{}, errTo
			}

			net := timeseries.Sample{
				Timestamp: fromGrid.Timestamp.In(s.loc),
				Value:     fromGrid.Value * 1000,
				Unit:      "W",
			}
			if errFrom != nil || (errTo == nil && toGrid.Timestamp.After(fromGrid.Timestamp)) {
				net = timeseries.Sample{
					Timestamp: toGrid.Timestamp.In(s.loc),
					Value:     -toGrid.Value * 1000,
					Unit:      "W",
				}
			}
			return net, nil
		})
}

// CurrentFromGridPower returns the instantaneous grid import in W, clamped
// at zero while exporting.
func (s *Service) CurrentFromGridPower(ctx context.Context) (timeseries.Sample, error) {
	net, err := s.CurrentNetPower(ctx)
	if err != nil {
		return timeseries.Sample{}, err
	}
	if net.Value < 0 {
		net.Value = 0
	}
	return net, nil
}

// CurrentProduction returns the instantaneous solar production in W. A stale
// or missing reading means the inverter is offline and counts as zero.
func (s *Service) CurrentProduction(ctx context.Context) (timeseries.Sample, error) {
	return cache.GetOrCompute(s.cache, cache.KeyOf("readings.production"), instantTTL,
		func() (timeseries.Sample, error) {
			now := s.nowFn().In(s.loc)

			reading, err := s.store.LatestReading(ctx, MetricPowerProduction)
			if errors.Is(err, storage.ErrNoData) {
				return timeseries.Sample{Timestamp: now, Value: 0, Unit: "W"}, nil
			}
			if err != nil {
				return timeseries.Sample{}, err
			}
			if now.Sub(reading.Timestamp) > productionStaleAfter {
				return timeseries.Sample{Timestamp: now, Value: 0, Unit: "W"}, nil
			}

			reading.Timestamp = reading.Timestamp.In(s.loc)
			return reading, nil
		})
}

// CurrentConsumption returns the instantaneous household consumption in W:
// production plus net grid power.
func (s *Service) CurrentConsumption(ctx context.Context) (timeseries.Sample, error) {
	production, err := s.CurrentProduction(ctx)
	if err != nil {
		return timeseries.Sample{}, err
	}
	net, err := s.CurrentNetPower(ctx)
	if err != nil {
		return timeseries.Sample{}, err
	}

	ts := production.Timestamp
	if net.Timestamp.After(ts) {
		ts = net.Timestamp
	}

	return timeseries.Sample{
		Timestamp: ts,
		Value:     production.Value + net.Value,
		Unit:      "W",
	}, nil
}

// BaselineConsumption summarizes the last 24 hours of consumption: per
// 5-minute bucket, consumption = import + production - export, scaled from
// kWh per bucket to W.
func (s *Service) BaselineConsumption(ctx context.Context) (timeseries.PeriodStats, error) {
	return cache.GetOrCompute(s.cache, cache.KeyOf("readings.baseline_consumption"), baselineTTL,
		func() (timeseries.PeriodStats, error) {
			end := s.nowFn().In(s.loc)
			start := end.Add(-baselinePeriod)

			fromGrid, err := s.counterDeltas(ctx, start, end,
				MetricCounterFromGridRate1, MetricCounterFromGridRate2)
			if err != nil {
				return timeseries.PeriodStats{}, err
			}
			toGrid, err := s.counterDeltas(ctx, start, end,
				MetricCounterToGridRate1, MetricCounterToGridRate2)
			if err != nil {
				return timeseries.PeriodStats{}, err
			}
			production, err := s.counterDeltas(ctx, start, end, MetricCounterProduction)
			if err != nil {
				return timeseries.PeriodStats{}, err
			}

			if len(fromGrid) == 0 {
				return timeseries.PeriodStats{}, fmt.Errorf("baseline consumption: %w", storage.ErrNoData)
			}

			// kWh per 5 minutes × 12 → kW, × 1000 → W.
			samples := make([]timeseries.Sample, 0, len(fromGrid))
			for bucket, imported := range fromGrid {
				consumption := imported + production[bucket] - toGrid[bucket]
				samples = append(samples, timeseries.Sample{
					Timestamp: bucket,
					Value:     consumption * 12 * 1000,
					Unit:      "W",
				})
			}

			stats, err := timeseries.Stats(samples)
			if err != nil {
				return timeseries.PeriodStats{}, err
			}
			return stats, nil
		})
}

// counterDeltas fetches cumulative counters and returns the summed
// per-bucket increments of the given metrics.
func (s *Service) counterDeltas(ctx context.Context, start, end time.Time, metrics ...string) (map[time.Time]float64, error) {
	deltas := make(map[time.Time]float64)

	for _, metric := range metrics {
		samples, err := s.store.CounterSamples(ctx, metric, start, end)
		if err != nil {
			return nil, fmt.Errorf("counter %q: %w", metric, err)
		}

		for bucket, delta := range bucketDeltas(samples, baselineBucket, s.loc) {
			deltas[bucket] += delta
		}
	}

	return deltas, nil
}

// bucketDeltas reduces a cumulative counter series to one increment per
// bucket: the difference between the last value of consecutive buckets.
func bucketDeltas(samples []timeseries.Sample, bucket time.Duration, loc *time.Location) map[time.Time]float64 {
	lastPerBucket := make(map[time.Time]float64)
	for _, s := range samples {
		lastPerBucket[s.Timestamp.In(loc).Truncate(bucket)] = s.Value
	}

	buckets := make([]time.Time, 0, len(lastPerBucket))
	for b := range lastPerBucket {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	deltas := make(map[time.Time]float64, len(buckets))
	for i := 1; i < len(buckets); i++ {
		deltas[buckets[i]] = lastPerBucket[buckets[i]] - lastPerBucket[buckets[i-1]]
	}
	return deltas
}
