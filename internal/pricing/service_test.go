package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wattbill-lab/wattbill/internal/core/cache"
	"github.com/wattbill-lab/wattbill/internal/core/tariff"
	"github.com/wattbill-lab/wattbill/internal/storage"
)

type fakeMarketData struct{}

func (fakeMarketData) MonthlyDayAhead(context.Context, int, time.Month) (decimal.Decimal, error) {
	return decimal.NewFromFloat(8.0), nil
}

func (fakeMarketData) DayAheadAt(context.Context, time.Time) (decimal.Decimal, error) {
	return decimal.NewFromFloat(8.0), nil
}

type fakePeaks struct{}

func (fakePeaks) InvoicePeak(context.Context, int, time.Month) (decimal.Decimal, error) {
	return decimal.NewFromFloat(5.0), nil
}

type fakeMeters struct {
	intervals []tariff.Interval
	calls     int
}

func (f *fakeMeters) EnergyIntervals(_ context.Context, start, end time.Time) ([]tariff.Interval, error) {
	f.calls++
	var out []tariff.Interval
	for _, iv := range f.intervals {
		if !iv.BucketStart.Before(start) && iv.BucketStart.Before(end) {
			out = append(out, iv)
		}
	}
	if len(out) == 0 {
		return nil, storage.ErrNoData
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quarterHours(start time.Time, count int, kWh float64) []tariff.Interval {
	intervals := make([]tariff.Interval, 0, count)
	for i := 0; i < count; i++ {
		intervals = append(intervals, tariff.Interval{
			BucketStart:      start.Add(time.Duration(i) * 15 * time.Minute),
			ConsumptionRate2: decimal.NewFromFloat(kWh),
		})
	}
	return intervals
}

func newTestService(t *testing.T, meters *fakeMeters) *Service {
	t.Helper()
	deps := tariff.Deps{Market: fakeMarketData{}}

	calc2024, err := tariff.NewCalculator("wase_wind_2024", deps)
	require.NoError(t, err)
	calc2025, err := tariff.NewCalculator("wase_wind_2025", deps)
	require.NoError(t, err)

	registry, err := tariff.NewRegistry("standard", []tariff.Period{
		{Start: day(2024, 1, 1), End: day(2025, 1, 1), Calculator: calc2024},
		{Start: day(2025, 1, 1), End: day(2026, 1, 1), Calculator: calc2025},
	})
	require.NoError(t, err)

	return NewService(
		map[string]*tariff.Registry{"standard": registry},
		meters,
		fakePeaks{},
		cache.New(),
		time.UTC,
	)
}

func TestAggregatedPrice_DailyBuckets(t *testing.T) {
	meters := &fakeMeters{intervals: append(
		quarterHours(day(2024, 3, 11), 96, 0.1),
		quarterHours(day(2024, 3, 12), 96, 0.1)...,
	)}
	svc := newTestService(t, meters)

	resp, err := svc.AggregatedPrice(context.Background(), "standard",
		day(2024, 3, 11), day(2024, 3, 13), GranularityDaily)
	require.NoError(t, err)
	require.Len(t, resp.Points, 2)
	require.Equal(t, day(2024, 3, 11), resp.Points[0].PeriodStart)
	require.Equal(t, day(2024, 3, 12), resp.Points[1].PeriodStart)
	require.True(t, resp.Points[0].Total.IsPositive())
}

func TestAggregatedPrice_GranularityRollsUp(t *testing.T) {
	meters := &fakeMeters{intervals: quarterHours(day(2024, 3, 11), 2*96, 0.1)}
	svc := newTestService(t, meters)

	hourly, err := svc.HourlyPrice(context.Background(), "standard", day(2024, 3, 11), day(2024, 3, 13))
	require.NoError(t, err)
	require.Len(t, hourly.Points, 48)

	monthly, err := svc.MonthlyPrice(context.Background(), "standard", day(2024, 3, 11), day(2024, 3, 13))
	require.NoError(t, err)
	require.Len(t, monthly.Points, 1)

	// The rollup conserves the total.
	sumHourly := decimal.Zero
	for _, p := range hourly.Points {
		sumHourly = sumHourly.Add(p.Total)
	}
	require.True(t, sumHourly.Equal(monthly.Points[0].Total))
}

func TestAggregatedPrice_SplitRangeMatchesFullRange(t *testing.T) {
	// Metered data straddling the 2024→2025 tariff boundary.
	meters := &fakeMeters{intervals: append(
		quarterHours(day(2024, 12, 31), 96, 0.1),
		quarterHours(day(2025, 1, 1), 96, 0.1)...,
	)}
	svc := newTestService(t, meters)

	full, err := svc.DailyPrice(context.Background(), "standard", day(2024, 12, 31), day(2025, 1, 2))
	require.NoError(t, err)

	first, err := svc.DailyPrice(context.Background(), "standard", day(2024, 12, 31), day(2025, 1, 1))
	require.NoError(t, err)
	second, err := svc.DailyPrice(context.Background(), "standard", day(2025, 1, 1), day(2025, 1, 2))
	require.NoError(t, err)

	require.Len(t, full.Points, 2)
	require.True(t, full.Points[0].Total.Equal(first.Points[0].Total))
	require.True(t, full.Points[1].Total.Equal(second.Points[0].Total))

	// The two days price differently: the tariff era changed at midnight.
	require.False(t, full.Points[0].Total.Equal(full.Points[1].Total))
}

func TestAggregatedPrice_MemoizesIntervalFetches(t *testing.T) {
	meters := &fakeMeters{intervals: quarterHours(day(2024, 3, 11), 96, 0.1)}
	svc := newTestService(t, meters)

	_, err := svc.DailyPrice(context.Background(), "standard", day(2024, 3, 11), day(2024, 3, 12))
	require.NoError(t, err)
	_, err = svc.DailyPrice(context.Background(), "standard", day(2024, 3, 11), day(2024, 3, 12))
	require.NoError(t, err)

	require.Equal(t, 1, meters.calls)
}

func TestAggregatedPrice_NoData(t *testing.T) {
	svc := newTestService(t, &fakeMeters{})

	_, err := svc.DailyPrice(context.Background(), "standard", day(2024, 3, 11), day(2024, 3, 12))
	require.ErrorIs(t, err, storage.ErrNoData)
}

func TestAggregatedPrice_NoTariffForRange(t *testing.T) {
	svc := newTestService(t, &fakeMeters{intervals: quarterHours(day(2023, 3, 11), 96, 0.1)})

	_, err := svc.DailyPrice(context.Background(), "standard", day(2023, 3, 11), day(2023, 3, 12))
	require.ErrorIs(t, err, tariff.ErrNoTariff)
}

func TestAggregatedPrice_UnknownProfile(t *testing.T) {
	svc := newTestService(t, &fakeMeters{})

	_, err := svc.DailyPrice(context.Background(), "premium", day(2024, 3, 11), day(2024, 3, 12))
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("")
	require.NoError(t, err)
	require.Equal(t, GranularityDaily, g)

	g, err = ParseGranularity("monthly")
	require.NoError(t, err)
	require.Equal(t, GranularityMonthly, g)

	_, err = ParseGranularity("weekly")
	require.ErrorIs(t, err, ErrInvalidQuery)
}
