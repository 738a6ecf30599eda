package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wattbill-lab/wattbill/internal/core/tariff"
	"github.com/wattbill-lab/wattbill/internal/core/timeseries"
)

// ErrNoData is returned when a query matches no rows. Callers decide whether
// that is an error (a price lookup) or an empty result (a price report).
var ErrNoData = errors.New("no data for requested range")

// MeterStore reads metered energy per billing bucket.
type MeterStore interface {
	// EnergyIntervals fetches the quarter-hour meter intervals in
	// [start, end), ordered by bucket start. Returns ErrNoData when the
	// range holds no intervals at all.
	EnergyIntervals(ctx context.Context, start, end time.Time) ([]tariff.Interval, error)
}

// PeakStore reads the monthly demand peaks used for the capacity charge.
type PeakStore interface {
	// InvoicePeak returns the billable peak for a month: the highest
	// monthly peak over the 12 months ending at (year, month), floored at
	// the regulatory minimum of 2.5 kW.
	InvoicePeak(ctx context.Context, year int, month time.Month) (decimal.Decimal, error)

	// CurrentMonthPeak returns the running peak of a single month, zero if
	// none was recorded yet.
	CurrentMonthPeak(ctx context.Context, year int, month time.Month) (decimal.Decimal, error)
}

// MarketStore persists and reads day-ahead market prices in c€/kWh at
// quarter-hour resolution.
type MarketStore interface {
	// MonthlyDayAhead returns the mean day-ahead price of a calendar
	// month. Returns ErrNoData when the month has no prices.
	MonthlyDayAhead(ctx context.Context, year int, month time.Month) (decimal.Decimal, error)

	// DayAheadAt returns the price of the quarter hour containing ts.
	// Returns ErrNoData when that quarter hour was never ingested.
	DayAheadAt(ctx context.Context, ts time.Time) (decimal.Decimal, error)

	// LastDayAheadDay returns the civil date of the most recent persisted
	// price, used as the ingestion watermark. Returns ErrNoData when the
	// table is empty.
	LastDayAheadDay(ctx context.Context) (time.Time, error)

	// SaveDayAheadPrices upserts a batch of quarter-hour prices in one
	// transaction. Re-ingesting a day overwrites its prices.
	SaveDayAheadPrices(ctx context.Context, prices []DayAheadPrice) error
}

// DayAheadPrice is one quarter-hour market price in c€/kWh.
type DayAheadPrice struct {
	Timestamp time.Time
	Price     decimal.Decimal
}

// ReadingStore reads raw sensor data: instantaneous power readings and
// cumulative energy counters.
type ReadingStore interface {
	// LatestReading returns the most recent reading of a metric. Returns
	// ErrNoData when the metric was never recorded.
	LatestReading(ctx context.Context, metric string) (timeseries.Sample, error)

	// CounterSamples fetches the cumulative counter samples of a metric in
	// [start, end), ordered by timestamp.
	CounterSamples(ctx context.Context, metric string, start, end time.Time) ([]timeseries.Sample, error)
}
