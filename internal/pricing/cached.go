package pricing

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wattbill-lab/wattbill/internal/core/cache"
	"github.com/wattbill-lab/wattbill/internal/core/tariff"
	"github.com/wattbill-lab/wattbill/internal/storage"
)

// Memoization TTLs. Market prices and peaks change at most a few times a
// day; meter intervals accrue every quarter hour.
const (
	marketTTL    = 15 * time.Minute
	peakTTL      = 15 * time.Minute
	intervalsTTL = 10 * time.Minute
)

// CachedMarketData memoizes market store lookups through the shared cache.
// It is the MarketData implementation handed to the tariff calculators.
type CachedMarketData struct {
	inner storage.MarketStore
	cache *cache.Cache
}

func NewCachedMarketData(inner storage.MarketStore, c *cache.Cache) *CachedMarketData {
	return &CachedMarketData{inner: inner, cache: c}
}

func (m *CachedMarketData) MonthlyDayAhead(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	key := cache.KeyOf("market.monthly_day_ahead",
		cache.Arg{Name: "year", Value: strconv.Itoa(year)},
		cache.Arg{Name: "month", Value: strconv.Itoa(int(month))},
	)
	return cache.GetOrCompute(m.cache, key, marketTTL, func() (decimal.Decimal, error) {
		return m.inner.MonthlyDayAhead(ctx, year, month)
	})
}

func (m *CachedMarketData) DayAheadAt(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	key := cache.KeyOf("market.day_ahead_at",
		cache.Arg{Name: "ts", Value: ts.UTC().Format(time.RFC3339)},
	)
	return cache.GetOrCompute(m.cache, key, marketTTL, func() (decimal.Decimal, error) {
		return m.inner.DayAheadAt(ctx, ts)
	})
}

// CachedPeaks memoizes invoice peak lookups.
type CachedPeaks struct {
	inner storage.PeakStore
	cache *cache.Cache
}

func NewCachedPeaks(inner storage.PeakStore, c *cache.Cache) *CachedPeaks {
	return &CachedPeaks{inner: inner, cache: c}
}

func (p *CachedPeaks) InvoicePeak(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	key := cache.KeyOf("peaks.invoice_peak",
		cache.Arg{Name: "year", Value: strconv.Itoa(year)},
		cache.Arg{Name: "month", Value: strconv.Itoa(int(month))},
	)
	return cache.GetOrCompute(p.cache, key, peakTTL, func() (decimal.Decimal, error) {
		return p.inner.InvoicePeak(ctx, year, month)
	})
}

var (
	_ tariff.MarketData   = (*CachedMarketData)(nil)
	_ tariff.PeakProvider = (*CachedPeaks)(nil)
)
