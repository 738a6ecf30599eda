package tariff

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Calculator is the fixed capability set every tariff variant implements.
// Variants differ only in these pricing functions: some track the wholesale
// day-ahead market, others return constants. Adding a tariff era means adding
// a new variant plus one period entry in a profile file, never branching on
// the year inside shared logic.
type Calculator interface {
	// Name identifies the variant, e.g. "wase_wind_2024".
	Name() string

	// ConsumptionRate1Price is the price per kWh for rate1 (day) consumption
	// at the given timestamp.
	ConsumptionRate1Price(ctx context.Context, ts time.Time) (decimal.Decimal, error)
	// ConsumptionRate2Price is the price per kWh for rate2 (night) consumption.
	ConsumptionRate2Price(ctx context.Context, ts time.Time) (decimal.Decimal, error)
	// InjectionRate1Price is the credit per kWh for rate1 injection.
	InjectionRate1Price(ctx context.Context, ts time.Time) (decimal.Decimal, error)
	// InjectionRate2Price is the credit per kWh for rate2 injection.
	InjectionRate2Price(ctx context.Context, ts time.Time) (decimal.Decimal, error)

	// SubscriptionPrice is the flat yearly subscription of the supplier.
	SubscriptionPrice() decimal.Decimal
	// EnergyFundPrice is the flat yearly energy-fund levy.
	EnergyFundPrice() decimal.Decimal
	// DistributionPricePerKWPeak is the yearly capacity charge per kW of
	// invoice peak.
	DistributionPricePerKWPeak() decimal.Decimal
	// DistributionPricePerKWh is the flat distribution charge per kWh consumed.
	DistributionPricePerKWh() decimal.Decimal
	// DistributionPriceFixed is the flat monthly distribution fee.
	DistributionPriceFixed() decimal.Decimal
}

// MarketData supplies wholesale day-ahead prices to dynamic tariff variants.
// Absence of data for a requested period must be reported as an error,
// distinct from a legitimate zero price.
type MarketData interface {
	// MonthlyDayAhead returns the mean day-ahead price in c€/kWh for a month.
	MonthlyDayAhead(ctx context.Context, year int, month time.Month) (decimal.Decimal, error)
	// DayAheadAt returns the exact day-ahead price in c€/kWh for a
	// quarter-hour timestamp.
	DayAheadAt(ctx context.Context, ts time.Time) (decimal.Decimal, error)
}

// PeakProvider supplies the billing-relevant rolling 12-month maximum of
// monthly peak demand in kW. The minimum floor is applied by the provider.
type PeakProvider interface {
	InvoicePeak(ctx context.Context, year int, month time.Month) (decimal.Decimal, error)
}
