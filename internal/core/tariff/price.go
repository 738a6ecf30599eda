package tariff

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CalculatePrice prices a single meter interval under the given calculator.
//
// Yearly amounts (subscription, energy fund, capacity charge) are prorated
// over the exact number of buckets in the interval's calendar year; the fixed
// monthly fee over the buckets in its calendar month. The interval timestamp
// must already be in the billing timezone; proration follows its civil
// calendar.
func CalculatePrice(ctx context.Context, calc Calculator, peaks PeakProvider, iv Interval, bucket time.Duration) (Breakdown, error) {
	ts := iv.BucketStart

	perYear, err := bucketsInYear(ts.Year(), bucket)
	if err != nil {
		return Breakdown{}, err
	}
	perMonth, err := bucketsInMonth(ts.Year(), ts.Month(), bucket)
	if err != nil {
		return Breakdown{}, err
	}

	yearDiv := decimal.NewFromInt(perYear)
	monthDiv := decimal.NewFromInt(perMonth)

	fixed := calc.SubscriptionPrice().Div(yearDiv).
		Add(calc.EnergyFundPrice().Div(yearDiv)).
		Add(calc.DistributionPriceFixed().Div(monthDiv))

	invoicePeak, err := peaks.InvoicePeak(ctx, ts.Year(), ts.Month())
	if err != nil {
		return Breakdown{}, fmt.Errorf("invoice peak for %d-%02d: %w", ts.Year(), ts.Month(), err)
	}
	peak := calc.DistributionPricePerKWPeak().Mul(invoicePeak).Div(yearDiv)

	distribution := calc.DistributionPricePerKWh().
		Mul(iv.ConsumptionRate1.Add(iv.ConsumptionRate2))

	consRate1Price, err := calc.ConsumptionRate1Price(ctx, ts)
	if err != nil {
		return Breakdown{}, err
	}
	consRate2Price, err := calc.ConsumptionRate2Price(ctx, ts)
	if err != nil {
		return Breakdown{}, err
	}
	consumption := consRate1Price.Mul(iv.ConsumptionRate1).
		Add(consRate2Price.Mul(iv.ConsumptionRate2))

	injRate1Price, err := calc.InjectionRate1Price(ctx, ts)
	if err != nil {
		return Breakdown{}, err
	}
	injRate2Price, err := calc.InjectionRate2Price(ctx, ts)
	if err != nil {
		return Breakdown{}, err
	}
	injection := injRate1Price.Mul(iv.InjectionRate1).
		Add(injRate2Price.Mul(iv.InjectionRate2))

	total := fixed.Add(peak).Add(distribution).Add(consumption).Sub(injection)

	return Breakdown{
		Fixed:        fixed,
		Peak:         peak,
		Distribution: distribution,
		Consumption:  consumption,
		Injection:    injection,
		Total:        total,
	}, nil
}

// bucketsInYear returns the exact number of buckets in a calendar year.
// The year must divide evenly into buckets; the proration divisor is never
// rounded.
func bucketsInYear(year int, bucket time.Duration) (int64, error) {
	days := 365
	if isLeapYear(year) {
		days = 366
	}
	return divideExactly(time.Duration(days)*24*time.Hour, bucket)
}

// bucketsInMonth returns the exact number of buckets in a calendar month.
func bucketsInMonth(year int, month time.Month, bucket time.Duration) (int64, error) {
	days := daysInMonth(year, month)
	return divideExactly(time.Duration(days)*24*time.Hour, bucket)
}

func divideExactly(span, bucket time.Duration) (int64, error) {
	if bucket <= 0 {
		return 0, fmt.Errorf("bucket size must be positive, got %s", bucket)
	}
	if span%bucket != 0 {
		return 0, fmt.Errorf("bucket size %s does not divide %s evenly", bucket, span)
	}
	return int64(span / bucket), nil
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
