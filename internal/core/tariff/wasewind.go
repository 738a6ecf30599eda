package tariff

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	hundred = d("100")
	ten     = d("10")
	vat     = d("1.06")
)

// dynamicCalculator is the shared base of variants whose consumption and
// injection prices track the monthly mean day-ahead price.
type dynamicCalculator struct {
	market MarketData
}

// monthlyDayAhead fetches the mean day-ahead price in c€/kWh for the
// timestamp's month.
func (c *dynamicCalculator) monthlyDayAhead(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	price, err := c.market.MonthlyDayAhead(ctx, ts.Year(), ts.Month())
	if err != nil {
		return decimal.Zero, fmt.Errorf("monthly day-ahead price for %d-%02d: %w", ts.Year(), ts.Month(), err)
	}
	return price, nil
}

// waseWind2024 is the Wase Wind cooperative tariff valid through 2024.
// Supplier formulas quote the day-ahead price in €/MWh (c€/kWh × 10) and
// yield c€/kWh, hence the ×10 and ÷100 factors.
type waseWind2024 struct {
	dynamicCalculator
}

func (c *waseWind2024) Name() string { return "wase_wind_2024" }

func (c *waseWind2024) ConsumptionRate1Price(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	dayAhead, err := c.monthlyDayAhead(ctx, ts)
	if err != nil {
		return decimal.Zero, err
	}
	return d("0.115").Mul(d("0.5")).Mul(dayAhead).Mul(ten).Add(d("7.46")).Div(hundred), nil
}

func (c *waseWind2024) ConsumptionRate2Price(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	dayAhead, err := c.monthlyDayAhead(ctx, ts)
	if err != nil {
		return decimal.Zero, err
	}
	return d("0.100").Mul(d("0.5")).Mul(dayAhead).Mul(ten).Add(d("6.63")).Div(hundred), nil
}

func (c *waseWind2024) InjectionRate1Price(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	dayAhead, err := c.monthlyDayAhead(ctx, ts)
	if err != nil {
		return decimal.Zero, err
	}
	return d("0.08").Mul(dayAhead).Mul(ten).Sub(d("0.6")).Div(hundred), nil
}

func (c *waseWind2024) InjectionRate2Price(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	dayAhead, err := c.monthlyDayAhead(ctx, ts)
	if err != nil {
		return decimal.Zero, err
	}
	return d("0.06").Mul(dayAhead).Mul(ten).Sub(d("0.6")).Div(hundred), nil
}

func (c *waseWind2024) SubscriptionPrice() decimal.Decimal { return d("60") }

func (c *waseWind2024) EnergyFundPrice() decimal.Decimal { return decimal.Zero }

func (c *waseWind2024) DistributionPricePerKWPeak() decimal.Decimal { return d("37.15") }

func (c *waseWind2024) DistributionPricePerKWh() decimal.Decimal {
	distribution := d("0.0098665")
	publicService := d("0.0229011")
	surcharges := d("0.0010861")
	transmission := d("0.0043571")
	certificates := d("0.015667")
	excise := d("0.0494061")

	return distribution.Add(publicService).Add(surcharges).Add(transmission).Add(excise).
		Mul(vat).Add(certificates)
}

func (c *waseWind2024) DistributionPriceFixed() decimal.Decimal {
	dataManagement := d("15.09")
	return dataManagement.Div(d("12"))
}

// waseWind2025 is the Wase Wind tariff valid from 2025 onwards.
type waseWind2025 struct {
	dynamicCalculator
}

func (c *waseWind2025) Name() string { return "wase_wind_2025" }

func (c *waseWind2025) ConsumptionRate1Price(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	dayAhead, err := c.monthlyDayAhead(ctx, ts)
	if err != nil {
		return decimal.Zero, err
	}
	return d("0.115").Mul(d("0.5")).Mul(dayAhead).Mul(ten).Add(d("7.16")).Div(hundred), nil
}

func (c *waseWind2025) ConsumptionRate2Price(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	dayAhead, err := c.monthlyDayAhead(ctx, ts)
	if err != nil {
		return decimal.Zero, err
	}
	return d("0.100").Mul(d("0.5")).Mul(dayAhead).Mul(ten).Add(d("6.36")).Div(hundred), nil
}

func (c *waseWind2025) InjectionRate1Price(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	dayAhead, err := c.monthlyDayAhead(ctx, ts)
	if err != nil {
		return decimal.Zero, err
	}
	return d("0.07").Mul(dayAhead).Mul(ten).Sub(d("1")).Div(hundred), nil
}

func (c *waseWind2025) InjectionRate2Price(ctx context.Context, ts time.Time) (decimal.Decimal, error) {
	dayAhead, err := c.monthlyDayAhead(ctx, ts)
	if err != nil {
		return decimal.Zero, err
	}
	return d("0.05").Mul(dayAhead).Mul(ten).Sub(d("1")).Div(hundred), nil
}

func (c *waseWind2025) SubscriptionPrice() decimal.Decimal { return d("65") }

func (c *waseWind2025) EnergyFundPrice() decimal.Decimal { return decimal.Zero }

func (c *waseWind2025) DistributionPricePerKWPeak() decimal.Decimal {
	return d("49.0426291").Mul(vat)
}

func (c *waseWind2025) DistributionPricePerKWh() decimal.Decimal {
	distribution := d("0.0236764")
	publicService := d("0.0277220")
	surcharges := d("0.0014996")
	certificates := d("0.01567")
	excise := d("0.04748")

	return distribution.Add(publicService).Add(surcharges).Add(excise).
		Mul(vat).Add(certificates)
}

func (c *waseWind2025) DistributionPriceFixed() decimal.Decimal {
	dataManagement := d("17.51").Mul(vat)
	return dataManagement.Div(d("12"))
}
