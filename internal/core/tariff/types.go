package tariff

import (
	"time"

	"github.com/shopspring/decimal"
)

// Interval is one fixed-size meter bucket: energy deltas in kWh since the
// previous bucket, split by rate class. Produced by the meter store,
// consumed only by the pricing arithmetic. Missing buckets are absent,
// never zero-filled.
type Interval struct {
	BucketStart      time.Time
	ConsumptionRate1 decimal.Decimal
	ConsumptionRate2 decimal.Decimal
	InjectionRate1   decimal.Decimal
	InjectionRate2   decimal.Decimal
}

// Breakdown is the priced decomposition of one interval, or a sum of
// interval breakdowns after re-aggregation. All fields are in euro.
// Injection is the (positive) credit; Total subtracts it.
type Breakdown struct {
	Fixed        decimal.Decimal `json:"fixed"`
	Peak         decimal.Decimal `json:"peak"`
	Distribution decimal.Decimal `json:"distribution"`
	Consumption  decimal.Decimal `json:"consumption"`
	Injection    decimal.Decimal `json:"injection"`
	Total        decimal.Decimal `json:"total"`
}

// Add returns the field-wise sum of two breakdowns.
func (b Breakdown) Add(other Breakdown) Breakdown {
	return Breakdown{
		Fixed:        b.Fixed.Add(other.Fixed),
		Peak:         b.Peak.Add(other.Peak),
		Distribution: b.Distribution.Add(other.Distribution),
		Consumption:  b.Consumption.Add(other.Consumption),
		Injection:    b.Injection.Add(other.Injection),
		Total:        b.Total.Add(other.Total),
	}
}

// RateClass distinguishes the two metering rate classes of a dual-rate meter.
type RateClass int

const (
	// Rate1 is the day rate: weekdays 07:00-22:00 local time.
	Rate1 RateClass = iota + 1
	// Rate2 is the night rate: weekday nights and weekends.
	Rate2
)

// RateClassAt returns the rate class the meter registers at the given local
// timestamp.
func RateClassAt(ts time.Time) RateClass {
	switch ts.Weekday() {
	case time.Saturday, time.Sunday:
		return Rate2
	}
	if h := ts.Hour(); h >= 7 && h < 22 {
		return Rate1
	}
	return Rate2
}
