package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	v1 "github.com/wattbill-lab/wattbill/internal/api/v1"
	"github.com/wattbill-lab/wattbill/internal/core/tariff"
	"github.com/wattbill-lab/wattbill/internal/core/timeseries"
)

// SimulatePrice prices a hypothetical load curve under a profile's tariffs.
// The samples carry power in W; they are resampled onto the billing grid,
// converted to energy per bucket and classified into day/night rates by the
// bucket's position in the civil week. Negative power counts as injection.
func (s *Service) SimulatePrice(ctx context.Context, profile string, req v1.SimulateRequest, granularity Granularity) (v1.SimulateResponse, error) {
	registry, ok := s.profiles[profile]
	if !ok {
		return v1.SimulateResponse{}, fmt.Errorf("%w: unknown profile %q", ErrInvalidQuery, profile)
	}

	method, err := timeseries.ParseMethod(req.Method)
	if err != nil {
		return v1.SimulateResponse{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	grid, err := timeseries.Resample(req.Samples, billingBucket, method)
	if err != nil {
		return v1.SimulateResponse{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	intervals := make([]tariff.Interval, 0, len(grid))
	for _, sample := range grid {
		intervals = append(intervals, s.simulatedInterval(sample))
	}

	spans, err := registry.Resolve(
		intervals[0].BucketStart,
		intervals[len(intervals)-1].BucketStart.Add(billingBucket),
	)
	if err != nil {
		return v1.SimulateResponse{}, err
	}

	buckets := make(map[time.Time]tariff.Breakdown)
	for _, iv := range intervals {
		calc := calculatorFor(spans, iv.BucketStart)

		breakdown, err := tariff.CalculatePrice(ctx, calc, s.peaks, iv, billingBucket)
		if err != nil {
			return v1.SimulateResponse{}, fmt.Errorf("pricing simulated bucket %s: %w",
				iv.BucketStart.Format(time.RFC3339), err)
		}

		key := granularity.bucketStart(iv.BucketStart, s.loc)
		buckets[key] = buckets[key].Add(breakdown)
	}

	runID := uuid.NewString()
	slog.Info("[Pricing] Simulation priced",
		"run_id", runID,
		"profile", profile,
		"samples", len(req.Samples),
		"intervals", len(intervals))

	return v1.SimulateResponse{
		ID:          runID,
		Profile:     profile,
		Granularity: string(granularity),
		Points:      sortedPoints(buckets),
	}, nil
}

// simulatedInterval converts one resampled power value (W over a quarter
// hour) into a metered energy interval in kWh.
func (s *Service) simulatedInterval(sample timeseries.Sample) tariff.Interval {
	bucketStart := sample.Timestamp.In(s.loc)
	kWh := decimal.NewFromFloat(sample.Value).
		Div(decimal.NewFromInt(1000)).
		Mul(decimal.NewFromFloat(0.25))

	iv := tariff.Interval{BucketStart: bucketStart}
	class := tariff.RateClassAt(bucketStart)

	switch {
	case kWh.IsNegative() && class == tariff.Rate1:
		iv.InjectionRate1 = kWh.Neg()
	case kWh.IsNegative():
		iv.InjectionRate2 = kWh.Neg()
	case class == tariff.Rate1:
		iv.ConsumptionRate1 = kWh
	default:
		iv.ConsumptionRate2 = kWh
	}
	return iv
}

// calculatorFor finds the span covering ts. Spans come from Resolve over the
// exact interval range, so a match always exists.
func calculatorFor(spans []tariff.Span, ts time.Time) tariff.Calculator {
	for _, span := range spans {
		if !ts.Before(span.Start) && ts.Before(span.End) {
			return span.Calculator
		}
	}
	return spans[len(spans)-1].Calculator
}
