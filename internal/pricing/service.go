package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	v1 "github.com/wattbill-lab/wattbill/internal/api/v1"
	"github.com/wattbill-lab/wattbill/internal/core/cache"
	"github.com/wattbill-lab/wattbill/internal/core/tariff"
	"github.com/wattbill-lab/wattbill/internal/storage"
)

// billingBucket is the resolution of metered energy and of all proration
// arithmetic.
const billingBucket = 15 * time.Minute

// Service prices metered energy over tariff periods and aggregates the
// breakdowns into civil-calendar buckets.
type Service struct {
	profiles map[string]*tariff.Registry
	meters   storage.MeterStore
	peaks    tariff.PeakProvider
	cache    *cache.Cache
	loc      *time.Location
}

// NewService creates the price aggregation engine. peaks is typically a
// CachedPeaks wrapper; the calculators inside profiles carry their own
// market data source.
func NewService(
	profiles map[string]*tariff.Registry,
	meters storage.MeterStore,
	peaks tariff.PeakProvider,
	c *cache.Cache,
	loc *time.Location,
) *Service {
	return &Service{
		profiles: profiles,
		meters:   meters,
		peaks:    peaks,
		cache:    c,
		loc:      loc,
	}
}

// AggregatedPrice prices every metered quarter hour in [start, end) under
// the profile's tariff periods and groups the breakdowns by granularity.
// Ranges without any metered data return ErrNoData; ranges not fully covered
// by tariff periods return ErrNoTariff.
func (s *Service) AggregatedPrice(ctx context.Context, profile string, start, end time.Time, granularity Granularity) (v1.PriceResponse, error) {
	if end.Before(start) {
		return v1.PriceResponse{}, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidQuery, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	registry, ok := s.profiles[profile]
	if !ok {
		return v1.PriceResponse{}, fmt.Errorf("%w: unknown profile %q", ErrInvalidQuery, profile)
	}

	spans, err := registry.Resolve(start, end)
	if err != nil {
		return v1.PriceResponse{}, err
	}

	buckets := make(map[time.Time]tariff.Breakdown)
	priced := 0

	for _, span := range spans {
		intervals, err := s.intervalsCached(ctx, span.Start, span.End)
		if errors.Is(err, storage.ErrNoData) {
			continue
		}
		if err != nil {
			return v1.PriceResponse{}, err
		}

		for _, iv := range intervals {
			breakdown, err := tariff.CalculatePrice(ctx, span.Calculator, s.peaks, iv, billingBucket)
			if err != nil {
				return v1.PriceResponse{}, fmt.Errorf("pricing bucket %s: %w",
					iv.BucketStart.Format(time.RFC3339), err)
			}

			key := granularity.bucketStart(iv.BucketStart, s.loc)
			buckets[key] = buckets[key].Add(breakdown)
			priced++
		}
	}

	if priced == 0 {
		return v1.PriceResponse{}, storage.ErrNoData
	}

	slog.Debug("[Pricing] Aggregated price computed",
		"profile", profile,
		"granularity", granularity,
		"intervals", priced,
		"buckets", len(buckets))

	return v1.PriceResponse{
		Profile:     profile,
		Granularity: string(granularity),
		Start:       start,
		End:         end,
		Points:      sortedPoints(buckets),
	}, nil
}

// MonthlyPrice prices a range at monthly granularity.
func (s *Service) MonthlyPrice(ctx context.Context, profile string, start, end time.Time) (v1.PriceResponse, error) {
	return s.AggregatedPrice(ctx, profile, start, end, GranularityMonthly)
}

// DailyPrice prices a range at daily granularity.
func (s *Service) DailyPrice(ctx context.Context, profile string, start, end time.Time) (v1.PriceResponse, error) {
	return s.AggregatedPrice(ctx, profile, start, end, GranularityDaily)
}

// HourlyPrice prices a range at hourly granularity.
func (s *Service) HourlyPrice(ctx context.Context, profile string, start, end time.Time) (v1.PriceResponse, error) {
	return s.AggregatedPrice(ctx, profile, start, end, GranularityHourly)
}

// intervalsCached memoizes meter interval fetches per resolved span.
func (s *Service) intervalsCached(ctx context.Context, start, end time.Time) ([]tariff.Interval, error) {
	key := cache.KeyOf("pricing.energy_intervals",
		cache.Arg{Name: "start", Value: start.UTC().Format(time.RFC3339)},
		cache.Arg{Name: "end", Value: end.UTC().Format(time.RFC3339)},
	)
	return cache.GetOrCompute(s.cache, key, intervalsTTL, func() ([]tariff.Interval, error) {
		return s.meters.EnergyIntervals(ctx, start, end)
	})
}

func sortedPoints(buckets map[time.Time]tariff.Breakdown) []v1.PricePoint {
	points := make([]v1.PricePoint, 0, len(buckets))
	for periodStart, breakdown := range buckets {
		points = append(points, v1.PricePoint{PeriodStart: periodStart, Breakdown: breakdown})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].PeriodStart.Before(points[j].PeriodStart)
	})
	return points
}
