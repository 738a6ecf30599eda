package pricing

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidQuery marks a malformed price query (unknown profile, inverted
// range, unknown granularity).
var ErrInvalidQuery = errors.New("invalid price query")

// Granularity selects the civil-calendar bucket size of a price report.
type Granularity string

const (
	GranularityHourly  Granularity = "hourly"
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// ParseGranularity validates a granularity name. Empty defaults to daily.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityHourly, GranularityDaily, GranularityMonthly:
		return Granularity(s), nil
	case "":
		return GranularityDaily, nil
	default:
		return "", fmt.Errorf("%w: unknown granularity %q", ErrInvalidQuery, s)
	}
}

// bucketStart maps a timestamp onto the start of its bucket in the billing
// timezone. Buckets follow civil boundaries, so daylight saving transitions
// yield 23- and 25-hour days rather than shifted buckets.
func (g Granularity) bucketStart(ts time.Time, loc *time.Location) time.Time {
	local := ts.In(loc)
	switch g {
	case GranularityHourly:
		return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	case GranularityMonthly:
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	}
}
