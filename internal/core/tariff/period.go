package tariff

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoTariff marks a requested date for which no tariff period is
// registered. Resolution never falls back to another period's calculator.
var ErrNoTariff = errors.New("no tariff defined")

// Period binds a half-open civil date range [Start, End) to one calculator.
type Period struct {
	Start      time.Time
	End        time.Time
	Calculator Calculator
}

func (p Period) contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Span is one resolved sub-range of a request, clipped to a single period.
type Span struct {
	Start      time.Time
	End        time.Time
	Calculator Calculator
}

// Registry holds the non-overlapping tariff periods of one price profile.
type Registry struct {
	profile string
	periods []Period
}

// NewRegistry validates and sorts the periods of a profile.
func NewRegistry(profile string, periods []Period) (*Registry, error) {
	sorted := make([]Period, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	for i, p := range sorted {
		if !p.End.After(p.Start) {
			return nil, fmt.Errorf("profile %q: period end %s must be after start %s",
				profile, p.End.Format("2006-01-02"), p.Start.Format("2006-01-02"))
		}
		if p.Calculator == nil {
			return nil, fmt.Errorf("profile %q: period starting %s has no calculator",
				profile, p.Start.Format("2006-01-02"))
		}
		if i > 0 && sorted[i-1].End.After(p.Start) {
			return nil, fmt.Errorf("profile %q: periods %s and %s overlap",
				profile, sorted[i-1].Start.Format("2006-01-02"), p.Start.Format("2006-01-02"))
		}
	}

	return &Registry{profile: profile, periods: sorted}, nil
}

// Profile returns the profile name this registry belongs to.
func (r *Registry) Profile() string {
	return r.profile
}

// Resolve partitions [start, end) at every period boundary inside the range
// and returns the covering spans in chronological order. A sub-range not
// covered by any period resolves to ErrNoTariff naming the year. Zero-length
// sub-ranges are skipped.
func (r *Registry) Resolve(start, end time.Time) ([]Span, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	boundaries := []time.Time{start, end}
	for _, p := range r.periods {
		if p.Start.After(start) && p.Start.Before(end) {
			boundaries = append(boundaries, p.Start)
		}
		if p.End.After(start) && p.End.Before(end) {
			boundaries = append(boundaries, p.End)
		}
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].Before(boundaries[j]) })

	var spans []Span
	for i := 0; i+1 < len(boundaries); i++ {
		subStart, subEnd := boundaries[i], boundaries[i+1]
		if !subEnd.After(subStart) {
			continue
		}

		period := r.periodContaining(subStart)
		if period == nil {
			return nil, fmt.Errorf("%w for year %d in profile %q", ErrNoTariff, subStart.Year(), r.profile)
		}

		spans = append(spans, Span{Start: subStart, End: subEnd, Calculator: period.Calculator})
	}

	return spans, nil
}

func (r *Registry) periodContaining(t time.Time) *Period {
	for i := range r.periods {
		if r.periods[i].contains(t) {
			return &r.periods[i]
		}
	}
	return nil
}
