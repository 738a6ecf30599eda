package timeseries

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// PeriodStats is a statistical summary of a series over its time span.
type PeriodStats struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Unit   string    `json:"unit"`
	Q25    float64   `json:"q25"`
	Q50    float64   `json:"q50"`
	Q75    float64   `json:"q75"`
	StdDev float64   `json:"stddev"`
	Sum    float64   `json:"sum"`
}

// Stats summarizes a series: quartiles, standard deviation and sum.
// The input does not need to be ordered. An empty series is an error.
func Stats(samples []Sample) (PeriodStats, error) {
	if len(samples) == 0 {
		return PeriodStats{}, ErrEmptySeries
	}

	values := make([]float64, len(samples))
	start := samples[0].Timestamp
	end := samples[0].Timestamp
	sum := 0.0

	for i, s := range samples {
		values[i] = s.Value
		sum += s.Value
		if s.Timestamp.Before(start) {
			start = s.Timestamp
		}
		if s.Timestamp.After(end) {
			end = s.Timestamp
		}
	}

	sort.Float64s(values)

	return PeriodStats{
		Start:  start,
		End:    end,
		Unit:   samples[0].Unit,
		Q25:    stat.Quantile(0.25, stat.Empirical, values, nil),
		Q50:    stat.Quantile(0.5, stat.Empirical, values, nil),
		Q75:    stat.Quantile(0.75, stat.Empirical, values, nil),
		StdDev: stat.StdDev(values, nil),
		Sum:    sum,
	}, nil
}
