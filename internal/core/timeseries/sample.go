package timeseries

import (
	"sort"
	"time"
)

// Sample is a single timestamped measurement. The unit is carried for display
// only and never participates in arithmetic.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
}

// SortByTime orders samples chronologically in place.
func SortByTime(samples []Sample) {
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
}
