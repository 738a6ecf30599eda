package timeseries

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/interp"
)

// Method selects the interpolation algorithm used by Resample.
type Method string

const (
	// MethodLinear connects samples with straight lines.
	MethodLinear Method = "linear"
	// MethodPCHIP is a shape-preserving piecewise cubic (Fritsch-Butland).
	MethodPCHIP Method = "pchip"
	// MethodAkima is an Akima spline.
	MethodAkima Method = "akima"
)

// ErrEmptySeries is returned when an operation requires at least one sample.
var ErrEmptySeries = errors.New("empty time series")

// ParseMethod validates an interpolation method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodLinear, MethodPCHIP, MethodAkima:
		return Method(s), nil
	default:
		return "", fmt.Errorf("unknown interpolation method %q (must be linear, pchip, or akima)", s)
	}
}

func newPredictor(method Method) (interp.FittablePredictor, error) {
	switch method {
	case MethodLinear:
		return &interp.PiecewiseLinear{}, nil
	case MethodPCHIP:
		return &interp.FritschButland{}, nil
	case MethodAkima:
		return &interp.AkimaSpline{}, nil
	default:
		return nil, fmt.Errorf("unknown interpolation method %q", method)
	}
}

// Resample turns an unordered list of samples into a regular series on the
// given frequency, covering the min-to-max timestamp span of the input.
//
// Samples falling into the same aligned bucket are deduplicated, keeping the
// last one in input order. Interior gaps are filled by the chosen method.
// Grid positions past the last real sample hold the last known value; values
// are never extrapolated beyond it.
func Resample(samples []Sample, freq time.Duration, method Method) ([]Sample, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySeries
	}
	if freq <= 0 {
		return nil, fmt.Errorf("resample frequency must be positive, got %s", freq)
	}

	unit := samples[0].Unit
	deduped := dedupeByBucket(samples, freq)

	first := deduped[0].Timestamp
	last := deduped[len(deduped)-1].Timestamp
	gridStart := ceilToFreq(first, freq)
	gridEnd := ceilToFreq(last, freq)

	if len(deduped) == 1 {
		return []Sample{{Timestamp: gridStart, Value: deduped[0].Value, Unit: unit}}, nil
	}

	xs := make([]float64, len(deduped))
	ys := make([]float64, len(deduped))
	for i, s := range deduped {
		xs[i] = toX(s.Timestamp)
		ys[i] = s.Value
	}

	predictor, err := newPredictor(method)
	if err != nil {
		return nil, err
	}
	if err := predictor.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fitting %s interpolator: %w", method, err)
	}

	lastValue := deduped[len(deduped)-1].Value

	var out []Sample
	for t := gridStart; !t.After(gridEnd); t = t.Add(freq) {
		value := lastValue
		if !t.After(last) {
			value = predictor.Predict(toX(t))
		}
		out = append(out, Sample{Timestamp: t, Value: value, Unit: unit})
	}

	return out, nil
}

// dedupeByBucket keeps the last sample in input order for every aligned
// bucket and returns the survivors sorted chronologically.
func dedupeByBucket(samples []Sample, freq time.Duration) []Sample {
	byBucket := make(map[time.Time]Sample, len(samples))
	for _, s := range samples {
		byBucket[s.Timestamp.Truncate(freq)] = s
	}

	out := make([]Sample, 0, len(byBucket))
	for _, s := range byBucket {
		out = append(out, s)
	}
	SortByTime(out)
	return out
}

func ceilToFreq(t time.Time, freq time.Duration) time.Time {
	truncated := t.Truncate(freq)
	if truncated.Before(t) {
		return truncated.Add(freq)
	}
	return truncated
}

func toX(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
