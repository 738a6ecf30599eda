// Package v1 defines the wire types of the public API.
package v1

import (
	"time"

	"github.com/wattbill-lab/wattbill/internal/core/tariff"
	"github.com/wattbill-lab/wattbill/internal/core/timeseries"
)

// PricePoint is one aggregation bucket of a price report.
type PricePoint struct {
	PeriodStart time.Time `json:"period_start"`
	tariff.Breakdown
}

// PriceResponse is the result of a price query over one profile and range.
type PriceResponse struct {
	Profile     string       `json:"profile"`
	Granularity string       `json:"granularity"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Points      []PricePoint `json:"points"`
}

// SimulateRequest prices a hypothetical load curve. Samples carry power in W;
// Method selects the interpolation used to resample them onto the billing
// grid.
type SimulateRequest struct {
	Method  string              `json:"method"`
	Samples []timeseries.Sample `json:"samples" binding:"required"`
}

// SimulateResponse mirrors PriceResponse with a run identifier so simulations
// can be referenced in logs.
type SimulateResponse struct {
	ID          string       `json:"id"`
	Profile     string       `json:"profile"`
	Granularity string       `json:"granularity"`
	Points      []PricePoint `json:"points"`
}
