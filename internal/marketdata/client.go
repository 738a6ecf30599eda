package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wattbill-lab/wattbill/internal/storage"
)

// DefaultBaseURL is the Elia day-ahead auction results endpoint, serving
// quarter-hour prices per civil day.
const DefaultBaseURL = "https://griddata.elia.be/eliabecontrols.prod/interface/Interconnections/daily/auctionresultsqh"

const requestTimeout = 30 * time.Second

var wirePriceDivisor = decimal.NewFromInt(10)

// Client fetches day-ahead market prices from an upstream grid data API.
type Client interface {
	// DayAheadPrices returns the quarter-hour prices of one civil day in
	// c€/kWh, timestamps in the billing timezone.
	DayAheadPrices(ctx context.Context, day time.Time) ([]storage.DayAheadPrice, error)
}

// EliaClient implements Client against the Elia griddata API.
type EliaClient struct {
	baseURL string
	http    *http.Client
	loc     *time.Location
}

// NewEliaClient creates a client for the Elia day-ahead endpoint. Pass
// DefaultBaseURL outside of tests.
func NewEliaClient(baseURL string, loc *time.Location) *EliaClient {
	return &EliaClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		loc:     loc,
	}
}

// wirePoint is one quarter hour as served by the API: a UTC timestamp and a
// price in the exchange's €/MWh-derived convention, c€/kWh × 10.
type wirePoint struct {
	DateTime string      `json:"dateTime"`
	Price    json.Number `json:"price"`
}

// DayAheadPrices fetches and converts the auction results of one day.
func (c *EliaClient) DayAheadPrices(ctx context.Context, day time.Time) ([]storage.DayAheadPrice, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, day.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch day-ahead prices for %s: %w",
			day.Format("2006-01-02"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("day-ahead prices for %s: unexpected status %d",
			day.Format("2006-01-02"), resp.StatusCode)
	}

	var points []wirePoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("failed to decode day-ahead prices: %w", err)
	}

	prices := make([]storage.DayAheadPrice, 0, len(points))
	for _, p := range points {
		ts, err := time.Parse("2006-01-02T15:04:05Z", p.DateTime)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", p.DateTime, err)
		}

		price, err := decimal.NewFromString(p.Price.String())
		if err != nil {
			return nil, fmt.Errorf("invalid price %q at %s: %w", p.Price, p.DateTime, err)
		}

		prices = append(prices, storage.DayAheadPrice{
			Timestamp: ts.In(c.loc),
			Price:     price.Div(wirePriceDivisor),
		})
	}

	return prices, nil
}
