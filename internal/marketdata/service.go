package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wattbill-lab/wattbill/internal/storage"
)

// backfillHorizonDays bounds the initial backfill when the price table is
// empty. The upstream API serves roughly six weeks of history.
const backfillHorizonDays = 40

// Service ingests day-ahead prices into the market store.
type Service struct {
	client Client
	store  storage.MarketStore
	loc    *time.Location
	nowFn  func() time.Time
}

// NewService creates the ingestion service. loc is the billing timezone used
// for civil-day arithmetic.
func NewService(client Client, store storage.MarketStore, loc *time.Location) *Service {
	return &Service{
		client: client,
		store:  store,
		loc:    loc,
		nowFn:  time.Now,
	}
}

// UpdateGridPrices backfills day-ahead prices day by day, from the day after
// the last persisted one (or the backfill horizon when the table is empty)
// through tomorrow. Each day is persisted before the next is fetched, so a
// failure mid-run leaves the watermark at the last complete day and the next
// run resumes there.
func (s *Service) UpdateGridPrices(ctx context.Context) error {
	today := s.today()

	from, err := s.resumeDay(ctx, today)
	if err != nil {
		return err
	}
	to := today.AddDate(0, 0, 1)

	if from.After(to) {
		slog.Debug("[MarketData] Day-ahead prices up to date")
		return nil
	}

	slog.Info("[MarketData] Updating day-ahead prices",
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"))

	days := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		prices, err := s.client.DayAheadPrices(ctx, day)
		if err != nil {
			return fmt.Errorf("fetching day %s: %w", day.Format("2006-01-02"), err)
		}

		if err := s.store.SaveDayAheadPrices(ctx, prices); err != nil {
			return fmt.Errorf("persisting day %s: %w", day.Format("2006-01-02"), err)
		}
		days++
	}

	slog.Info("[MarketData] Day-ahead prices updated", "days", days)
	return nil
}

// resumeDay returns the first day to fetch: the day after the watermark,
// or today minus the backfill horizon when no prices exist yet.
func (s *Service) resumeDay(ctx context.Context, today time.Time) (time.Time, error) {
	lastDay, err := s.store.LastDayAheadDay(ctx)
	if errors.Is(err, storage.ErrNoData) {
		return today.AddDate(0, 0, -backfillHorizonDays), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading ingestion watermark: %w", err)
	}
	return lastDay.AddDate(0, 0, 1), nil
}

func (s *Service) today() time.Time {
	now := s.nowFn().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
