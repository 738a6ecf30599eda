package marketdata

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs the price ingestion on a periodic interval. It is
// stateless: each tick independently resumes from the persisted watermark,
// so a failed run is simply retried on the next tick.
type Scheduler struct {
	interval time.Duration
	service  *Service
}

// NewScheduler creates a periodic runner for the ingestion service.
func NewScheduler(interval time.Duration, service *Service) *Scheduler {
	return &Scheduler{interval: interval, service: service}
}

// Start begins periodic ingestion. Runs until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[MarketData] Starting price ingestion scheduler", "interval", s.interval)

	// Run immediately to catch up with any backlog.
	s.run(ctx)

	for {
		select {
		case <-ticker.C:
			s.run(ctx)
		case <-ctx.Done():
			slog.Info("[MarketData] Stopping price ingestion scheduler (context cancelled)")
			return nil
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if err := s.service.UpdateGridPrices(ctx); err != nil {
		slog.Error("[MarketData] Price ingestion failed, will retry next tick", "error", err)
	}
}
