package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/wattbill-lab/wattbill/internal/core/cache"
	corecfg "github.com/wattbill-lab/wattbill/internal/core/config"
	"github.com/wattbill-lab/wattbill/internal/core/tariff"
	"github.com/wattbill-lab/wattbill/internal/marketdata"
	"github.com/wattbill-lab/wattbill/internal/migrations"
	"github.com/wattbill-lab/wattbill/internal/pricing"
	"github.com/wattbill-lab/wattbill/internal/readings"
	"github.com/wattbill-lab/wattbill/internal/server"
	"github.com/wattbill-lab/wattbill/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "wattbill.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("Failed to load billing timezone", "error", err)
		os.Exit(1)
	}
	flushInterval, err := cfg.CacheFlushInterval()
	if err != nil {
		slog.Error("Invalid cache flush interval", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Storage (PostgreSQL)
	store, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		loc,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(store.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Shared TTL cache
	ttlCache := cache.New()

	// 4. Tariff profiles, backed by cached market data
	marketData := pricing.NewCachedMarketData(store, ttlCache)
	profiles, err := tariff.LoadProfiles(cfg.Tariffs.ConfigDir, tariff.Deps{Market: marketData}, loc)
	if err != nil {
		slog.Error("Failed to load tariff profiles", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded tariff profiles", "count", len(profiles), "dir", cfg.Tariffs.ConfigDir)

	// 5. Services
	pricingSvc := pricing.NewService(profiles, store, pricing.NewCachedPeaks(store, ttlCache), ttlCache, loc)
	readingsSvc := readings.NewService(store, ttlCache, loc)

	// 6. Market price ingestion
	var priceScheduler *marketdata.Scheduler
	if cfg.Market.Enabled {
		updateInterval, err := cfg.MarketUpdateInterval()
		if err != nil {
			slog.Error("Invalid market update interval", "error", err)
			os.Exit(1)
		}
		client := marketdata.NewEliaClient(cfg.Market.BaseURL, loc)
		priceScheduler = marketdata.NewScheduler(updateInterval, marketdata.NewService(client, store, loc))
	} else {
		slog.Info("Market price ingestion disabled by config")
	}

	// 7. HTTP server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), store.DB(), cfg.Server.Mode)
	pricingSvc.RegisterRoutes(srv.Engine)
	readingsSvc.RegisterRoutes(srv.Engine)

	// 8. Start everything; first fatal error or signal tears the group down.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return srv.Run(groupCtx) })
	group.Go(func() error { return ttlCache.FlushEvery(groupCtx, flushInterval) })
	if priceScheduler != nil {
		group.Go(func() error { return priceScheduler.Start(groupCtx) })
	}

	if err := group.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
