// Package main is the entry point for the portfolio analytics service.
// It wires the price store, market data provider, and analytics modules
// together and serves them over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KeithMadison/investment-portfolio/internal/clients/alphavantage"
	"github.com/KeithMadison/investment-portfolio/internal/config"
	"github.com/KeithMadison/investment-portfolio/internal/database"
	"github.com/KeithMadison/investment-portfolio/internal/modules/analysis"
	analysishandlers "github.com/KeithMadison/investment-portfolio/internal/modules/analysis/handlers"
	"github.com/KeithMadison/investment-portfolio/internal/modules/calculations"
	"github.com/KeithMadison/investment-portfolio/internal/modules/marketdata"
	"github.com/KeithMadison/investment-portfolio/internal/modules/performance"
	"github.com/KeithMadison/investment-portfolio/internal/modules/reports"
	reporthandlers "github.com/KeithMadison/investment-portfolio/internal/modules/reports/handlers"
	"github.com/KeithMadison/investment-portfolio/internal/modules/returns"
	"github.com/KeithMadison/investment-portfolio/internal/modules/risk"
	riskhandlers "github.com/KeithMadison/investment-portfolio/internal/modules/risk/handlers"
	"github.com/KeithMadison/investment-portfolio/internal/server"
	"github.com/KeithMadison/investment-portfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting portfolio analytics service")

	// Databases
	pricesDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "prices.db"),
		Profile: database.ProfileStandard,
		Name:    "prices",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open prices database")
	}
	defer pricesDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	// Market data
	store := marketdata.NewPriceStore(pricesDB.Conn(), log)
	if err := store.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price store schema")
	}

	var remote marketdata.Provider
	if cfg.AlphaVantageAPIKey != "" {
		remote = alphavantage.NewClient(cfg.AlphaVantageAPIKey, log)
	} else {
		log.Warn().Msg("No Alpha Vantage API key configured, serving local prices only")
	}

	syncService := marketdata.NewSyncService(store, remote, log)
	if remote != nil {
		if err := syncService.Start(cfg.PriceSyncSchedule); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule price sync")
		}
		defer syncService.Stop()
	}

	provider := marketdata.NewTieredProvider(store, remote, log)

	// Analytics services
	calculator := returns.NewCalculator(log)
	performanceService := performance.NewService(log)
	riskService := risk.NewService(log)

	calcCache, err := calculations.NewCache(cacheDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize calculation cache")
	}

	analysisService := analysis.NewService(
		provider,
		calculator,
		performanceService,
		riskService,
		calcCache,
		analysis.Defaults{
			RiskFreeRate:      cfg.RiskFreeRate,
			CVaRAlpha:         cfg.CVaRAlpha,
			InitialInvestment: cfg.InitialInvestment,
		},
		log,
	)

	var archiver reports.Archiver
	if cfg.S3Bucket != "" {
		s3Archiver, err := reports.NewS3Archiver(context.Background(), reports.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 report archiver")
		}
		archiver = s3Archiver
	}
	reportService := reports.NewService(archiver, log)

	// HTTP server
	srv := server.New(server.Config{
		Log:      log,
		Config:   cfg,
		PricesDB: pricesDB,
		CacheDB:  cacheDB,
		Store:    store,
		Sync:     syncService,
		RiskHandler: riskhandlers.NewHandler(
			provider, calculator, riskService,
			cfg.RiskFreeRate, cfg.CVaRAlpha, log,
		),
		AnalysisHandler: analysishandlers.NewHandler(analysisService, log),
		ReportHandler:   reporthandlers.NewHandler(analysisService, reportService, log),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
