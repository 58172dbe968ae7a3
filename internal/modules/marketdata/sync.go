package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SyncService refreshes the local price store from the remote provider on a
// cron schedule. Each tracked ticker is fetched from the day after its
// latest stored observation.
type SyncService struct {
	store  *PriceStore
	remote Provider
	cron   *cron.Cron
	log    zerolog.Logger
}

// NewSyncService creates a new price sync service
func NewSyncService(store *PriceStore, remote Provider, log zerolog.Logger) *SyncService {
	return &SyncService{
		store:  store,
		remote: remote,
		log:    log.With().Str("service", "price_sync").Logger(),
	}
}

// RunOnce refreshes every tracked ticker. Per-ticker failures are logged
// and skipped so one bad symbol does not starve the rest.
func (s *SyncService) RunOnce(ctx context.Context) error {
	if s.remote == nil {
		s.log.Debug().Msg("No remote provider configured, nothing to sync")
		return nil
	}

	tickers, err := s.store.Tickers()
	if err != nil {
		return fmt.Errorf("failed to list tracked tickers: %w", err)
	}
	if len(tickers) == 0 {
		s.log.Debug().Msg("No tracked tickers, nothing to sync")
		return nil
	}

	today := time.Now().UTC().Format("2006-01-02")
	synced := 0

	for _, ticker := range tickers {
		latest, err := s.store.LatestDate(ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to get latest stored date")
			continue
		}

		start := "1970-01-01"
		if latest != "" {
			t, err := time.Parse("2006-01-02", latest)
			if err == nil {
				start = t.AddDate(0, 0, 1).Format("2006-01-02")
			}
		}
		if start > today {
			continue
		}

		series, err := s.remote.GetAdjustedCloses(ctx, []string{ticker}, start, today)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to fetch prices")
			continue
		}

		if err := s.store.SavePrices(ticker, series[ticker]); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to save prices")
			continue
		}
		synced++
	}

	s.log.Info().
		Int("tickers_synced", synced).
		Int("tickers_tracked", len(tickers)).
		Msg("Price sync complete")

	return nil
}

// Track ensures a ticker has local history, backfilling from the remote
// provider when the store has no rows for it.
func (s *SyncService) Track(ctx context.Context, ticker, startDate string) error {
	latest, err := s.store.LatestDate(ticker)
	if err != nil {
		return err
	}
	if latest != "" {
		return nil // already tracked
	}

	today := time.Now().UTC().Format("2006-01-02")
	series, err := s.remote.GetAdjustedCloses(ctx, []string{ticker}, startDate, today)
	if err != nil {
		return fmt.Errorf("failed to backfill %s: %w", ticker, err)
	}
	return s.store.SavePrices(ticker, series[ticker])
}

// Start schedules the refresh job. The schedule uses the standard 5-field
// cron syntax.
func (s *SyncService) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error().Err(err).Msg("Scheduled price sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule price sync: %w", err)
	}

	c.Start()
	s.cron = c
	s.log.Info().Str("schedule", schedule).Msg("Price sync scheduled")
	return nil
}

// Stop halts the cron scheduler.
func (s *SyncService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
