package marketdata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// TieredProvider serves prices from the local store and falls back to the
// remote provider for tickers with no local rows in the requested window.
// Remote results are persisted, so a ticker requested once becomes tracked
// and gets picked up by the scheduled sync from then on.
type TieredProvider struct {
	store  *PriceStore
	remote Provider
	log    zerolog.Logger
}

// NewTieredProvider creates a provider backed by the store with remote
// fallback. remote may be nil, in which case misses stay misses.
func NewTieredProvider(store *PriceStore, remote Provider, log zerolog.Logger) *TieredProvider {
	return &TieredProvider{
		store:  store,
		remote: remote,
		log:    log.With().Str("component", "tiered_provider").Logger(),
	}
}

// GetAdjustedCloses implements Provider.
func (p *TieredProvider) GetAdjustedCloses(ctx context.Context, tickers []string, startDate, endDate string) (map[string][]PricePoint, error) {
	local, err := p.store.GetAdjustedCloses(ctx, tickers, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to read local prices: %w", err)
	}

	var missing []string
	for _, ticker := range tickers {
		if len(local[ticker]) == 0 {
			missing = append(missing, ticker)
		}
	}
	if len(missing) == 0 || p.remote == nil {
		return local, nil
	}

	p.log.Info().
		Strs("tickers", missing).
		Str("start_date", startDate).
		Str("end_date", endDate).
		Msg("Fetching prices from remote provider")

	fetched, err := p.remote.GetAdjustedCloses(ctx, missing, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("remote price fetch failed: %w", err)
	}

	for ticker, points := range fetched {
		if len(points) == 0 {
			continue
		}
		if err := p.store.SavePrices(ticker, points); err != nil {
			p.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to persist fetched prices")
		}
		local[ticker] = points
	}

	return local, nil
}
