package marketdata

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
)

// PriceStore provides access to locally persisted daily price data. It
// implements Provider, so analyses can run against the local history
// without touching the remote data vendor.
type PriceStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceStore creates a new price store accessor
func NewPriceStore(db *sql.DB, log zerolog.Logger) *PriceStore {
	return &PriceStore{
		db:  db,
		log: log.With().Str("component", "price_store").Logger(),
	}
}

// InitSchema creates the daily_prices table if it does not exist.
func (s *PriceStore) InitSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS daily_prices (
			ticker    TEXT NOT NULL,
			date      TEXT NOT NULL,
			adj_close REAL NOT NULL,
			PRIMARY KEY (ticker, date)
		);
		CREATE INDEX IF NOT EXISTS idx_daily_prices_date ON daily_prices(date);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create daily_prices schema: %w", err)
	}
	return nil
}

// SavePrices upserts price points for a ticker.
func (s *PriceStore) SavePrices(ticker string, points []PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (ticker, date, adj_close)
		VALUES (?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET adj_close = excluded.adj_close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(ticker, p.Date, p.AdjClose); err != nil {
			return fmt.Errorf("failed to upsert price for %s on %s: %w", ticker, p.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price upsert: %w", err)
	}

	s.log.Debug().
		Str("ticker", ticker).
		Int("num_points", len(points)).
		Msg("Saved daily prices")

	return nil
}

// GetAdjustedCloses implements Provider over the local price history.
// Tickers with no rows in range come back as empty slices; the table
// builder turns those into MissingDataError.
func (s *PriceStore) GetAdjustedCloses(ctx context.Context, tickers []string, startDate, endDate string) (map[string][]PricePoint, error) {
	result := make(map[string][]PricePoint, len(tickers))

	query := `
		SELECT date, adj_close
		FROM daily_prices
		WHERE ticker = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	for _, ticker := range tickers {
		rows, err := s.db.QueryContext(ctx, query, ticker, startDate, endDate)
		if err != nil {
			return nil, fmt.Errorf("failed to query prices for %s: %w", ticker, err)
		}

		var points []PricePoint
		for rows.Next() {
			var p PricePoint
			if err := rows.Scan(&p.Date, &p.AdjClose); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan price for %s: %w", ticker, err)
			}
			points = append(points, p)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error iterating prices for %s: %w", ticker, err)
		}
		rows.Close()

		result[ticker] = points
	}

	return result, nil
}

// Tickers returns the distinct tickers present in the store.
func (s *PriceStore) Tickers() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT ticker FROM daily_prices ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}

	return tickers, nil
}

// LatestDate returns the most recent stored date for a ticker, or empty
// string when the ticker has no rows.
func (s *PriceStore) LatestDate(ticker string) (string, error) {
	var date sql.NullString
	err := s.db.QueryRow(`SELECT MAX(date) FROM daily_prices WHERE ticker = ?`, ticker).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest date for %s: %w", ticker, err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}
