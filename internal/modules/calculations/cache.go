// Package calculations provides a persistent TTL cache for derived
// analytics results. Values are serialized with msgpack and stored in a
// SQLite database opened with the cache profile, so repeated analyses of
// the same portfolio and window skip the full computation pipeline.
package calculations

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/KeithMadison/investment-portfolio/internal/database"
)

// Cache stores msgpack-encoded results keyed by a content hash.
type Cache struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCache creates the cache and its backing table.
func NewCache(db *database.DB, log zerolog.Logger) (*Cache, error) {
	c := &Cache{
		db:  db,
		log: log.With().Str("component", "calculations_cache").Logger(),
	}
	if err := c.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	_, err := c.db.Conn().Exec(`
		CREATE TABLE IF NOT EXISTS calculation_cache (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_calculation_cache_expires
			ON calculation_cache(expires_at);
	`)
	return err
}

// Key builds a deterministic cache key from the given parts. Parts that
// identify a computation (portfolio assets, window, frequency, parameters)
// must all be included; the order of parts is significant.
func Key(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

// Get loads the cached value for key into dest. It reports false when the
// key is absent or expired.
func (c *Cache) Get(key string, dest interface{}) (bool, error) {
	var blob []byte
	err := c.db.Conn().QueryRow(
		`SELECT value FROM calculation_cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().Unix(),
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if err := msgpack.Unmarshal(blob, dest); err != nil {
		// A decode failure means the stored shape no longer matches the
		// caller's type. Treat it as a miss and drop the entry.
		c.log.Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache entry")
		_ = c.Invalidate(key)
		return false, nil
	}
	return true, nil
}

// Set stores value under key for the given lifetime.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) error {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	_, err = c.db.Conn().Exec(
		`INSERT INTO calculation_cache (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, blob, time.Now().Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(key string) error {
	_, err := c.db.Conn().Exec(`DELETE FROM calculation_cache WHERE key = ?`, key)
	return err
}

// Purge deletes all expired entries and returns how many were removed.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Conn().Exec(
		`DELETE FROM calculation_cache WHERE expires_at <= ?`, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		c.log.Debug().Int64("removed", removed).Msg("Purged expired cache entries")
	}
	return removed, nil
}
