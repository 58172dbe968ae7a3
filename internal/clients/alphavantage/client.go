// Package alphavantage provides a client for the Alpha Vantage market data
// API. The free tier allows 25 requests per day, so the client enforces the
// quota locally and caches responses in memory.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/marketdata"
)

const (
	baseURL       = "https://www.alphavantage.co/query"
	dailyRequests = 25
)

// ErrRateLimitExceeded is returned when the daily request quota is used up.
type ErrRateLimitExceeded struct{}

func (e ErrRateLimitExceeded) Error() string {
	return "alpha vantage rate limit exceeded (25 requests/day)"
}

// ErrInvalidAPIKey is returned when the API rejects the configured key.
type ErrInvalidAPIKey struct{}

func (e ErrInvalidAPIKey) Error() string {
	return "invalid alpha vantage API key"
}

// ErrSymbolNotFound is returned when the API has no data for a symbol.
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Symbol)
}

// DailyPrice is one daily bar of the adjusted time series.
type DailyPrice struct {
	Date          time.Time
	Open          float64
	High          float64
	Low           float64
	Close         float64
	AdjustedClose float64
	Volume        int64
}

// ClientInterface is the surface consumed by the rest of the system.
type ClientInterface interface {
	GetDailyAdjusted(ctx context.Context, symbol string) ([]DailyPrice, error)
	GetAdjustedCloses(ctx context.Context, tickers []string, startDate, endDate string) (map[string][]marketdata.PricePoint, error)
	GetRemainingRequests() int
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// Client is a rate-limited, caching Alpha Vantage API client.
type Client struct {
	apiKey     string
	httpClient *http.Client
	endpoint   string
	log        zerolog.Logger

	mu           sync.Mutex
	requestCount int
	resetAt      time.Time
	cache        map[string]cacheEntry
	cacheTTL     time.Duration
}

// NewClient creates a new Alpha Vantage client.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   baseURL,
		log:        log.With().Str("component", "alphavantage").Logger(),
		resetAt:    nextMidnightUTC(),
		cache:      make(map[string]cacheEntry),
		cacheTTL:   15 * time.Minute,
	}
}

// GetRemainingRequests returns how many requests remain in today's quota.
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()
	return dailyRequests - c.requestCount
}

// ResetDailyCounter resets the request counter immediately.
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount = 0
	c.resetAt = nextMidnightUTC()
}

// ClearCache empties the response cache.
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// SetCacheTTL overrides the default response cache lifetime.
func (c *Client) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheTTL = ttl
}

// checkRateLimit consumes one request from the daily quota.
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()
	if c.requestCount >= dailyRequests {
		return ErrRateLimitExceeded{}
	}
	c.requestCount++
	return nil
}

func (c *Client) maybeResetLocked() {
	if time.Now().UTC().After(c.resetAt) {
		c.requestCount = 0
		c.resetAt = nextMidnightUTC()
	}
}

func (c *Client) setCache(key string, data interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{data: data, expiresAt: time.Now().Add(ttl)}
}

func (c *Client) getFromCache(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

// buildCacheKey builds a deterministic cache key from the API function and
// its parameters. The API key is never part of the cache key.
func buildCacheKey(function string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "apikey" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(function)
	for _, k := range keys {
		sb.WriteString("|")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(params[k])
	}
	return sb.String()
}

// checkAPIError detects the error shapes Alpha Vantage hides inside 200
// responses: rate-limit notes, error messages, and plain-text throttle
// pages.
func (c *Client) checkAPIError(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		// Throttled requests get an HTML/text "thank you" page.
		return ErrRateLimitExceeded{}
	}

	var probe struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	switch {
	case probe.Note != "":
		return ErrRateLimitExceeded{}
	case strings.Contains(probe.Information, "API key"):
		return ErrInvalidAPIKey{}
	case probe.Information != "":
		return ErrRateLimitExceeded{}
	case probe.ErrorMessage != "":
		return fmt.Errorf("alpha vantage error: %s", probe.ErrorMessage)
	}
	return nil
}

// GetDailyAdjusted fetches the full adjusted daily series for a symbol,
// newest first.
func (c *Client) GetDailyAdjusted(ctx context.Context, symbol string) ([]DailyPrice, error) {
	params := map[string]string{
		"symbol":     symbol,
		"outputsize": "full",
	}
	cacheKey := buildCacheKey("TIME_SERIES_DAILY_ADJUSTED", params)
	if cached, ok := c.getFromCache(cacheKey); ok {
		return cached.([]DailyPrice), nil
	}

	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	query.Set("symbol", symbol)
	query.Set("outputsize", "full")
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := c.checkAPIError(body); err != nil {
		return nil, err
	}

	prices, err := parseDailyAdjusted(body)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("bars", len(prices)).
		Msg("Fetched daily adjusted series")

	c.setCache(cacheKey, prices, c.cacheTTL)
	return prices, nil
}

// GetAdjustedCloses implements marketdata.Provider: adjusted closes for
// each ticker within [startDate, endDate], sorted by date ascending.
func (c *Client) GetAdjustedCloses(ctx context.Context, tickers []string, startDate, endDate string) (map[string][]marketdata.PricePoint, error) {
	out := make(map[string][]marketdata.PricePoint, len(tickers))
	for _, ticker := range tickers {
		prices, err := c.GetDailyAdjusted(ctx, ticker)
		if err != nil {
			var notFound ErrSymbolNotFound
			if errors.As(err, &notFound) {
				return nil, domain.MissingDataError{Ticker: ticker}
			}
			return nil, fmt.Errorf("failed to fetch %s: %w", ticker, err)
		}

		points := make([]marketdata.PricePoint, 0, len(prices))
		for _, p := range prices {
			date := p.Date.Format(domain.DateFormat)
			if date < startDate || date > endDate {
				continue
			}
			points = append(points, marketdata.PricePoint{Date: date, AdjClose: p.AdjustedClose})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
		out[ticker] = points
	}
	return out, nil
}

// parseDailyAdjusted parses a TIME_SERIES_DAILY_ADJUSTED response into
// bars sorted newest first.
func parseDailyAdjusted(body []byte) ([]DailyPrice, error) {
	var response struct {
		TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse daily series: %w", err)
	}

	prices := make([]DailyPrice, 0, len(response.TimeSeries))
	for date, bar := range response.TimeSeries {
		prices = append(prices, DailyPrice{
			Date:          parseDate(date),
			Open:          parseFloat64(bar["1. open"]),
			High:          parseFloat64(bar["2. high"]),
			Low:           parseFloat64(bar["3. low"]),
			Close:         parseFloat64(bar["4. close"]),
			AdjustedClose: parseFloat64(bar["5. adjusted close"]),
			Volume:        parseInt64(bar["6. volume"]),
		})
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].Date.After(prices[j].Date) })
	return prices, nil
}

// parseFloat64 parses Alpha Vantage's assorted numeric encodings; absent
// and placeholder values come back as 0.
func parseFloat64(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" || s == "None" || s == "null" || s == "-" || s == "." {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt64(s string) int64 {
	return int64(parseFloat64(s))
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(domain.DateFormat, s)
	return t
}

func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
