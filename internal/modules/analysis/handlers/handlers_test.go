package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KeithMadison/investment-portfolio/internal/modules/analysis"
	"github.com/KeithMadison/investment-portfolio/internal/modules/marketdata"
	"github.com/KeithMadison/investment-portfolio/internal/modules/performance"
	"github.com/KeithMadison/investment-portfolio/internal/modules/returns"
	"github.com/KeithMadison/investment-portfolio/internal/modules/risk"
)

type fakeProvider struct {
	series map[string][]marketdata.PricePoint
}

func (f *fakeProvider) GetAdjustedCloses(_ context.Context, tickers []string, startDate, endDate string) (map[string][]marketdata.PricePoint, error) {
	out := make(map[string][]marketdata.PricePoint)
	for _, ticker := range tickers {
		for _, p := range f.series[ticker] {
			if p.Date >= startDate && p.Date <= endDate {
				out[ticker] = append(out[ticker], p)
			}
		}
	}
	return out, nil
}

func monthEndSeries(prices []float64) []marketdata.PricePoint {
	dates := []string{
		"2023-01-31", "2023-02-28", "2023-03-31",
		"2023-04-28", "2023-05-31", "2023-06-30",
	}
	points := make([]marketdata.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = marketdata.PricePoint{Date: dates[i], AdjClose: p}
	}
	return points
}

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()

	provider := &fakeProvider{series: map[string][]marketdata.PricePoint{
		"AAA": monthEndSeries([]float64{100, 104, 101, 107, 103, 110}),
		"BBB": monthEndSeries([]float64{50, 49, 52, 51, 53, 50}),
	}}

	service := analysis.NewService(
		provider,
		returns.NewCalculator(zerolog.Nop()),
		performance.NewService(zerolog.Nop()),
		risk.NewService(zerolog.Nop()),
		nil,
		analysis.Defaults{RiskFreeRate: 0.02, CVaRAlpha: 0.05, InitialInvestment: 10000},
		zerolog.Nop(),
	)
	return NewHandler(service, zerolog.Nop())
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func portfolioBody() map[string]interface{} {
	return map[string]interface{}{
		"assets": []map[string]interface{}{
			{"ticker": "AAA", "weight": 0.6},
			{"ticker": "BBB", "weight": 0.4},
		},
		"start_date": "2023-01-01",
		"end_date":   "2023-06-30",
		"frequency":  "1mo",
	}
}

func TestHandleAnalyze(t *testing.T) {
	h := setupTestHandler(t)

	rec := postJSON(t, h.HandleAnalyze, portfolioBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data analysis.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	assert.NotEmpty(t, envelope.Data.ID)
	require.NotNil(t, envelope.Data.Risk)
	require.NotNil(t, envelope.Data.Performance)
	assert.Equal(t, 10000.0, envelope.Data.Performance.InitialInvestment)
}

func TestHandleAnalyzeBadRequest(t *testing.T) {
	h := setupTestHandler(t)

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("not json")))
		rec := httptest.NewRecorder()
		h.HandleAnalyze(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad frequency", func(t *testing.T) {
		body := portfolioBody()
		body["frequency"] = "fortnightly"
		rec := postJSON(t, h.HandleAnalyze, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		body := portfolioBody()
		body["assets"] = []map[string]interface{}{{"ticker": "ZZZ", "weight": 1.0}}
		rec := postJSON(t, h.HandleAnalyze, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleCompare(t *testing.T) {
	h := setupTestHandler(t)

	balanced := portfolioBody()
	balanced["name"] = "balanced"
	aggressive := portfolioBody()
	aggressive["name"] = "aggressive"
	aggressive["assets"] = []map[string]interface{}{
		{"ticker": "AAA", "weight": 0.9},
		{"ticker": "BBB", "weight": 0.1},
	}

	rec := postJSON(t, h.HandleCompare, map[string]interface{}{
		"portfolios": []map[string]interface{}{balanced, aggressive},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []analysis.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "balanced", envelope.Data[0].Name)
	assert.Equal(t, "aggressive", envelope.Data[1].Name)
}

func TestHandleSensitivity(t *testing.T) {
	h := setupTestHandler(t)

	body := portfolioBody()
	body["sweep"] = map[string]interface{}{
		"ticker": "AAA",
		"donor":  "BBB",
		"min":    0.2,
		"max":    0.8,
		"step":   0.2,
	}

	rec := postJSON(t, h.HandleSensitivity, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data analysis.SweepResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Points, 4)
}

func TestRegisterRoutes(t *testing.T) {
	h := setupTestHandler(t)

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	payload, err := json.Marshal(portfolioBody())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/analysis/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
