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

	"github.com/KeithMadison/investment-portfolio/internal/modules/marketdata"
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

	return NewHandler(
		provider,
		returns.NewCalculator(zerolog.Nop()),
		risk.NewService(zerolog.Nop()),
		0.02,
		0.05,
		zerolog.Nop(),
	)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func validRequest() map[string]interface{} {
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

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHandleGetSummary(t *testing.T) {
	h := setupTestHandler(t)

	rec := postJSON(t, h.HandleGetSummary, validRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Contains(t, data, "annualized_std_dev")
	assert.Contains(t, data, "beta")
	assert.Contains(t, data, "sharpe_ratio")
	assert.Contains(t, data, "cvar")
	assert.Contains(t, data, "sortino_ratio")
	assert.Equal(t, 0.02, data["risk_free_rate"])
	assert.Equal(t, 0.05, data["alpha"])
}

func TestHandleGetSummaryOverridesDefaults(t *testing.T) {
	h := setupTestHandler(t)

	body := validRequest()
	body["risk_free_rate"] = 0.0
	body["cvar_alpha"] = 0.5

	rec := postJSON(t, h.HandleGetSummary, body)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, 0.0, data["risk_free_rate"])
	assert.Equal(t, 0.5, data["alpha"])
}

func TestHandleGetVolatility(t *testing.T) {
	h := setupTestHandler(t)

	rec := postJSON(t, h.HandleGetVolatility, validRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Greater(t, data["annualized_std_dev"], 0.0)
	assert.Equal(t, "1mo", data["frequency"])
}

func TestHandleGetBetaDefaultsBenchmark(t *testing.T) {
	h := setupTestHandler(t)

	rec := postJSON(t, h.HandleGetBeta, validRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, true, data["benchmark_defaulted"])
}

func TestHandleGetBetaExplicitBenchmark(t *testing.T) {
	h := setupTestHandler(t)

	body := validRequest()
	body["benchmark"] = []float64{0.01, -0.01, 0.02, -0.02, 0.01}

	rec := postJSON(t, h.HandleGetBeta, body)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, false, data["benchmark_defaulted"])
}

func TestHandleGetDecompositionAdditive(t *testing.T) {
	h := setupTestHandler(t)

	rec := postJSON(t, h.HandleGetDecomposition, validRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data risk.Decomposition `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	sum := 0.0
	for _, c := range envelope.Data.Contributions {
		sum += c.Value
	}
	assert.InDelta(t, envelope.Data.TotalVolatility, sum, 1e-9)
}

func TestHandleErrorMapping(t *testing.T) {
	h := setupTestHandler(t)

	t.Run("unknown frequency", func(t *testing.T) {
		body := validRequest()
		body["frequency"] = "4mo"

		rec := postJSON(t, h.HandleGetSummary, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		body := validRequest()
		body["assets"] = []map[string]interface{}{{"ticker": "ZZZ", "weight": 1.0}}

		rec := postJSON(t, h.HandleGetSummary, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("too little history", func(t *testing.T) {
		body := validRequest()
		body["end_date"] = "2023-02-28"

		rec := postJSON(t, h.HandleGetSummary, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		h.HandleGetSummary(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid alpha", func(t *testing.T) {
		body := validRequest()
		body["cvar_alpha"] = 1.0

		rec := postJSON(t, h.HandleGetCVaR, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRegisterRoutes(t *testing.T) {
	h := setupTestHandler(t)

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	for _, path := range []string{
		"/risk/summary", "/risk/volatility", "/risk/beta",
		"/risk/sharpe", "/risk/cvar", "/risk/sortino", "/risk/decomposition",
	} {
		payload, err := json.Marshal(validRequest())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
