// Package handlers provides HTTP handlers for risk metrics operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/marketdata"
	"github.com/KeithMadison/investment-portfolio/internal/modules/returns"
	"github.com/KeithMadison/investment-portfolio/internal/modules/risk"
)

// Handler handles risk metrics HTTP requests
type Handler struct {
	provider   marketdata.Provider
	calculator *returns.Calculator
	service    *risk.Service

	// configured defaults, used when the request omits the parameter
	riskFreeRate float64
	cvarAlpha    float64

	log zerolog.Logger
}

// NewHandler creates a new risk metrics handler
func NewHandler(
	provider marketdata.Provider,
	calculator *returns.Calculator,
	service *risk.Service,
	riskFreeRate float64,
	cvarAlpha float64,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		provider:     provider,
		calculator:   calculator,
		service:      service,
		riskFreeRate: riskFreeRate,
		cvarAlpha:    cvarAlpha,
		log:          log.With().Str("handler", "risk").Logger(),
	}
}

// metricsRequest is the shared request body for all risk endpoints: a
// portfolio definition plus optional overrides for the configured
// defaults. Benchmark, when present, must align with the resampled
// portfolio return periods.
type metricsRequest struct {
	Assets       []assetAllocation `json:"assets"`
	StartDate    string            `json:"start_date"`
	EndDate      string            `json:"end_date"`
	Frequency    string            `json:"frequency"`
	Benchmark    []float64         `json:"benchmark,omitempty"`
	RiskFreeRate *float64          `json:"risk_free_rate,omitempty"`
	CVaRAlpha    *float64          `json:"cvar_alpha,omitempty"`
}

type assetAllocation struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

func (req *metricsRequest) portfolio() (*domain.Portfolio, error) {
	frequency, err := domain.ParseFrequency(req.Frequency)
	if err != nil {
		return nil, err
	}

	assets := make([]domain.AssetWeight, len(req.Assets))
	for i, a := range req.Assets {
		assets[i] = domain.AssetWeight{Ticker: a.Ticker, Weight: a.Weight}
	}

	return domain.NewPortfolio(assets, req.StartDate, req.EndDate, frequency)
}

// HandleGetSummary handles POST /api/risk/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	req, table, _, ok := h.prepare(w, r)
	if !ok {
		return
	}

	benchmark := req.Benchmark
	if benchmark == nil {
		benchmark = table.EqualWeightedBenchmark()
	}

	summary, err := h.service.Compute(table, benchmark, h.rate(req), h.alpha(req))
	if err != nil {
		h.writeError(w, err, "Failed to compute risk summary")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// HandleGetVolatility handles POST /api/risk/volatility
func (h *Handler) HandleGetVolatility(w http.ResponseWriter, r *http.Request) {
	_, table, _, ok := h.prepare(w, r)
	if !ok {
		return
	}

	stdDev, err := h.service.AnnualizedStdDev(table)
	if err != nil {
		h.writeError(w, err, "Failed to compute annualized volatility")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"annualized_std_dev": stdDev,
		"frequency":          string(table.Frequency),
	})
}

// HandleGetBeta handles POST /api/risk/beta
func (h *Handler) HandleGetBeta(w http.ResponseWriter, r *http.Request) {
	req, table, _, ok := h.prepare(w, r)
	if !ok {
		return
	}

	benchmark := req.Benchmark
	defaulted := false
	if benchmark == nil {
		benchmark = table.EqualWeightedBenchmark()
		defaulted = true
	}

	beta, err := h.service.Beta(table, benchmark)
	if err != nil {
		h.writeError(w, err, "Failed to compute beta")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"beta":                beta,
		"benchmark_defaulted": defaulted,
	})
}

// HandleGetSharpe handles POST /api/risk/sharpe
func (h *Handler) HandleGetSharpe(w http.ResponseWriter, r *http.Request) {
	req, table, _, ok := h.prepare(w, r)
	if !ok {
		return
	}

	sharpe, err := h.service.SharpeRatio(table, h.rate(req))
	if err != nil {
		h.writeError(w, err, "Failed to compute Sharpe ratio")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sharpe_ratio":   sharpe,
		"risk_free_rate": h.rate(req),
	})
}

// HandleGetCVaR handles POST /api/risk/cvar
func (h *Handler) HandleGetCVaR(w http.ResponseWriter, r *http.Request) {
	req, table, _, ok := h.prepare(w, r)
	if !ok {
		return
	}

	cvar, err := h.service.CVaR(table, h.alpha(req))
	if err != nil {
		h.writeError(w, err, "Failed to compute CVaR")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cvar":  cvar,
		"alpha": h.alpha(req),
	})
}

// HandleGetSortino handles POST /api/risk/sortino
func (h *Handler) HandleGetSortino(w http.ResponseWriter, r *http.Request) {
	req, table, _, ok := h.prepare(w, r)
	if !ok {
		return
	}

	sortino, err := h.service.SortinoRatio(table, h.rate(req))
	if err != nil {
		h.writeError(w, err, "Failed to compute Sortino ratio")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sortino_ratio":  sortino,
		"risk_free_rate": h.rate(req),
	})
}

// HandleGetDecomposition handles POST /api/risk/decomposition
func (h *Handler) HandleGetDecomposition(w http.ResponseWriter, r *http.Request) {
	_, table, portfolio, ok := h.prepare(w, r)
	if !ok {
		return
	}

	decomposition, err := h.service.DecomposeVolatility(table, portfolio)
	if err != nil {
		h.writeError(w, err, "Failed to decompose volatility")
		return
	}

	h.writeJSON(w, http.StatusOK, decomposition)
}

// prepare runs the shared pipeline for every risk endpoint: decode the
// request, validate the portfolio, fetch aligned prices, and compute the
// resampled return table. On failure it writes the HTTP error itself and
// returns ok=false.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) (*metricsRequest, *returns.Table, *domain.Portfolio, bool) {
	var req metricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, nil, nil, false
	}

	portfolio, err := req.portfolio()
	if err != nil {
		h.writeError(w, err, "Invalid portfolio definition")
		return nil, nil, nil, false
	}

	prices, err := marketdata.FetchPriceTable(r.Context(), h.provider, portfolio.Tickers(), portfolio.StartDate, portfolio.EndDate)
	if err != nil {
		h.writeError(w, err, "Failed to fetch prices")
		return nil, nil, nil, false
	}

	table, err := h.calculator.Compute(prices, portfolio)
	if err != nil {
		h.writeError(w, err, "Failed to compute returns")
		return nil, nil, nil, false
	}

	return &req, table, portfolio, true
}

func (h *Handler) rate(req *metricsRequest) float64 {
	if req.RiskFreeRate != nil {
		return *req.RiskFreeRate
	}
	return h.riskFreeRate
}

func (h *Handler) alpha(req *metricsRequest) float64 {
	if req.CVaRAlpha != nil {
		return *req.CVaRAlpha
	}
	return h.cvarAlpha
}

// writeError maps domain error kinds onto HTTP statuses. Computation
// preconditions (too little history, degenerate variance, no benchmark)
// are client-visible 422s, not server faults.
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)

	status := http.StatusInternalServerError
	var (
		invalidConfig domain.InvalidConfigurationError
		missingData   domain.MissingDataError
		insufficient  domain.InsufficientHistoryError
		degenerate    domain.DegenerateVolatilityError
		noBenchmark   domain.MissingBenchmarkError
	)
	switch {
	case errors.As(err, &invalidConfig):
		status = http.StatusBadRequest
	case errors.As(err, &missingData):
		status = http.StatusNotFound
	case errors.As(err, &insufficient), errors.As(err, &degenerate), errors.As(err, &noBenchmark):
		status = http.StatusUnprocessableEntity
	}

	h.writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
