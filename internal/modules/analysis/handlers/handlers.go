// Package handlers provides HTTP handlers for portfolio analysis
// operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/analysis"
)

// Handler handles analysis HTTP requests
type Handler struct {
	service *analysis.Service
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

type portfolioSpec struct {
	Assets    []assetAllocation `json:"assets"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Frequency string            `json:"frequency"`
}

type assetAllocation struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

func (spec *portfolioSpec) portfolio() (*domain.Portfolio, error) {
	frequency, err := domain.ParseFrequency(spec.Frequency)
	if err != nil {
		return nil, err
	}

	assets := make([]domain.AssetWeight, len(spec.Assets))
	for i, a := range spec.Assets {
		assets[i] = domain.AssetWeight{Ticker: a.Ticker, Weight: a.Weight}
	}
	return domain.NewPortfolio(assets, spec.StartDate, spec.EndDate, frequency)
}

type analyzeRequest struct {
	portfolioSpec
	Options analysis.Options `json:"options"`
}

// HandleAnalyze handles POST /api/analysis
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	portfolio, err := req.portfolio()
	if err != nil {
		h.writeError(w, err, "Invalid portfolio definition")
		return
	}

	result, err := h.service.Analyze(r.Context(), portfolio, req.Options)
	if err != nil {
		h.writeError(w, err, "Analysis failed")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

type compareRequest struct {
	Portfolios []namedPortfolioSpec `json:"portfolios"`
	Options    analysis.Options     `json:"options"`
}

type namedPortfolioSpec struct {
	Name string `json:"name"`
	portfolioSpec
}

// HandleCompare handles POST /api/analysis/compare
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	portfolios := make([]analysis.NamedPortfolio, len(req.Portfolios))
	for i, spec := range req.Portfolios {
		portfolio, err := spec.portfolio()
		if err != nil {
			h.writeError(w, err, "Invalid portfolio definition")
			return
		}
		portfolios[i] = analysis.NamedPortfolio{Name: spec.Name, Portfolio: portfolio}
	}

	results, err := h.service.Compare(r.Context(), portfolios, req.Options)
	if err != nil {
		h.writeError(w, err, "Comparative analysis failed")
		return
	}

	h.writeJSON(w, http.StatusOK, results)
}

type sensitivityRequest struct {
	portfolioSpec
	Sweep   analysis.SweepSpec `json:"sweep"`
	Options analysis.Options   `json:"options"`
}

// HandleSensitivity handles POST /api/analysis/sensitivity
func (h *Handler) HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	var req sensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	portfolio, err := req.portfolio()
	if err != nil {
		h.writeError(w, err, "Invalid portfolio definition")
		return
	}

	sweep, err := h.service.Sensitivity(r.Context(), portfolio, req.Sweep, req.Options)
	if err != nil {
		h.writeError(w, err, "Sensitivity analysis failed")
		return
	}

	h.writeJSON(w, http.StatusOK, sweep)
}

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
