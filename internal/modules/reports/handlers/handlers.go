// Package handlers provides HTTP handlers for report generation.
package handlers

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/analysis"
	"github.com/KeithMadison/investment-portfolio/internal/modules/reports"
)

// Handler handles report HTTP requests
type Handler struct {
	analysis *analysis.Service
	reports  *reports.Service
	log      zerolog.Logger
}

// NewHandler creates a new report handler
func NewHandler(analysisService *analysis.Service, reportService *reports.Service, log zerolog.Logger) *Handler {
	return &Handler{
		analysis: analysisService,
		reports:  reportService,
		log:      log.With().Str("handler", "reports").Logger(),
	}
}

type reportRequest struct {
	Portfolios []namedPortfolioSpec `json:"portfolios"`
	Options    analysis.Options     `json:"options"`
}

type namedPortfolioSpec struct {
	Name      string            `json:"name"`
	Assets    []assetAllocation `json:"assets"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Frequency string            `json:"frequency"`
}

type assetAllocation struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

func (spec *namedPortfolioSpec) portfolio() (*domain.Portfolio, error) {
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

// HandleGenerate handles POST /api/reports: analyze every portfolio in
// the request, build the report bundle and stream it back as a zip.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
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

	results, err := h.analysis.Compare(r.Context(), portfolios, req.Options)
	if err != nil {
		h.writeError(w, err, "Analysis failed")
		return
	}

	bundle, err := h.reports.Generate(r.Context(), results)
	if err != nil {
		h.writeError(w, err, "Report generation failed")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.zip"`, bundle.ID))
	if bundle.ArchiveURL != "" {
		w.Header().Set("X-Archive-Url", bundle.ArchiveURL)
	}

	zw := zip.NewWriter(w)
	for name, content := range bundle.Files {
		f, err := zw.Create(name)
		if err != nil {
			h.log.Error().Err(err).Str("file", name).Msg("Failed to add report file to zip")
			return
		}
		if _, err := f.Write(content); err != nil {
			h.log.Error().Err(err).Str("file", name).Msg("Failed to write report file to zip")
			return
		}
	}
	if err := zw.Close(); err != nil {
		h.log.Error().Err(err).Msg("Failed to finalize report zip")
	}
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

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
}
