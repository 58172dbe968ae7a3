package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/analysis"
)

// Bundle is one generated report: the CSV sheets plus a chart PNG per
// portfolio, keyed by file name.
type Bundle struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Files       map[string][]byte `json:"-"`
	ArchiveURL  string            `json:"archive_url,omitempty"`
}

// FileNames lists the bundle's files in no particular order.
func (b *Bundle) FileNames() []string {
	names := make([]string, 0, len(b.Files))
	for name := range b.Files {
		names = append(names, name)
	}
	return names
}

// Service generates report bundles from analysis results.
type Service struct {
	archiver  Archiver // nil disables archiving
	smaWindow int
	log       zerolog.Logger
}

// NewService creates a new report service. archiver may be nil.
func NewService(archiver Archiver, log zerolog.Logger) *Service {
	return &Service{
		archiver:  archiver,
		smaWindow: 5,
		log:       log.With().Str("service", "reports").Logger(),
	}
}

// Generate builds the CSV sheets and charts for the given results and,
// when an archiver is configured, uploads the bundle.
func (s *Service) Generate(ctx context.Context, results []*analysis.Result) (*Bundle, error) {
	if len(results) == 0 {
		return nil, domain.InvalidConfigurationError{Reason: "report requires at least one analysis result"}
	}

	files := make(map[string][]byte)

	metricsSheet, err := BuildMetricsCSV(results)
	if err != nil {
		return nil, fmt.Errorf("failed to build metrics sheet: %w", err)
	}
	files["metrics.csv"] = metricsSheet

	returnsSheet, err := BuildReturnsCSV(results)
	if err != nil {
		return nil, fmt.Errorf("failed to build returns sheet: %w", err)
	}
	files["returns.csv"] = returnsSheet

	valueChart, err := RenderValueChart(results, s.smaWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to render value chart: %w", err)
	}
	files["value_chart.png"] = valueChart

	for i, result := range results {
		chart, err := RenderReturnsChart(result)
		if err != nil {
			return nil, fmt.Errorf("failed to render returns chart for %s: %w", resultName(result, i), err)
		}
		files[fmt.Sprintf("returns_%s.png", resultName(result, i))] = chart
	}

	bundle := &Bundle{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Files:       files,
	}

	if s.archiver != nil {
		url, err := s.archiver.Store(ctx, bundle)
		if err != nil {
			return nil, fmt.Errorf("failed to archive report: %w", err)
		}
		bundle.ArchiveURL = url
	}

	s.log.Info().
		Str("id", bundle.ID).
		Int("files", len(files)).
		Int("num_portfolios", len(results)).
		Msg("Generated report bundle")

	return bundle, nil
}
