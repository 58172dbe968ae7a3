package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
)

// Sensitivity sweeps one asset's allocation across the requested grid while
// the donor asset absorbs the difference, and reports the metric battery
// at every feasible grid point. Grid points that would push the donor's
// allocation below zero are skipped.
func (s *Service) Sensitivity(ctx context.Context, portfolio *domain.Portfolio, spec SweepSpec, opts Options) (*SweepResult, error) {
	if err := validateSweepSpec(portfolio, spec); err != nil {
		return nil, err
	}

	weights, err := portfolio.NormalizedWeights()
	if err != nil {
		return nil, err
	}

	baseWeights := make(map[string]float64, len(portfolio.Assets))
	for i, a := range portfolio.Assets {
		baseWeights[a.Ticker] = weights[i]
	}

	var points []SweepPoint
	for w := spec.Min; w <= spec.Max+1e-12; w += spec.Step {
		donorWeight := baseWeights[spec.Donor] + baseWeights[spec.Ticker] - w
		if donorWeight > -1e-12 && donorWeight < 0 {
			// Accumulated step error; the donor is exactly exhausted.
			donorWeight = 0
		}
		if donorWeight < 0 {
			s.log.Debug().
				Float64("weight", w).
				Str("donor", spec.Donor).
				Msg("Skipping infeasible sweep point")
			continue
		}

		candidate, err := reallocate(portfolio, baseWeights, spec.Ticker, w, spec.Donor, donorWeight)
		if err != nil {
			return nil, err
		}

		result, err := s.Analyze(ctx, candidate, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze sweep point %v: %w", w, err)
		}

		points = append(points, SweepPoint{
			Weight:       w,
			DonorWeight:  donorWeight,
			SharpeRatio:  result.Risk.SharpeRatio,
			SortinoRatio: result.Risk.SortinoRatio,
			CVaR:         result.Risk.CVaR,
			FinalValue:   result.Performance.FinalValue(),
		})
	}

	if len(points) == 0 {
		return nil, domain.InvalidConfigurationError{
			Reason: "sensitivity sweep has no feasible grid points",
		}
	}

	s.log.Info().
		Str("ticker", spec.Ticker).
		Str("donor", spec.Donor).
		Int("num_points", len(points)).
		Msg("Completed sensitivity sweep")

	return &SweepResult{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Spec:        spec,
		Points:      points,
	}, nil
}

func validateSweepSpec(portfolio *domain.Portfolio, spec SweepSpec) error {
	switch {
	case spec.Ticker == spec.Donor:
		return domain.InvalidConfigurationError{Reason: "swept ticker and donor must differ"}
	case spec.Step <= 0:
		return domain.InvalidConfigurationError{Reason: fmt.Sprintf("sweep step must be positive, got %v", spec.Step)}
	case spec.Min < 0 || spec.Max > 1 || spec.Min > spec.Max:
		return domain.InvalidConfigurationError{Reason: fmt.Sprintf("sweep range [%v, %v] must satisfy 0 <= min <= max <= 1", spec.Min, spec.Max)}
	}

	found := map[string]bool{}
	for _, a := range portfolio.Assets {
		found[a.Ticker] = true
	}
	if !found[spec.Ticker] {
		return domain.MissingDataError{Ticker: spec.Ticker}
	}
	if !found[spec.Donor] {
		return domain.MissingDataError{Ticker: spec.Donor}
	}
	return nil
}

// reallocate builds a portfolio identical to the base except for the swept
// and donor allocations.
func reallocate(portfolio *domain.Portfolio, baseWeights map[string]float64, ticker string, weight float64, donor string, donorWeight float64) (*domain.Portfolio, error) {
	assets := make([]domain.AssetWeight, len(portfolio.Assets))
	for i, a := range portfolio.Assets {
		w := baseWeights[a.Ticker]
		switch a.Ticker {
		case ticker:
			w = weight
		case donor:
			w = donorWeight
		}
		assets[i] = domain.AssetWeight{Ticker: a.Ticker, Weight: w}
	}
	return domain.NewPortfolio(assets, portfolio.StartDate, portfolio.EndDate, portfolio.Frequency)
}
