package analysis

import (
	"context"
	"fmt"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
)

// NamedPortfolio pairs a portfolio definition with a display name used in
// comparative reports.
type NamedPortfolio struct {
	Name      string
	Portfolio *domain.Portfolio
}

// Compare analyzes several portfolios over their own windows and returns
// one immutable result per portfolio, in input order. A failure on any
// portfolio fails the whole comparison: a partial comparison would silently
// present an incomplete picture.
func (s *Service) Compare(ctx context.Context, portfolios []NamedPortfolio, opts Options) ([]*Result, error) {
	if len(portfolios) == 0 {
		return nil, domain.InvalidConfigurationError{Reason: "comparison requires at least one portfolio"}
	}

	seen := make(map[string]bool, len(portfolios))
	for _, p := range portfolios {
		if p.Name == "" {
			return nil, domain.InvalidConfigurationError{Reason: "every compared portfolio needs a name"}
		}
		if seen[p.Name] {
			return nil, domain.InvalidConfigurationError{Reason: fmt.Sprintf("duplicate portfolio name %q", p.Name)}
		}
		seen[p.Name] = true
	}

	results := make([]*Result, len(portfolios))
	for i, p := range portfolios {
		result, err := s.Analyze(ctx, p.Portfolio, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze portfolio %q: %w", p.Name, err)
		}
		result.Name = p.Name
		results[i] = result
	}

	s.log.Info().Int("num_portfolios", len(results)).Msg("Completed comparative analysis")
	return results, nil
}
