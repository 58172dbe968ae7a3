package risk

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/returns"
)

// DecomposeVolatility computes each asset's marginal contribution to total
// portfolio volatility from the sample covariance matrix of periodic
// returns and the normalized weight vector:
//
//	MCR_i = w_i * (Sigma w)_i / sigma_p
//
// The contributions sum to sigma_p exactly (up to floating-point
// tolerance). A zero-variance portfolio fails with
// DegenerateVolatilityError rather than dividing by zero.
func (s *Service) DecomposeVolatility(table *returns.Table, portfolio *domain.Portfolio) (*Decomposition, error) {
	weights, err := portfolio.NormalizedWeights()
	if err != nil {
		return nil, err
	}

	tickers := portfolio.Tickers()
	numPeriods := table.NumPeriods()
	if numPeriods < 2 {
		return nil, domain.InsufficientHistoryError{
			What: "return covariance",
			Need: 2,
			Got:  numPeriods,
		}
	}

	for _, ticker := range tickers {
		if _, ok := table.AssetReturns[ticker]; !ok {
			return nil, domain.MissingDataError{Ticker: ticker}
		}
	}

	sigma, err := covarianceMatrix(table, tickers)
	if err != nil {
		return nil, err
	}

	n := len(tickers)
	w := mat.NewVecDense(n, weights)

	// q = Sigma * w
	q := mat.NewVecDense(n, nil)
	q.MulVec(sigma, w)

	// sigma_p^2 = w' * Sigma * w
	portfolioVariance := mat.Dot(w, q)
	portfolioVolatility := math.Sqrt(portfolioVariance)
	if portfolioVolatility <= 0 || math.IsNaN(portfolioVolatility) {
		return nil, domain.DegenerateVolatilityError{Quantity: "portfolio volatility"}
	}

	contributions := make([]Contribution, n)
	for i, ticker := range tickers {
		contributions[i] = Contribution{
			Ticker: ticker,
			Value:  weights[i] * q.AtVec(i) / portfolioVolatility,
		}
	}

	s.log.Debug().
		Int("num_assets", n).
		Float64("total_volatility", portfolioVolatility).
		Msg("Decomposed portfolio volatility")

	return &Decomposition{
		Contributions:   contributions,
		TotalVolatility: portfolioVolatility,
	}, nil
}

// covarianceMatrix builds the sample covariance matrix of periodic asset
// returns in ticker order. Element (i,j) is the covariance between the
// returns of tickers[i] and tickers[j].
func covarianceMatrix(table *returns.Table, tickers []string) (*mat.SymDense, error) {
	numPeriods := table.NumPeriods()
	for _, ticker := range tickers {
		if len(table.AssetReturns[ticker]) != numPeriods {
			return nil, domain.InsufficientHistoryError{
				What: "returns for " + ticker,
				Need: numPeriods,
				Got:  len(table.AssetReturns[ticker]),
			}
		}
	}

	n := len(tickers)
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		ri := table.AssetReturns[tickers[i]]
		for j := i; j < n; j++ {
			sigma.SetSym(i, j, stat.Covariance(ri, table.AssetReturns[tickers[j]], nil))
		}
	}

	return sigma, nil
}
