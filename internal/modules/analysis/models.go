package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/performance"
	"github.com/KeithMadison/investment-portfolio/internal/modules/returns"
	"github.com/KeithMadison/investment-portfolio/internal/modules/risk"
)

// Options parameterizes one analysis run. Zero values are replaced by the
// service's configured defaults.
type Options struct {
	RiskFreeRate      *float64 `json:"risk_free_rate,omitempty"`
	CVaRAlpha         *float64 `json:"cvar_alpha,omitempty"`
	InitialInvestment *float64 `json:"initial_investment,omitempty"`

	// Benchmark overrides the default equal-weighted market proxy used
	// for beta. Must align with the resampled return periods.
	Benchmark []float64 `json:"benchmark,omitempty"`
}

// Result is the immutable metrics bundle for one portfolio over one
// window. Reports consume results as-is; nothing downstream mutates them.
type Result struct {
	ID          string    `json:"id" msgpack:"id"`
	Name        string    `json:"name,omitempty" msgpack:"name"`
	GeneratedAt time.Time `json:"generated_at" msgpack:"generated_at"`

	Assets    []domain.AssetWeight `json:"assets" msgpack:"assets"`
	StartDate string               `json:"start_date" msgpack:"start_date"`
	EndDate   string               `json:"end_date" msgpack:"end_date"`
	Frequency domain.Frequency     `json:"frequency" msgpack:"frequency"`

	Returns       *returns.Table       `json:"returns" msgpack:"returns"`
	Performance   *performance.Metrics `json:"performance" msgpack:"performance"`
	Risk          *risk.Summary        `json:"risk" msgpack:"risk"`
	Decomposition *risk.Decomposition  `json:"decomposition" msgpack:"decomposition"`
}

// SweepSpec describes a sensitivity sweep: the swept ticker's allocation
// runs across [Min, Max] in Step increments, and the donor ticker's
// allocation absorbs the difference so the total stays constant.
type SweepSpec struct {
	Ticker string  `json:"ticker"`
	Donor  string  `json:"donor"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Step   float64 `json:"step"`
}

// SweepPoint is the metric battery at one grid allocation.
type SweepPoint struct {
	Weight       float64 `json:"weight"`       // swept ticker's allocation
	DonorWeight  float64 `json:"donor_weight"` // donor's remaining allocation
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	CVaR         float64 `json:"cvar"`
	FinalValue   float64 `json:"final_value"`
}

// SweepResult is the outcome of a sensitivity sweep.
type SweepResult struct {
	ID          string       `json:"id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Spec        SweepSpec    `json:"spec"`
	Points      []SweepPoint `json:"points"`
}

// cacheKeyParts flattens everything that identifies an analysis into a
// stable ordered part list.
func cacheKeyParts(portfolio *domain.Portfolio, riskFreeRate, cvarAlpha, initialInvestment float64, benchmark []float64) []string {
	parts := make([]string, 0, len(portfolio.Assets)+6)
	for _, a := range portfolio.Assets {
		parts = append(parts, fmt.Sprintf("%s:%v", a.Ticker, a.Weight))
	}
	parts = append(parts,
		portfolio.StartDate,
		portfolio.EndDate,
		string(portfolio.Frequency),
		strconv.FormatFloat(riskFreeRate, 'g', -1, 64),
		strconv.FormatFloat(cvarAlpha, 'g', -1, 64),
		strconv.FormatFloat(initialInvestment, 'g', -1, 64),
	)
	if len(benchmark) > 0 {
		bench := make([]string, len(benchmark))
		for i, v := range benchmark {
			bench[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		parts = append(parts, strings.Join(bench, ","))
	}
	return parts
}
