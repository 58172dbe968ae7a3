package risk

// Contribution is one asset's marginal contribution to total portfolio
// volatility, in the same units as the volatility itself.
type Contribution struct {
	Ticker string  `json:"ticker"`
	Value  float64 `json:"value"`
}

// Decomposition attributes total portfolio volatility to the individual
// assets. The attribution is additive: the contributions sum to
// TotalVolatility (up to floating-point tolerance).
type Decomposition struct {
	Contributions   []Contribution `json:"contributions"` // portfolio asset order
	TotalVolatility float64        `json:"total_volatility"`
}

// Summary is the scalar risk battery for one portfolio, parameterized by
// the risk-free rate and CVaR significance level supplied at computation
// time.
type Summary struct {
	AnnualizedStdDev float64 `json:"annualized_std_dev"`
	Beta             float64 `json:"beta"`
	SharpeRatio      float64 `json:"sharpe_ratio"` // annualized
	CVaR             float64 `json:"cvar"`         // negative-or-zero loss magnitude
	SortinoRatio     float64 `json:"sortino_ratio"` // annualized
	RiskFreeRate     float64 `json:"risk_free_rate"` // annual rate used
	Alpha            float64 `json:"alpha"`          // CVaR significance level used
}
