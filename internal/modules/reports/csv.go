// Package reports turns analysis results into deliverables: CSV sheets,
// rendered chart PNGs, and an optional S3 archive of the bundle.
package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/KeithMadison/investment-portfolio/internal/modules/analysis"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func resultName(result *analysis.Result, index int) string {
	if result.Name != "" {
		return result.Name
	}
	return fmt.Sprintf("portfolio_%d", index+1)
}

// BuildMetricsCSV renders the volatility-metrics sheet: one metric per
// row, one column per portfolio, followed by the per-asset volatility
// contributions.
func BuildMetricsCSV(results []*analysis.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(results)+1)
	header = append(header, "metric")
	for i, result := range results {
		header = append(header, resultName(result, i))
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write metrics header: %w", err)
	}

	rows := []struct {
		label string
		value func(*analysis.Result) float64
	}{
		{"annualized_std_dev", func(r *analysis.Result) float64 { return r.Risk.AnnualizedStdDev }},
		{"beta", func(r *analysis.Result) float64 { return r.Risk.Beta }},
		{"sharpe_ratio", func(r *analysis.Result) float64 { return r.Risk.SharpeRatio }},
		{"cvar", func(r *analysis.Result) float64 { return r.Risk.CVaR }},
		{"sortino_ratio", func(r *analysis.Result) float64 { return r.Risk.SortinoRatio }},
		{"total_volatility", func(r *analysis.Result) float64 { return r.Decomposition.TotalVolatility }},
		{"initial_investment", func(r *analysis.Result) float64 { return r.Performance.InitialInvestment }},
		{"final_value", func(r *analysis.Result) float64 { return r.Performance.FinalValue() }},
	}
	for _, row := range rows {
		record := make([]string, 0, len(results)+1)
		record = append(record, row.label)
		for _, result := range results {
			record = append(record, formatFloat(row.value(result)))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write metrics row: %w", err)
		}
	}

	// Per-asset contribution rows. Portfolios may hold different assets,
	// so absent tickers get empty cells.
	tickers := contributionTickers(results)
	for _, ticker := range tickers {
		record := make([]string, 0, len(results)+1)
		record = append(record, "volatility_contribution:"+ticker)
		for _, result := range results {
			cell := ""
			for _, c := range result.Decomposition.Contributions {
				if c.Ticker == ticker {
					cell = formatFloat(c.Value)
					break
				}
			}
			record = append(record, cell)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write contribution row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush metrics sheet: %w", err)
	}
	return buf.Bytes(), nil
}

func contributionTickers(results []*analysis.Result) []string {
	var tickers []string
	seen := map[string]bool{}
	for _, result := range results {
		for _, c := range result.Decomposition.Contributions {
			if !seen[c.Ticker] {
				seen[c.Ticker] = true
				tickers = append(tickers, c.Ticker)
			}
		}
	}
	return tickers
}

// BuildReturnsCSV renders the return-metrics sheet: one row per period,
// one column group per portfolio (date, periodic return, cumulative
// value, periodic P&L). Portfolios keep their own date columns since
// resampled period ends may differ across windows.
func BuildReturnsCSV(results []*analysis.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(results)*4)
	maxPeriods := 0
	for i, result := range results {
		name := resultName(result, i)
		header = append(header,
			name+":date",
			name+":return",
			name+":value",
			name+":pnl",
		)
		if n := len(result.Performance.Dates); n > maxPeriods {
			maxPeriods = n
		}
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write returns header: %w", err)
	}

	for row := 0; row < maxPeriods; row++ {
		record := make([]string, 0, len(results)*4)
		for _, result := range results {
			m := result.Performance
			if row >= len(m.Dates) {
				record = append(record, "", "", "", "")
				continue
			}
			record = append(record,
				m.Dates[row],
				formatFloat(m.PeriodicReturns[row]),
				formatFloat(m.CumulativeValue[row]),
				formatFloat(m.PeriodicPnL[row]),
			)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write returns row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush returns sheet: %w", err)
	}
	return buf.Bytes(), nil
}
