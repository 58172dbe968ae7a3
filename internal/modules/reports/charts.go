package reports

import (
	"fmt"

	"github.com/markcheno/go-talib"
	charts "github.com/vicanso/go-charts/v2"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
	"github.com/KeithMadison/investment-portfolio/internal/modules/analysis"
)

// smaOverlayMinPeriods is the smallest series worth smoothing; below this
// the overlay would be mostly warm-up zeros.
const smaOverlayMinPeriods = 8

// RenderValueChart renders the cumulative value lines for all portfolios
// into one PNG. Series long enough also get an SMA overlay with the given
// window.
func RenderValueChart(results []*analysis.Result, smaWindow int) ([]byte, error) {
	if len(results) == 0 {
		return nil, domain.InvalidConfigurationError{Reason: "value chart requires at least one result"}
	}

	labels := results[0].Performance.Dates
	var (
		series [][]float64
		names  []string
	)
	for i, result := range results {
		values := result.Performance.CumulativeValue
		series = append(series, values)
		names = append(names, resultName(result, i))

		if smaWindow > 1 && len(values) >= smaOverlayMinPeriods && len(values) >= smaWindow {
			series = append(series, talib.Sma(values, smaWindow))
			names = append(names, fmt.Sprintf("%s SMA(%d)", resultName(result, i), smaWindow))
		}
	}

	splitNum := len(labels) / 3
	if splitNum < 3 {
		splitNum = 3
	}

	painter, err := charts.LineRender(series,
		charts.TitleTextOptionFunc("Portfolio value"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render value chart: %w", err)
	}

	img, err := painter.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode value chart: %w", err)
	}
	return img, nil
}

// RenderReturnsChart renders one portfolio's periodic returns as bars.
func RenderReturnsChart(result *analysis.Result) ([]byte, error) {
	if result.Performance == nil || len(result.Performance.PeriodicReturns) == 0 {
		return nil, domain.InvalidConfigurationError{Reason: "returns chart requires at least one period"}
	}

	painter, err := charts.BarRender([][]float64{result.Performance.PeriodicReturns},
		charts.TitleTextOptionFunc("Periodic returns"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: result.Performance.Dates}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render returns chart: %w", err)
	}

	img, err := painter.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode returns chart: %w", err)
	}
	return img, nil
}
