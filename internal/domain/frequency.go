package domain

// Frequency is a rebalancing cadence. It doubles as the resampling
// granularity of the return series: prices are resampled to the last trading
// observation of each period before returns are computed.
type Frequency string

const (
	FrequencyDaily      Frequency = "1d"
	FrequencyWeekly     Frequency = "1wk"
	FrequencyMonthly    Frequency = "1mo"
	FrequencyQuarterly  Frequency = "3mo"
	FrequencySemiAnnual Frequency = "6mo"
	FrequencyAnnual     Frequency = "1y"
	FrequencyTwoYear    Frequency = "2y"
	FrequencyFiveYear   Frequency = "5y"
	FrequencyTenYear    Frequency = "10y"
	FrequencyYTD        Frequency = "ytd"
	FrequencyFullRange  Frequency = "max"
)

// Frequencies lists every supported rebalancing frequency.
var Frequencies = []Frequency{
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencySemiAnnual,
	FrequencyAnnual,
	FrequencyTwoYear,
	FrequencyFiveYear,
	FrequencyTenYear,
	FrequencyYTD,
	FrequencyFullRange,
}

// PeriodsPerYear returns the fixed annualization factor for the frequency.
// The mapping is a total function over the enumeration: every valid
// frequency maps to a constant, and the constant is never inferred from
// observed data spacing. Unknown values fail with InvalidConfigurationError.
func (f Frequency) PeriodsPerYear() (float64, error) {
	switch f {
	case FrequencyDaily:
		return 252, nil // trading days
	case FrequencyWeekly:
		return 52, nil
	case FrequencyMonthly:
		return 12, nil
	case FrequencyQuarterly:
		return 4, nil
	case FrequencySemiAnnual:
		return 2, nil
	case FrequencyAnnual:
		return 1, nil
	case FrequencyTwoYear:
		return 0.5, nil
	case FrequencyFiveYear:
		return 0.2, nil
	case FrequencyTenYear:
		return 0.1, nil
	case FrequencyYTD, FrequencyFullRange:
		// Single-period cadences: the one period spans the whole (sub)window
		// and is annualized as a year. See DESIGN.md for the convention.
		return 1, nil
	default:
		return 0, InvalidConfigurationError{Reason: "unrecognized rebalancing frequency: " + string(f)}
	}
}

// ParseFrequency validates a tenor code and returns the Frequency.
func ParseFrequency(code string) (Frequency, error) {
	f := Frequency(code)
	if _, err := f.PeriodsPerYear(); err != nil {
		return "", err
	}
	return f, nil
}
