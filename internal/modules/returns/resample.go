package returns

import (
	"fmt"
	"time"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
)

// resampleIndices selects the row indices that form the period boundaries
// for a frequency: the last trading observation of each calendar bucket.
// Dates must be strictly ascending. YTD and full-range are endpoint
// cadences: they keep only the first and last observations of their
// (sub)window, producing a single period.
func resampleIndices(dates []string, frequency domain.Frequency) ([]int, error) {
	if _, err := frequency.PeriodsPerYear(); err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return []int{}, nil
	}

	parsed := make([]time.Time, len(dates))
	for i, d := range dates {
		t, err := time.Parse(domain.DateFormat, d)
		if err != nil {
			return nil, fmt.Errorf("malformed date %q in price table: %w", d, err)
		}
		parsed[i] = t
	}

	switch frequency {
	case domain.FrequencyDaily:
		indices := make([]int, len(dates))
		for i := range indices {
			indices[i] = i
		}
		return indices, nil

	case domain.FrequencyFullRange:
		return endpointIndices(0, len(dates)-1), nil

	case domain.FrequencyYTD:
		// Endpoints of the final calendar year within the window.
		year := parsed[len(parsed)-1].Year()
		first := -1
		for i, t := range parsed {
			if t.Year() == year {
				first = i
				break
			}
		}
		return endpointIndices(first, len(dates)-1), nil
	}

	startYear := parsed[0].Year()
	key := bucketKey(frequency, startYear)

	// Last observation per bucket. Dates are ascending, so overwrite wins.
	var indices []int
	for i, t := range parsed {
		if i+1 < len(parsed) && key(t) == key(parsed[i+1]) {
			continue
		}
		indices = append(indices, i)
	}
	return indices, nil
}

func endpointIndices(first, last int) []int {
	if first == last {
		return []int{first}
	}
	return []int{first, last}
}

// bucketKey maps an observation date to its calendar bucket identifier.
func bucketKey(frequency domain.Frequency, startYear int) func(time.Time) string {
	switch frequency {
	case domain.FrequencyWeekly:
		return func(t time.Time) string {
			year, week := t.ISOWeek()
			return fmt.Sprintf("%d-W%02d", year, week)
		}
	case domain.FrequencyMonthly:
		return func(t time.Time) string {
			return t.Format("2006-01")
		}
	case domain.FrequencyQuarterly:
		return func(t time.Time) string {
			return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3)
		}
	case domain.FrequencySemiAnnual:
		return func(t time.Time) string {
			return fmt.Sprintf("%d-H%d", t.Year(), (int(t.Month())-1)/6)
		}
	case domain.FrequencyAnnual:
		return func(t time.Time) string {
			return fmt.Sprintf("%d", t.Year())
		}
	case domain.FrequencyTwoYear:
		return multiYearKey(startYear, 2)
	case domain.FrequencyFiveYear:
		return multiYearKey(startYear, 5)
	case domain.FrequencyTenYear:
		return multiYearKey(startYear, 10)
	default:
		// Unreachable: resampleIndices validates the frequency first.
		return func(t time.Time) string { return t.Format(domain.DateFormat) }
	}
}

// multiYearKey buckets years into N-year spans anchored at the window's
// first year.
func multiYearKey(startYear, span int) func(time.Time) string {
	return func(t time.Time) string {
		return fmt.Sprintf("%d", (t.Year()-startYear)/span)
	}
}
