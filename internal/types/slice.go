package types

import (
	"fmt"
	"time"
)

// Granularity is the calendar resolution of a TimeSlice.
type Granularity int

const (
	GranularityYear Granularity = iota
	GranularityMonth
	GranularityDay
)

func (g Granularity) String() string {
	switch g {
	case GranularityYear:
		return "year"
	case GranularityMonth:
		return "month"
	case GranularityDay:
		return "day"
	default:
		return "unknown"
	}
}

const dateLayout = "2006-01-02"

// TimeSlice is a contiguous, inclusive calendar interval used as a query
// filter. Children of a slice partition it without gap or overlap.
type TimeSlice struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
	Label       string // diagnostic only, e.g. "2022" or "2022-03"
}

// NewYearSlice builds the top-level slice for a single calendar year.
func NewYearSlice(year int) TimeSlice {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return TimeSlice{Start: start, End: end, Granularity: GranularityYear, Label: fmt.Sprintf("%04d", year)}
}

// IsDay reports whether the slice has been narrowed to a single day.
func (s TimeSlice) IsDay() bool {
	return s.Granularity == GranularityDay
}

// StartString and EndString format the slice boundaries for query construction.
func (s TimeSlice) StartString() string { return s.Start.Format(dateLayout) }
func (s TimeSlice) EndString() string   { return s.End.Format(dateLayout) }

// Split partitions the slice into its next-finer children, per the splitting
// rule: year -> 12 months, month -> N days, day -> no further split.
func (s TimeSlice) Split() []TimeSlice {
	switch s.Granularity {
	case GranularityYear:
		children := make([]TimeSlice, 0, 12)
		for m := time.January; m <= time.December; m++ {
			first := time.Date(s.Start.Year(), m, 1, 0, 0, 0, 0, time.UTC)
			last := first.AddDate(0, 1, -1)
			children = append(children, TimeSlice{
				Start:       first,
				End:         last,
				Granularity: GranularityMonth,
				Label:       first.Format("2006-01"),
			})
		}
		return children
	case GranularityMonth:
		days := daysInMonth(s.Start.Year(), s.Start.Month())
		children := make([]TimeSlice, 0, days)
		for d := 0; d < days; d++ {
			day := s.Start.AddDate(0, 0, d)
			children = append(children, TimeSlice{
				Start:       day,
				End:         day,
				Granularity: GranularityDay,
				Label:       day.Format(dateLayout),
			})
		}
		return children
	default:
		return nil
	}
}

func daysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfNext.AddDate(0, 0, -1)
	return lastOfMonth.Day()
}

// ParseYearWindow parses "YYYY-YYYY" or "YYYY" into an inclusive year range.
func ParseYearWindow(s string) (from, to int, err error) {
	var a, b int
	n, scanErr := fmt.Sscanf(s, "%d-%d", &a, &b)
	if scanErr == nil && n == 2 {
		return a, b, nil
	}
	n, scanErr = fmt.Sscanf(s, "%d", &a)
	if scanErr == nil && n == 1 {
		return a, a, nil
	}
	return 0, 0, fmt.Errorf("invalid year window %q: expected YYYY or YYYY-YYYY", s)
}

// FormatYearWindow is the inverse of ParseYearWindow.
func FormatYearWindow(from, to int) string {
	if from == to {
		return fmt.Sprintf("%04d", from)
	}
	return fmt.Sprintf("%04d-%04d", from, to)
}
