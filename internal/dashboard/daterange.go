package dashboard

import (
	"fmt"
	"strings"
	"time"
)

type ReportType string

const (
	Weekly  ReportType = "weekly"
	Monthly ReportType = "monthly"
)

func ParseReportType(s string) (ReportType, error) {
	switch rt := ReportType(strings.ToLower(strings.TrimSpace(s))); rt {
	case Weekly, Monthly:
		return rt, nil
	case "":
		return Weekly, nil
	}

	return "", fmt.Errorf("unknown report type %q", s)
}

func (rt ReportType) Toggle() ReportType {
	if rt == Monthly {
		return Weekly
	}

	return Monthly
}

// Range is an inclusive span of calendar days formatted as YYYY-MM-DD. Either
// bound may be empty.
type Range struct {
	Start string
	End   string
}

// DefaultRange returns the ISO week (Monday to Sunday) or calendar month that
// contains now.
func DefaultRange(rt ReportType, now time.Time) Range {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if rt == Monthly {
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		end := start.AddDate(0, 1, -1)

		return Range{Start: start.Format(time.DateOnly), End: end.Format(time.DateOnly)}
	}

	offset := int(day.Weekday())
	if offset == 0 {
		offset = 7
	}

	start := day.AddDate(0, 0, -offset+1)
	end := start.AddDate(0, 0, 6)

	return Range{Start: start.Format(time.DateOnly), End: end.Format(time.DateOnly)}
}

// WithStart sets the start date, moving the end up to it when the new start
// falls after the current end.
func (r Range) WithStart(start string) Range {
	if r.End != "" && after(start, r.End) {
		r.End = start
	}

	r.Start = start

	return r
}

// WithEnd sets the end date, moving the start back to it when the new end
// falls before the current start.
func (r Range) WithEnd(end string) Range {
	if r.Start != "" && after(r.Start, end) {
		r.Start = end
	}

	r.End = end

	return r
}

func (r Range) Complete() bool {
	return r.Start != "" && r.End != ""
}

func (r Range) String() string {
	if !r.Complete() {
		return "All dates"
	}

	return r.Start + " → " + r.End
}

// ValidateDate reports whether s is empty or a YYYY-MM-DD date.
func ValidateDate(s string) error {
	if s == "" {
		return nil
	}

	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}

	return nil
}

func after(a, b string) bool {
	ta, errA := time.Parse(time.DateOnly, a)
	tb, errB := time.Parse(time.DateOnly, b)

	if errA != nil || errB != nil {
		return false
	}

	return ta.After(tb)
}
