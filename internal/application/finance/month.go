package finance

import (
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
)

// MonthLayout is the wire format of a month, e.g. "2024-03"
const MonthLayout = "2006-01"

// ParseMonth parses "YYYY-MM" into the first instant of that month in UTC
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_MONTH", "Month must be formatted as YYYY-MM")
	}
	return t, nil
}

// MonthRange returns the first and last instant of the month containing t
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}
