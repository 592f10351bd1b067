package shared

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"kpitracker/internal/domain/errs"
	"kpitracker/internal/domain/performance"
)

type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := defaultLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Limit: limit, Offset: offset}
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and keeps only the calendar date.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}

// PeriodParam reads ?period=YYYY-MM, or ?month=&year=, falling back to the
// month containing now.
func PeriodParam(r *http.Request, now time.Time) (performance.Period, error) {
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("period")); raw != "" {
		return performance.ParsePeriod(raw)
	}
	month, year := q.Get("month"), q.Get("year")
	if month == "" && year == "" {
		return performance.PeriodOf(now), nil
	}
	m, errM := strconv.Atoi(month)
	y, errY := strconv.Atoi(year)
	if errM != nil || errY != nil {
		return performance.Period{}, errs.Validation("month and year must both be integers")
	}
	return performance.NewPeriod(m, y)
}
