package performance

import (
	"fmt"
	"time"

	"kpitracker/internal/domain/errs"
)

// Period is a calendar month used to bucket achievements.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	return p, p.Validate()
}

// PeriodOf returns the UTC calendar month containing t.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// ParsePeriod reads the "YYYY-MM" form.
func ParsePeriod(value string) (Period, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return Period{}, errs.Validation("period must be YYYY-MM")
	}
	return PeriodOf(t), nil
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return errs.Validation("month must be between 1 and 12")
	}
	if p.Year < 1 || p.Year > 9999 {
		return errs.Validation("year must be between 1 and 9999")
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Bounds returns the half-open UTC range [start, end) covered by the period.
func (p Period) Bounds() (time.Time, time.Time) {
	start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Contains compares calendar dates, so the location of d is kept as given.
func (p Period) Contains(d time.Time) bool {
	return d.Year() == p.Year && int(d.Month()) == p.Month
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

const dateLayout = "2006-01-02"
