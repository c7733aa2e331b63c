package types

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	ierr "github.com/flexprice/posbilling/internal/errors"
)

// FiscalYear is an April-to-March accounting year labelled YYYY-YY,
// e.g. 2025-26 covers 2025-04-01 through 2026-03-31.
type FiscalYear string

// FiscalYearStartMonth is the first month of every fiscal year
const FiscalYearStartMonth = time.April

var fiscalYearPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// FiscalYearOf returns the fiscal year a calendar date belongs to. The
// calendar date is read in the location carried by t, so callers must
// convert wall-clock instants into the business timezone first.
func FiscalYearOf(t time.Time) FiscalYear {
	start := t.Year()
	if t.Month() < FiscalYearStartMonth {
		start--
	}
	return fiscalYearStarting(start)
}

func fiscalYearStarting(start int) FiscalYear {
	return FiscalYear(fmt.Sprintf("%04d-%02d", start, (start+1)%100))
}

// ParseFiscalYear validates a YYYY-YY label. The suffix must be the two
// digit year following the start year.
func ParseFiscalYear(s string) (FiscalYear, error) {
	m := fiscalYearPattern.FindStringSubmatch(s)
	if m == nil {
		return "", ierr.NewError("invalid fiscal year format").
			WithHint("Fiscal year must look like 2025-26").
			WithReportableDetails(map[string]any{
				"fiscal_year": s,
			}).
			Mark(ierr.ErrValidation)
	}

	start, _ := strconv.Atoi(m[1])
	suffix, _ := strconv.Atoi(m[2])
	if (start+1)%100 != suffix {
		return "", ierr.NewError("fiscal year suffix does not follow start year").
			WithHintf("Did you mean %s?", fiscalYearStarting(start)).
			WithReportableDetails(map[string]any{
				"fiscal_year": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return FiscalYear(s), nil
}

func (fy FiscalYear) String() string {
	return string(fy)
}

// Validate checks the label format
func (fy FiscalYear) Validate() error {
	_, err := ParseFiscalYear(string(fy))
	return err
}

// StartYear returns the calendar year in which the fiscal year begins
func (fy FiscalYear) StartYear() int {
	if len(fy) < 4 {
		return 0
	}
	start, err := strconv.Atoi(string(fy)[:4])
	if err != nil {
		return 0
	}
	return start
}

// Next returns the following fiscal year
func (fy FiscalYear) Next() FiscalYear {
	return fiscalYearStarting(fy.StartYear() + 1)
}

// Bounds returns the half-open interval [start, end) of the fiscal year in loc
func (fy FiscalYear) Bounds(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(fy.StartYear(), FiscalYearStartMonth, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(1, 0, 0)
}

// Contains reports whether t falls inside the fiscal year
func (fy FiscalYear) Contains(t time.Time) bool {
	return FiscalYearOf(t) == fy
}
