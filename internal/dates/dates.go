// Package dates turns scraper-local date strings into canonical civil dates.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrNoYearCorrection is returned when a year-less day/month cannot be
// placed on or before the reference date within the current or previous
// year. It should not happen for real statement data.
var ErrNoYearCorrection = errors.New("no valid year correction")

// Parse parses s with a Go time layout. Layouts without a year component
// ("02/01", "Jan 2") get their year from CorrectYear against ref.
func Parse(s, layout string, ref civil.Date) (civil.Date, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("dates.Parse: %q with layout %q: %w", s, layout, err)
	}
	if HasYear(layout) {
		return civil.DateOf(t), nil
	}
	d, err := CorrectYear(t.Month(), t.Day(), ref)
	if err != nil {
		return civil.Date{}, fmt.Errorf("dates.Parse: %q: %w", s, err)
	}
	return d, nil
}

// HasYear reports whether layout carries a year ("2006" or "06").
func HasYear(layout string) bool {
	return strings.Contains(layout, "06")
}

// CorrectYear picks the latest year, ref's or the one before, for which
// month/day is a valid date not after ref. Statements only list past
// operations, so a December row seen in January belongs to last year.
func CorrectYear(month time.Month, day int, ref civil.Date) (civil.Date, error) {
	for _, year := range []int{ref.Year, ref.Year - 1} {
		d := civil.Date{Year: year, Month: month, Day: day}
		if !d.IsValid() {
			continue
		}
		if d.After(ref) {
			continue
		}
		return d, nil
	}
	return civil.Date{}, fmt.Errorf("%w: %02d/%02d relative to %s", ErrNoYearCorrection, day, int(month), ref)
}
