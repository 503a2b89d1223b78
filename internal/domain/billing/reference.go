package billing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const minReferenceYear = 1900

var (
	currentMarkerRe = regexp.MustCompile(`(?i)\s*\((atual|current)\)\s*$`)
	referenceRe     = regexp.MustCompile(`\b(\d{2})/(\d{4})\b`)
)

// ReferenceMonth is the MM/YYYY billing period printed on an invoice.
// A trailing "(Atual)" or "(Current)" marker is accepted on input and discarded.
type ReferenceMonth struct {
	month time.Month
	year  int
}

// NewReferenceMonth validates month and year.
func NewReferenceMonth(month, year int) (ReferenceMonth, error) {
	if month < 1 || month > 12 {
		return ReferenceMonth{}, fmt.Errorf("%w: month %d out of range", ErrInvalidReference, month)
	}
	if year < minReferenceYear || year > 9999 {
		return ReferenceMonth{}, fmt.Errorf("%w: year %d out of range", ErrInvalidReference, year)
	}
	return ReferenceMonth{month: time.Month(month), year: year}, nil
}

// ParseReferenceMonth finds the first MM/YYYY in text.
func ParseReferenceMonth(text string) (ReferenceMonth, error) {
	s := currentMarkerRe.ReplaceAllString(strings.TrimSpace(text), "")

	m := referenceRe.FindStringSubmatch(s)
	if m == nil {
		return ReferenceMonth{}, fmt.Errorf("%w: %q", ErrInvalidReference, text)
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	return NewReferenceMonth(month, year)
}

// ReferenceMonthFromDate takes the month and year of t.
func ReferenceMonthFromDate(t time.Time) ReferenceMonth {
	return ReferenceMonth{month: t.Month(), year: t.Year()}
}

func (r ReferenceMonth) Month() int { return int(r.month) }
func (r ReferenceMonth) Year() int  { return r.year }

// IsZero reports whether r was never set.
func (r ReferenceMonth) IsZero() bool { return r.year == 0 }

// Components returns (month, year).
func (r ReferenceMonth) Components() (int, int) {
	return int(r.month), r.year
}

// String renders "MM/YYYY".
func (r ReferenceMonth) String() string {
	return fmt.Sprintf("%02d/%04d", int(r.month), r.year)
}

// Date is the first day of the month in UTC, the persisted form.
func (r ReferenceMonth) Date() time.Time {
	return time.Date(r.year, r.month, 1, 0, 0, 0, 0, time.UTC)
}

// Key returns YYYY*100+MM, which sorts chronologically.
func (r ReferenceMonth) Key() int {
	return r.year*100 + int(r.month)
}

// Before reports whether r is earlier than other.
func (r ReferenceMonth) Before(other ReferenceMonth) bool {
	return r.Key() < other.Key()
}

// MarshalText implements encoding.TextMarshaler.
func (r ReferenceMonth) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *ReferenceMonth) UnmarshalText(text []byte) error {
	parsed, err := ParseReferenceMonth(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
