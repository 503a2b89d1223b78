package billing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var eventDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

// EventDate is a DD/MM/YYYY calendar date such as an issue or due date.
type EventDate struct {
	t time.Time
}

// NewEventDate validates the triple against the Gregorian calendar.
func NewEventDate(day, month, year int) (EventDate, error) {
	switch {
	case year < 1:
		return EventDate{}, fmt.Errorf("%w: year %d is out of range", ErrInvalidDate, year)
	case month < 1 || month > 12:
		return EventDate{}, fmt.Errorf("%w: month must be in 1..12, got %d", ErrInvalidDate, month)
	case day < 1:
		return EventDate{}, fmt.Errorf("%w: day is out of range for month", ErrInvalidDate)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow, so 31/02 becomes 03/03.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return EventDate{}, fmt.Errorf("%w: day is out of range for month", ErrInvalidDate)
	}
	return EventDate{t: t}, nil
}

// ParseEventDate finds the first D/M/YYYY in text.
func ParseEventDate(text string) (EventDate, error) {
	m := eventDateRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return EventDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	d, err := NewEventDate(day, month, year)
	if err != nil {
		return EventDate{}, fmt.Errorf("%q: %w", text, err)
	}
	return d, nil
}

// EventDateFromTime drops the clock part of t.
func EventDateFromTime(t time.Time) EventDate {
	return EventDate{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d EventDate) Day() int   { return d.t.Day() }
func (d EventDate) Month() int { return int(d.t.Month()) }
func (d EventDate) Year() int  { return d.t.Year() }

// Time returns midnight UTC of the date.
func (d EventDate) Time() time.Time { return d.t }

// String renders "DD/MM/YYYY".
func (d EventDate) String() string { return d.t.Format("02/01/2006") }

// ISO renders "YYYY-MM-DD".
func (d EventDate) ISO() string { return d.t.Format(time.DateOnly) }

// ReferenceMonth is the billing period the date falls in.
func (d EventDate) ReferenceMonth() ReferenceMonth {
	return ReferenceMonthFromDate(d.t)
}
