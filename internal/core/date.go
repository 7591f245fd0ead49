package core

import "time"

// Date is a calendar date with no time-of-day component. All dates in
// the engine are UTC midnight; month-scoped values are normalized to the
// first of the month before comparison.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// MonthStart returns the first day of the date's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// NextMonthStart returns the first day of the following month.
func (d Date) NextMonthStart() Date {
	return NewDate(d.Year(), int(d.Month())+1, 1)
}

// DaysInMonth returns the calendar length of the date's month,
// accounting for leap years.
func (d Date) DaysInMonth() int {
	// Day 0 of the next month is the last day of this month.
	last := time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return last.Day()
}

// SameMonth reports whether two dates fall in the same calendar month.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.AddDate(0, 0, n))
}

// DaysUntil returns the whole days from d to o, negative if o is earlier.
func (d Date) DaysUntil(o Date) int {
	return int(o.Sub(d.Time) / (24 * time.Hour))
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports calendar-date equality.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// Format layout for dates at the storage and API boundary.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DateLayout)
}
