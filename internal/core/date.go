package core

import (
	"encoding/json"
	"time"
)

// ISODate is the layout used for dates on the wire and in storage.
const ISODate = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t, in t's own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Validate accepts the zero date (unset) and any normalized calendar day.
func (d Date) Validate() error {
	if d.IsZero() {
		return nil
	}
	if d.Year() < 1 || d.Year() > 9999 {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty returns true if the date is unset.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// SameMonth reports whether d falls in ref's calendar month.
func (d Date) SameMonth(ref Date) bool {
	return !d.IsZero() && d.Year() == ref.Year() && d.Month() == ref.Month()
}

// Between reports whether d lies in [start, end], both inclusive.
func (d Date) Between(start, end Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(ISODate)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// daysIn returns the number of days of month m in year y.
func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// AddMonthsClamped returns d shifted by n months. When d's day does not exist
// in the target month the last day of that month is used.
func (d Date) AddMonthsClamped(n int) Date {
	first := time.Date(d.Year(), d.Time.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := min(d.Day(), daysIn(first.Year(), first.Month()))
	return NewDate(first.Year(), int(first.Month()), day)
}

// AddYearsClamped returns d shifted by n years; Feb 29 becomes Feb 28 on
// non-leap years.
func (d Date) AddYearsClamped(n int) Date {
	y := d.Year() + n
	day := min(d.Day(), daysIn(y, d.Time.Month()))
	return NewDate(y, d.Month(), day)
}
