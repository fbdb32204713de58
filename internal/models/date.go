package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar-day layout used for every stored date
const DateLayout = "2006-01-02"

// Date is a calendar day in ISO form (YYYY-MM-DD)
type Date string

// DateOf returns the calendar day of t in t's location
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate accepts the common day and timestamp layouts and normalises to ISO
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		DateLayout,
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"02/01/2006",
		"02-01-2006",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}

	return "", &ValidationError{Field: "date", Message: fmt.Sprintf("unable to parse date %q", s)}
}

// Time returns the day at midnight UTC
func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

// Valid reports whether d is a well-formed ISO day
func (d Date) Valid() bool {
	_, err := d.Time()
	return err == nil
}

// SameDay reports whether d falls on ref's calendar day
func (d Date) SameDay(ref time.Time) bool {
	t, err := d.Time()
	if err != nil {
		return false
	}
	y, m, day := ref.Date()
	return t.Year() == y && t.Month() == m && t.Day() == day
}

// SameMonth reports whether d falls in ref's calendar month and year
func (d Date) SameMonth(ref time.Time) bool {
	t, err := d.Time()
	if err != nil {
		return false
	}
	return t.Year() == ref.Year() && t.Month() == ref.Month()
}

func (d Date) String() string {
	return string(d)
}
