package util

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by the upstream API.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// ValidateDateRange checks both dates and that start is not after end.
func ValidateDateRange(start, end string) error {
	from, err := ParseDate(start)
	if err != nil {
		return err
	}
	to, err := ParseDate(end)
	if err != nil {
		return err
	}
	if from.After(to) {
		return fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return nil
}
