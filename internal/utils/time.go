package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/vigil/internal/constants"
)

const minutesPerDay = 24 * 60

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// ParseClock parses an HH:MM string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse(constants.TimeFormat, s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q (expected HH:MM): %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// FormatClock formats hour and minute as HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextOccurrence returns the first instant at hour:minute that is strictly
// after now, in now's location. A time equal to now counts as already passed
// and rolls to the following day.
func NextOccurrence(hour, minute int, now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return candidate
}

// PreviousOccurrence returns the latest instant at hour:minute that is at or
// before now.
func PreviousOccurrence(hour, minute int, now time.Time) time.Time {
	next := NextOccurrence(hour, minute, now)
	return time.Date(next.Year(), next.Month(), next.Day()-1, hour, minute, 0, 0, now.Location())
}

// WarningTime subtracts lead minutes from hour:minute on a 24-hour clock,
// borrowing across hours and wrapping past midnight. The result is a
// wall-clock time, not an instant.
func WarningTime(hour, minute, lead int) (int, int) {
	total := hour*60 + minute - lead
	total = ((total % minutesPerDay) + minutesPerDay) % minutesPerDay
	return total / 60, total % 60
}
