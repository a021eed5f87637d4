package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// String renders t as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On returns the instant at t on the calendar day of date, in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, loc)
}

// TimeOfDayErrorKind classifies a TimeOfDayError.
type TimeOfDayErrorKind int

const (
	InputFormat TimeOfDayErrorKind = iota
	ParseHours
	ParseMinutes
	ParseSeconds
	InvalidHours
	InvalidMinutes
	InvalidSeconds
)

func (k TimeOfDayErrorKind) String() string {
	switch k {
	case InputFormat:
		return "expected HH:MM:SS"
	case ParseHours:
		return "could not parse hours"
	case ParseMinutes:
		return "could not parse minutes"
	case ParseSeconds:
		return "could not parse seconds"
	case InvalidHours:
		return "hours not between 0 and 23"
	case InvalidMinutes:
		return "minutes not between 0 and 59"
	case InvalidSeconds:
		return "seconds not between 0 and 59"
	default:
		return "unknown time of day error"
	}
}

// TimeOfDayError is returned by ParseTimeOfDay.
type TimeOfDayError struct {
	Input string
	Kind  TimeOfDayErrorKind
}

func (e *TimeOfDayError) Error() string {
	return fmt.Sprintf("syncsched: invalid time of day %q: %s", e.Input, e.Kind)
}

// ParseTimeOfDay parses a 24-hour "HH:MM:SS" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return TimeOfDay{}, &TimeOfDayError{Input: s, Kind: InputFormat}
	}

	fields := [3]struct {
		parseKind TimeOfDayErrorKind
		rangeKind TimeOfDayErrorKind
		max       int
	}{
		{ParseHours, InvalidHours, 23},
		{ParseMinutes, InvalidMinutes, 59},
		{ParseSeconds, InvalidSeconds, 59},
	}

	var vals [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return TimeOfDay{}, &TimeOfDayError{Input: s, Kind: f.parseKind}
		}
		if n < 0 || n > f.max {
			return TimeOfDay{}, &TimeOfDayError{Input: s, Kind: f.rangeKind}
		}
		vals[i] = n
	}
	return TimeOfDay{Hour: vals[0], Minute: vals[1], Second: vals[2]}, nil
}

// ParseStart combines a "2006-01-02" date and an "HH:MM" or "HH:MM:SS" time
// into a start instant in loc (time.Local when nil).
func ParseStart(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("syncsched: invalid date %q: %w", date, err)
	}
	clock = strings.TrimSpace(clock)
	if strings.Count(clock, ":") == 1 {
		clock += ":00"
	}
	tod, err := ParseTimeOfDay(clock)
	if err != nil {
		return time.Time{}, err
	}
	return tod.On(d, loc), nil
}
