package schedule

import "time"

// IsValid reports whether startAt lies strictly after now. A start equal to
// now is invalid.
func IsValid(startAt, now time.Time) bool {
	return startAt.After(now)
}

// IsValidNow is IsValid against the wall clock.
func IsValidNow(startAt time.Time) bool {
	return IsValid(startAt, time.Now())
}
