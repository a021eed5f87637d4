package schedule

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jdziat/sync-schedules/pkg/core"
)

// Occurrence returns the k-th occurrence of s, counting the start as zero.
// The wall-clock time of day of StartAt is kept; only the date advances.
func Occurrence(s core.Schedule, k int) time.Time {
	return s.StartAt.AddDate(0, 0, k*s.IntervalDays)
}

// Next returns the first occurrence of s strictly after from. It returns the
// zero time for a schedule without a positive interval that already started.
func Next(s core.Schedule, from time.Time) time.Time {
	if from.Before(s.StartAt) {
		return s.StartAt
	}
	if s.IntervalDays < 1 {
		return time.Time{}
	}

	step := time.Duration(s.IntervalDays) * day
	k := int(from.Sub(s.StartAt) / step)
	next := Occurrence(s, k)
	for !next.After(from) {
		k++
		next = Occurrence(s, k)
	}
	// AddDate can land an hour early or late around DST changes, so step back
	// while the previous occurrence is still after from.
	for k > 0 {
		prev := Occurrence(s, k-1)
		if !prev.After(from) {
			break
		}
		k--
		next = prev
	}
	return next
}

// Previous returns the last occurrence of s at or before at. The second
// result is false when s has not started by then.
func Previous(s core.Schedule, at time.Time) (time.Time, bool) {
	if at.Before(s.StartAt) {
		return time.Time{}, false
	}
	if s.IntervalDays < 1 {
		return s.StartAt, true
	}
	return Next(s, at).AddDate(0, 0, -s.IntervalDays), true
}

// Upcoming returns the next n occurrences of s after from.
func Upcoming(s core.Schedule, from time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	t := from
	for len(out) < n {
		t = Next(s, t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out
}

// Recurrence adapts a schedule to cron.Schedule so it can be registered with
// a cron.Cron.
type Recurrence struct {
	Schedule core.Schedule
}

var _ cron.Schedule = Recurrence{}

// Every wraps s as a cron.Schedule.
func Every(s core.Schedule) Recurrence {
	return Recurrence{Schedule: s}
}

func (r Recurrence) Next(from time.Time) time.Time {
	return Next(r.Schedule, from)
}
