package schedule

import (
	"time"

	"github.com/jdziat/sync-schedules/pkg/core"
)

// day is the fixed day length used for start offsets. Calendar effects such
// as DST transitions are deliberately not taken into account.
const day = 24 * time.Hour

// FindConflict returns the first schedule in existing that collides with
// candidate, scanning in the given order. The second result is false when
// there is no conflict.
//
// When revalidating an edit, callers must remove the edited schedule from
// existing first; see Excluding.
func FindConflict(candidate core.Schedule, existing []core.Schedule) (core.Schedule, bool) {
	for _, s := range existing {
		if Collides(candidate, s) {
			return s, true
		}
	}
	return core.Schedule{}, false
}

// Collides reports whether a and b are flagged as conflicting.
//
// Only schedules sharing the same interval can collide: two schedules with
// different intervals are never reported, even when their occurrences happen
// to meet on a common multiple of both intervals. For equal intervals the
// start times must match on hour, minute and second, and the whole-day
// distance between the starts must be a multiple of the interval.
func Collides(a, b core.Schedule) bool {
	if a.IntervalDays != b.IntervalDays || a.IntervalDays < 1 {
		return false
	}
	if !sameTimeOfDay(a.StartAt, b.StartAt) {
		return false
	}
	return dayDiff(a.StartAt, b.StartAt)%int64(a.IntervalDays) == 0
}

// Excluding returns a copy of schedules without the one whose ID is id.
func Excluding(schedules []core.Schedule, id string) []core.Schedule {
	out := make([]core.Schedule, 0, len(schedules))
	for _, s := range schedules {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// sameTimeOfDay compares the clock fields one by one, so 23:59:59 and
// 00:00:00 never match even though they are a second apart.
func sameTimeOfDay(t1, t2 time.Time) bool {
	return t1.Hour() == t2.Hour() &&
		t1.Minute() == t2.Minute() &&
		t1.Second() == t2.Second()
}

// dayDiff is |t1 - t2| in whole days, truncated.
func dayDiff(t1, t2 time.Time) int64 {
	d := t1.Sub(t2)
	if d < 0 {
		d = -d
	}
	return int64(d / day)
}
