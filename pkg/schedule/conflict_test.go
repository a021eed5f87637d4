package schedule

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/sync-schedules/pkg/core"
)

func sched(id string, start time.Time, interval int) core.Schedule {
	return core.Schedule{ID: id, StartAt: start, Label: id, IntervalDays: interval}
}

func at(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestFindConflict_WeeklyFourteenDaysApart(t *testing.T) {
	a := sched("a", at(2026, 11, 2, 9, 0, 0), 7)
	b := sched("b", at(2026, 11, 16, 9, 0, 0), 7)

	got, ok := FindConflict(a, []core.Schedule{b})
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestFindConflict_WeeklyTenDaysApart(t *testing.T) {
	a := sched("a", at(2026, 11, 2, 9, 0, 0), 7)
	b := sched("b", at(2026, 11, 12, 9, 0, 0), 7)

	_, ok := FindConflict(a, []core.Schedule{b})
	assert.False(t, ok)
}

func TestFindConflict_DifferentIntervalsSameStart(t *testing.T) {
	start := at(2026, 11, 2, 9, 0, 0)
	a := sched("a", start, 7)
	b := sched("b", start, 14)

	_, ok := FindConflict(a, []core.Schedule{b})
	assert.False(t, ok)
}

func TestFindConflict_DifferentIntervalsSharingADay(t *testing.T) {
	// Every 2 days and every 3 days both fire on day 6, but different
	// intervals are never reported.
	start := at(2026, 11, 2, 9, 0, 0)
	a := sched("a", start, 2)
	b := sched("b", start, 3)

	assert.Equal(t, Occurrence(a, 3), Occurrence(b, 2))
	_, ok := FindConflict(a, []core.Schedule{b})
	assert.False(t, ok)
}

func TestFindConflict_DifferentTimeOfDay(t *testing.T) {
	base := at(2026, 11, 2, 9, 0, 0)
	cases := map[string]time.Time{
		"hour":   at(2026, 11, 9, 10, 0, 0),
		"minute": at(2026, 11, 9, 9, 1, 0),
		"second": at(2026, 11, 9, 9, 0, 1),
	}
	for name, other := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := FindConflict(sched("a", base, 7), []core.Schedule{sched("b", other, 7)})
			assert.False(t, ok)
		})
	}
}

func TestFindConflict_MidnightBoundaryIsNotATimeMatch(t *testing.T) {
	a := sched("a", at(2026, 11, 2, 23, 59, 59), 1)
	b := sched("b", at(2026, 11, 3, 0, 0, 0), 1)

	assert.Equal(t, time.Second, b.StartAt.Sub(a.StartAt))
	_, ok := FindConflict(a, []core.Schedule{b})
	assert.False(t, ok)
}

func TestFindConflict_DailySameTimeAlwaysCollides(t *testing.T) {
	a := sched("a", at(2026, 11, 2, 6, 30, 0), 1)
	for _, offset := range []int{0, 1, 5, 29, 365} {
		b := sched("b", a.StartAt.AddDate(0, 0, offset), 1)
		_, ok := FindConflict(a, []core.Schedule{b})
		assert.True(t, ok, "offset %d", offset)
	}
}

func TestFindConflict_IdenticalStartSameInterval(t *testing.T) {
	start := at(2026, 11, 2, 9, 0, 0)
	_, ok := FindConflict(sched("a", start, 30), []core.Schedule{sched("b", start, 30)})
	assert.True(t, ok)
}

func TestFindConflict_DayDiffTruncates(t *testing.T) {
	// Both read 09:00 on their own clocks, but b's zone is two hours ahead,
	// so the real distance is 6 days 22 hours: truncated to 6, not rounded to 7.
	plusTwo := time.FixedZone("UTC+2", 2*60*60)
	a := sched("a", at(2026, 11, 2, 9, 0, 0), 7)
	b := sched("b", time.Date(2026, 11, 9, 9, 0, 0, 0, plusTwo), 7)

	assert.Equal(t, int64(6), dayDiff(a.StartAt, b.StartAt))
	_, ok := FindConflict(a, []core.Schedule{b})
	assert.False(t, ok)
}

func TestFindConflict_FirstMatchWins(t *testing.T) {
	c := sched("c", at(2026, 11, 2, 9, 0, 0), 7)
	x := sched("x", at(2026, 11, 9, 9, 0, 0), 7)
	y := sched("y", at(2026, 11, 16, 9, 0, 0), 7)

	got, ok := FindConflict(c, []core.Schedule{x, y})
	require.True(t, ok)
	assert.Equal(t, "x", got.ID)

	got, ok = FindConflict(c, []core.Schedule{y, x})
	require.True(t, ok)
	assert.Equal(t, "y", got.ID)
}

func TestFindConflict_SkipsNonMatchingBeforeMatch(t *testing.T) {
	c := sched("c", at(2026, 11, 2, 9, 0, 0), 7)
	miss := sched("miss", at(2026, 11, 3, 9, 0, 0), 7)
	hit := sched("hit", at(2026, 11, 23, 9, 0, 0), 7)

	got, ok := FindConflict(c, []core.Schedule{miss, hit})
	require.True(t, ok)
	assert.Equal(t, "hit", got.ID)
}

func TestFindConflict_Empty(t *testing.T) {
	got, ok := FindConflict(sched("c", at(2026, 11, 2, 9, 0, 0), 7), nil)
	assert.False(t, ok)
	assert.Equal(t, core.Schedule{}, got)
}

func TestFindConflict_DoesNotMutateInput(t *testing.T) {
	existing := []core.Schedule{
		sched("x", at(2026, 11, 9, 9, 0, 0), 7),
		sched("y", at(2026, 11, 10, 9, 0, 0), 7),
	}
	before := append([]core.Schedule(nil), existing...)

	FindConflict(sched("c", at(2026, 11, 2, 9, 0, 0), 7), existing)
	assert.Equal(t, before, existing)
}

func TestCollides_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := at(2026, 11, 2, 0, 0, 0)
	intervals := []int{1, 2, 3, 7, 14, 30}

	random := func(id string) core.Schedule {
		start := base.
			AddDate(0, 0, rng.Intn(60)).
			Add(time.Duration(rng.Intn(3)) * time.Hour).
			Add(time.Duration(rng.Intn(2)) * time.Minute)
		return sched(id, start, intervals[rng.Intn(len(intervals))])
	}

	hits := 0
	for i := 0; i < 2000; i++ {
		a, b := random("a"), random("b")
		ab := Collides(a, b)
		assert.Equal(t, ab, Collides(b, a), "a=%v b=%v", a, b)

		_, found := FindConflict(b, []core.Schedule{a})
		assert.Equal(t, ab, found)
		if ab {
			hits++
		}
	}
	assert.Positive(t, hits, "sample should contain some collisions")
}

func TestCollides_NonPositiveIntervalNeverCollides(t *testing.T) {
	start := at(2026, 11, 2, 9, 0, 0)
	assert.False(t, Collides(sched("a", start, 0), sched("b", start, 0)))
}

func TestExcluding(t *testing.T) {
	list := []core.Schedule{
		sched("a", at(2026, 11, 2, 9, 0, 0), 7),
		sched("b", at(2026, 11, 3, 9, 0, 0), 7),
		sched("c", at(2026, 11, 4, 9, 0, 0), 7),
	}

	out := Excluding(list, "b")
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
	assert.Len(t, list, 3, "input must not be modified")

	assert.Len(t, Excluding(list, "missing"), 3)
}

func TestFindConflict_EditExcludesItself(t *testing.T) {
	original := sched("a", at(2026, 11, 2, 9, 0, 0), 7)
	other := sched("b", at(2026, 11, 3, 9, 0, 0), 7)
	store := []core.Schedule{original, other}

	edited := original
	edited.Label = "renamed"

	_, ok := FindConflict(edited, store)
	assert.True(t, ok, "without exclusion the schedule collides with its old self")

	_, ok = FindConflict(edited, Excluding(store, edited.ID))
	assert.False(t, ok)
}
