package export

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/schedule"
)

var (
	now    = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	weekly = core.Schedule{
		ID:           "weekly",
		StartAt:      time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC),
		Label:        "Weekly push",
		IntervalDays: 7,
	}
	daily = core.Schedule{
		ID:           "daily",
		StartAt:      time.Date(2026, 11, 3, 18, 30, 0, 0, time.UTC),
		Label:        "Evening push",
		IntervalDays: 1,
	}
)

func TestRRule(t *testing.T) {
	rule, err := RRule(weekly)
	require.NoError(t, err)
	assert.Equal(t, "FREQ=DAILY;INTERVAL=7", rule)

	rule, err = RRule(daily)
	require.NoError(t, err)
	assert.Equal(t, "FREQ=DAILY;INTERVAL=1", rule)
}

func TestRRule_MatchesUpcoming(t *testing.T) {
	for _, s := range []core.Schedule{weekly, daily, {ID: "x", StartAt: weekly.StartAt, IntervalDays: 30}} {
		r, err := rrule.NewRRule(rrule.ROption{
			Freq:     rrule.DAILY,
			Interval: s.IntervalDays,
			Dtstart:  s.StartAt,
			Count:    5,
		})
		require.NoError(t, err)

		got := schedule.Upcoming(s, s.StartAt.Add(-time.Second), 5)
		want := r.All()
		require.Len(t, got, len(want))
		for i := range want {
			assert.True(t, want[i].Equal(got[i]), "%s occurrence %d: rrule %v, schedule %v", s.ID, i, want[i], got[i])
		}
	}
}

func TestICS_ParsesBack(t *testing.T) {
	out, err := ICS([]core.Schedule{weekly, daily}, now)
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "weekly@sync-schedules", first.Id())
	assert.Equal(t, "Weekly push", first.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "FREQ=DAILY;INTERVAL=7", first.GetProperty(ical.ComponentPropertyRrule).Value)
	assert.Equal(t, "20261102T090000Z", first.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20261102T091500Z", first.GetProperty(ical.ComponentPropertyDtEnd).Value)
	assert.Contains(t, first.GetProperty(ical.ComponentPropertyDescription).Value, "Weekly")

	assert.Equal(t, "FREQ=DAILY;INTERVAL=1", events[1].GetProperty(ical.ComponentPropertyRrule).Value)
}

func TestICS_Empty(t *testing.T) {
	out, err := ICS(nil, now)
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, ProductID)
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
