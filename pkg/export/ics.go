// Package export renders schedules in external formats.
package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/schedule"
)

// ProductID identifies the exporter in the PRODID property.
const ProductID = "-//sync-schedules//syncsched//EN"

// EventDuration is the length given to each exported occurrence.
const EventDuration = 15 * time.Minute

// RRule returns the recurrence rule of s without DTSTART, for example
// "FREQ=DAILY;INTERVAL=7".
func RRule(s core.Schedule) (string, error) {
	opt := rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: s.IntervalDays,
		Dtstart:  s.StartAt,
	}
	// NewRRule validates the option set.
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("export: recurrence of %s: %w", s.ID, err)
	}
	return opt.RRuleString(), nil
}

// ICS renders schedules as an iCalendar document with one recurring event
// per schedule. now is written as DTSTAMP.
func ICS(schedules []core.Schedule, now time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, s := range schedules {
		rule, err := RRule(s)
		if err != nil {
			return "", err
		}

		ev := cal.AddEvent(s.ID + "@sync-schedules")
		ev.SetDtStampTime(now)
		ev.SetStartAt(s.StartAt)
		ev.SetEndAt(s.StartAt.Add(EventDuration))
		ev.SetSummary(s.Label)
		ev.SetDescription("Git sync (" + schedule.FormatRecurrence(s.IntervalDays) + ")")
		ev.SetProperty(ical.ComponentPropertyRrule, rule)
	}
	return cal.Serialize(), nil
}
