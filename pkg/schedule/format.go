package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jdziat/sync-schedules/pkg/core"
)

// FormatRecurrence renders an interval in days the way it is shown next to
// a schedule.
func FormatRecurrence(days int) string {
	switch days {
	case 1:
		return "Daily"
	case 7:
		return "Weekly"
	case 14:
		return "Bi-weekly"
	case 30:
		return "Monthly"
	}
	return fmt.Sprintf("Every %d days", days)
}

// FormatDate renders a start instant in the long display form, e.g.
// "October 19, 2026 at 09:00 AM".
func FormatDate(t time.Time) string {
	return t.Format(core.DateLayout)
}

// FormatCountdown renders d as whole days, hours, minutes and seconds,
// leaving out zero parts. Non-positive durations render as "".
func FormatCountdown(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs <= 0 {
		return ""
	}

	parts := []struct {
		n    int64
		unit string
	}{
		{secs / 86400, "days"},
		{secs % 86400 / 3600, "hours"},
		{secs % 3600 / 60, "minutes"},
		{secs % 60, "seconds"},
	}

	var b strings.Builder
	for _, p := range parts {
		if p.n <= 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatInt(p.n, 10))
		b.WriteByte(' ')
		b.WriteString(p.unit)
	}
	return b.String()
}
