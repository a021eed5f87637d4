package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/schedule"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

// noColor reports whether output to w should stay plain. fatih/color only
// detects a terminal on stdout.
func noColor(w io.Writer) bool {
	if color.NoColor {
		return true
	}
	f, ok := w.(*os.File)
	return !ok || (f != os.Stdout && f != os.Stderr)
}

func printSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

func printWarning(w io.Writer, msg string) {
	_, _ = warningColor.Fprintf(w, "⚠ %s\n", msg)
}

func printInfo(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, msg)
}

func printEmptyState(w io.Writer, msg string) {
	_, _ = dimColor.Fprintf(w, "  %s\n", msg)
}

func printLabelValue(w io.Writer, label, value string) {
	_, _ = labelColor.Fprintf(w, "  %s: ", label)
	_, _ = valueColor.Fprintln(w, value)
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable prints a table with padded columns.
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := len([]rune(cell)); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	pad := func(s string, width int) string {
		return s + strings.Repeat(" ", width-len([]rune(s)))
	}

	_, _ = fmt.Fprint(w, "  ")
	for i, h := range headers {
		if i > 0 {
			_, _ = fmt.Fprint(w, "  ")
		}
		_, _ = headerColor.Fprint(w, pad(h, widths[i]))
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprint(w, "  ")
	for i, width := range widths {
		if i > 0 {
			_, _ = fmt.Fprint(w, "  ")
		}
		_, _ = fmt.Fprint(w, strings.Repeat("-", width))
	}
	_, _ = fmt.Fprintln(w)

	for _, row := range rows {
		_, _ = fmt.Fprint(w, "  ")
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				_, _ = fmt.Fprint(w, "  ")
			}
			_, _ = fmt.Fprint(w, pad(cell, widths[i]))
		}
		_, _ = fmt.Fprintln(w)
	}
}

// scheduleView is the JSON and table form of a schedule.
type scheduleView struct {
	Index        int       `json:"index"`
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	StartAt      time.Time `json:"start_at"`
	IntervalDays int       `json:"interval_days"`
	Recurrence   string    `json:"recurrence"`
	NextAt       time.Time `json:"next_at"`
	Skipping     bool      `json:"skipping,omitempty"`
}

func viewSchedules(schedules []core.Schedule, now time.Time, skipping func(core.Schedule) bool) []scheduleView {
	views := make([]scheduleView, 0, len(schedules))
	for i, s := range schedules {
		v := scheduleView{
			Index:        i + 1,
			ID:           s.ID,
			Label:        s.Label,
			StartAt:      s.StartAt,
			IntervalDays: s.IntervalDays,
			Recurrence:   schedule.FormatRecurrence(s.IntervalDays),
			NextAt:       schedule.Next(s, now),
		}
		if skipping != nil {
			v.Skipping = skipping(s)
		}
		views = append(views, v)
	}
	return views
}

func scheduleRows(views []scheduleView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		next := schedule.FormatDate(v.NextAt)
		if v.Skipping {
			next += " (skipped)"
		}
		rows = append(rows, []string{
			fmt.Sprint(v.Index),
			shortID(v.ID),
			v.Label,
			v.Recurrence,
			next,
		})
	}
	return rows
}

var scheduleHeaders = []string{"#", "ID", "LABEL", "REPEATS", "NEXT SYNC"}

// shortID abbreviates a UUID for display. Commands accept the prefix back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runRows(runs []*core.SyncRun) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		id := shortID(r.ScheduleID)
		if id == "" {
			id = "manual"
		}
		rows = append(rows, []string{
			r.StartedAt.Format(time.DateTime),
			id,
			string(r.Status),
			r.Duration().Round(time.Millisecond).String(),
			r.Error,
		})
	}
	return rows
}

var runHeaders = []string{"STARTED", "SCHEDULE", "STATUS", "DURATION", "ERROR"}
