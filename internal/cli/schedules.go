package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/schedule"
)

// scheduleFlags are the fields shared by add and edit.
type scheduleFlags struct {
	date  string
	clock string
	every int
	label string
}

func (f *scheduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "First sync date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.clock, "time", "", "Time of day (HH:MM or HH:MM:SS, 24-hour)")
	cmd.Flags().IntVar(&f.every, "every", 1, "Repeat interval in days")
	cmd.Flags().StringVar(&f.label, "label", "", "Display label (defaults to the start date)")
}

// describeRejection turns a registry error into a message for the user.
func describeRejection(err error) error {
	var conflict *core.ConflictError
	switch {
	case errors.As(err, &conflict):
		return fmt.Errorf("schedule conflicts with %q (%s, %s)", conflict.Existing.Label,
			schedule.FormatDate(conflict.Existing.StartAt),
			schedule.FormatRecurrence(conflict.Existing.IntervalDays))
	case errors.Is(err, core.ErrInvalidTiming):
		return errors.New("the start time must be in the future")
	}
	return err
}

func newAddCmd(opts *options) *cobra.Command {
	var f scheduleFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a sync schedule",
		Long: `Add a schedule that first syncs at --date --time and repeats every --every days.

The schedule is rejected when the start is not in the future or when it would
sync at the same moment as an existing schedule.`,
		Example: "  syncsched add --date 2026-11-02 --time 21:30 --every 7 --label weekly",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			start, err := schedule.ParseStart(f.date, f.clock, a.loc)
			if err != nil {
				return err
			}
			s, err := a.reg.Add(ctx, core.Draft{StartAt: start, Label: f.label, IntervalDays: f.every})
			if err != nil {
				return describeRejection(err)
			}
			if err := a.reg.Save(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, s)
			}
			printSuccess(out, fmt.Sprintf("Added %q: %s, %s", s.Label,
				schedule.FormatDate(s.StartAt), schedule.FormatRecurrence(s.IntervalDays)))
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func newEditCmd(opts *options) *cobra.Command {
	var f scheduleFlags
	cmd := &cobra.Command{
		Use:   "edit <schedule>",
		Short: "Change a sync schedule",
		Long: `Change the start, interval or label of a schedule. Fields that are not given
keep their current values. The edited schedule is checked against every other
schedule but not against its old self.

<schedule> is a list number, an ID or a unique ID prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := a.resolve(args[0])
			if err != nil {
				return err
			}

			d := core.Draft{StartAt: current.StartAt, Label: current.Label, IntervalDays: current.IntervalDays}
			flags := cmd.Flags()
			if flags.Changed("date") || flags.Changed("time") {
				date := current.StartAt.In(a.loc).Format("2006-01-02")
				clock := current.StartAt.In(a.loc).Format("15:04:05")
				if flags.Changed("date") {
					date = f.date
				}
				if flags.Changed("time") {
					clock = f.clock
				}
				if d.StartAt, err = schedule.ParseStart(date, clock, a.loc); err != nil {
					return err
				}
			}
			if flags.Changed("every") {
				d.IntervalDays = f.every
			}
			if flags.Changed("label") {
				d.Label = f.label
			}

			s, err := a.reg.Update(ctx, current.ID, d)
			if err != nil {
				return describeRejection(err)
			}
			if err := a.reg.Save(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, s)
			}
			printSuccess(out, fmt.Sprintf("Updated %q: %s, %s", s.Label,
				schedule.FormatDate(s.StartAt), schedule.FormatRecurrence(s.IntervalDays)))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <schedule>",
		Aliases: []string{"remove"},
		Short:   "Remove a sync schedule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			if err := a.reg.Remove(ctx, s.ID); err != nil {
				return err
			}
			if err := a.reg.Save(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, s)
			}
			printSuccess(out, fmt.Sprintf("Removed %q", s.Label))
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List sync schedules",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.dispatcher(nil)
			if err != nil {
				return err
			}
			views := viewSchedules(a.reg.List(), time.Now(), d.Skipping)

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, views)
			}
			if len(views) == 0 {
				printEmptyState(out, "No schedules. Add one with: syncsched add --date YYYY-MM-DD --time HH:MM")
				return nil
			}
			printTable(out, scheduleHeaders, scheduleRows(views))
			return nil
		},
	}
}
