package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/schedule"
	"github.com/jdziat/sync-schedules/pkg/security"
)

type nextView struct {
	Schedule core.Schedule `json:"schedule"`
	At       time.Time     `json:"at"`
	In       string        `json:"in"`
}

func newNextCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show when the next sync happens",
		Args:  cobra.NoArgs,
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
			out := cmd.OutOrStdout()
			s, at, ok := d.NextSync()
			if !ok {
				if opts.jsonOutput {
					return outputJSON(out, nil)
				}
				printEmptyState(out, "No sync scheduled")
				return nil
			}
			if opts.jsonOutput {
				return outputJSON(out, nextView{Schedule: s, At: at, In: schedule.FormatCountdown(time.Until(at))})
			}
			printInfo(out, fmt.Sprintf("Next sync: %s (%s)", schedule.FormatDate(at), s.Label))
			return nil
		},
	}
}

func newUntilCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "until",
		Short: "Show the time left before the next sync",
		Args:  cobra.NoArgs,
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
			out := cmd.OutOrStdout()
			left, ok := d.TimeUntilSync()
			if !ok {
				if opts.jsonOutput {
					return outputJSON(out, nil)
				}
				printEmptyState(out, "No sync scheduled")
				return nil
			}
			if opts.jsonOutput {
				return outputJSON(out, map[string]any{
					"seconds":   int64(left / time.Second),
					"countdown": schedule.FormatCountdown(left),
				})
			}
			printInfo(out, "Next sync in "+schedule.FormatCountdown(left))
			return nil
		},
	}
}

func newSkipCmd(opts *options) *cobra.Command {
	var cancel bool
	cmd := &cobra.Command{
		Use:   "skip [schedule]",
		Short: "Skip the next sync",
		Long: `Skip the next occurrence of a schedule. Without an argument the schedule
that syncs next is skipped. The flag is stored in the database, so a running
daemon honours it.`,
		Args: cobra.MaximumNArgs(1),
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

			var s core.Schedule
			if len(args) == 1 {
				if s, err = a.resolve(args[0]); err != nil {
					return err
				}
			} else {
				next, _, ok := d.NextSync()
				if !ok {
					return core.ErrNoSchedules
				}
				s = next
			}

			out := cmd.OutOrStdout()
			now := time.Now()
			at := schedule.Next(s, now)

			if cancel {
				if err := d.CancelSkip(ctx, s.ID); err != nil {
					return err
				}
				if opts.jsonOutput {
					return outputJSON(out, map[string]any{"schedule": s, "skipping": false})
				}
				printSuccess(out, fmt.Sprintf("%q will sync at %s", s.Label, schedule.FormatDate(at)))
				return nil
			}

			if d.Skipping(s) {
				if opts.jsonOutput {
					return outputJSON(out, map[string]any{"schedule": s, "skipping": true, "at": at})
				}
				printWarning(out, fmt.Sprintf("The sync of %q at %s is already skipped", s.Label, schedule.FormatDate(at)))
				return nil
			}
			if err := d.SkipNext(ctx, s.ID); err != nil {
				return err
			}
			if opts.jsonOutput {
				return outputJSON(out, map[string]any{"schedule": s, "skipping": true, "at": at})
			}
			printSuccess(out, fmt.Sprintf("Skipping the sync of %q at %s", s.Label, schedule.FormatDate(at)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&cancel, "cancel", false, "Withdraw a pending skip")
	return cmd
}

func newSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the repository now",
		Long: `Commit every change in the repository and push it. Nothing is committed
when the working tree is clean. The run is recorded in the history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			runner, err := a.runner()
			if err != nil {
				return err
			}
			d, err := a.dispatcher(runner)
			if err != nil {
				return err
			}
			start := time.Now()
			if err := d.SyncNow(ctx); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, map[string]any{"status": core.RunCompleted, "duration": time.Since(start).String()})
			}
			printSuccess(out, "Synced")
			return nil
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [schedule]",
		Short: "Show recent sync runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			id := ""
			if len(args) == 1 {
				s, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				id = s.ID
			}
			runs, err := a.store.ListRuns(ctx, id, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, runs)
			}
			if len(runs) == 0 {
				printEmptyState(out, "No syncs recorded yet")
				return nil
			}
			printTable(out, runHeaders, runRows(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", security.DefaultListLimit, "Maximum number of runs to show")
	return cmd
}
