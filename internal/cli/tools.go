package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdziat/sync-schedules/pkg/export"
	"github.com/jdziat/sync-schedules/pkg/tasks"
)

func newExportCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export schedules as an iCalendar file",
		Long: `Write every schedule as a recurring calendar event so the syncs show up
in a calendar app. Without --output the calendar is written to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			schedules := a.reg.List()
			ics, err := export.ICS(schedules, time.Now())
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), ics)
				return err
			}
			if err := os.WriteFile(output, []byte(ics), 0o644); err != nil {
				return err
			}
			if opts.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]any{"path": output, "events": len(schedules)})
			}
			printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Exported %d schedules to %s", len(schedules), output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	return cmd
}

func newCleanCmd(opts *options) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove completed checklist items from Markdown notes",
		Long: `Delete every "- [x]" line from the .md files of the repository (or --dir).
Hidden directories such as .git are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := dir
			if root == "" {
				a, err := openApp(cmd.Context(), opts, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer a.Close()
				if root, err = a.cfg.RepoDir(); err != nil {
					return fmt.Errorf("%w (or pass --dir)", err)
				}
			}

			results, err := tasks.ClearCompleted(root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, map[string]any{"files": results, "removed": tasks.Total(results)})
			}
			if len(results) == 0 {
				printEmptyState(out, "No tasks to clear")
				return nil
			}
			for _, r := range results {
				printLabelValue(out, r.Path, fmt.Sprintf("%d cleared", r.Removed))
			}
			printSuccess(out, fmt.Sprintf("Cleared %d tasks", tasks.Total(results)))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to clean (defaults to repo.dir)")
	return cmd
}
