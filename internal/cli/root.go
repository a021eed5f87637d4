// Package cli implements the syncsched command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jdziat/sync-schedules/pkg/dispatcher"
)

var version = "dev"

// SetVersion sets the version reported by --version and the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var (
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// options holds the global flags and test overrides shared by all commands.
type options struct {
	configPath string
	jsonOutput bool
	verbose    bool

	// runner replaces the git runner when set.
	runner dispatcher.Runner
	// notify replaces desktop notifications when set.
	notify func(title, message string) error
}

// newRootCmd builds the command tree.
func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:     "syncsched",
		Version: version,
		Short:   "Recurring git sync scheduler",
		Long: `syncsched commits and pushes a notes repository on a schedule.

Each schedule starts at a future date and time and repeats every N days.
Schedules with the same interval, time of day and a day offset that is a
multiple of the interval would sync at the same moment and are rejected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetHelpFunc(helpFunc)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default is the user config dir)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")

	root.AddGroup(
		&cobra.Group{ID: "schedules", Title: "Schedules:"},
		&cobra.Group{ID: "syncing", Title: "Syncing:"},
		&cobra.Group{ID: "tooling", Title: "Tools:"},
	)

	for _, c := range []*cobra.Command{
		newAddCmd(opts),
		newEditCmd(opts),
		newRemoveCmd(opts),
		newListCmd(opts),
	} {
		c.GroupID = "schedules"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		newNextCmd(opts),
		newUntilCmd(opts),
		newSkipCmd(opts),
		newSyncCmd(opts),
		newRunCmd(opts),
		newHistoryCmd(opts),
	} {
		c.GroupID = "syncing"
		root.AddCommand(c)
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the syncsched version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
	for _, c := range []*cobra.Command{
		newExportCmd(opts),
		newCleanCmd(opts),
		versionCmd,
	} {
		c.GroupID = "tooling"
		root.AddCommand(c)
	}

	helpCmd := &cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "tooling",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _, err := cmd.Root().Find(args)
			if err != nil || len(args) == 0 {
				target = cmd.Root()
			}
			return target.Help()
		},
	}
	root.SetHelpCommand(helpCmd)

	return root
}

// helpFunc prints help with colored group titles.
func helpFunc(cmd *cobra.Command, args []string) {
	var help strings.Builder

	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	} else if cmd.Short != "" {
		help.WriteString(cmd.Short)
		help.WriteString("\n\n")
	}

	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	help.WriteString("\n")
	fmt.Fprintf(&help, "  %s\n\n", cmd.UseLine())

	for _, group := range cmd.Groups() {
		help.WriteString(groupTitleColor.Sprint(group.Title))
		help.WriteString("\n")
		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && !c.Hidden {
				fmt.Fprintf(&help, "  %-9s %s\n", c.Name(), c.Short)
			}
		}
		help.WriteString("\n")
	}

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailableInheritedFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("\n")
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(&help, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	}

	fmt.Fprint(cmd.OutOrStdout(), help.String())
}

// Execute runs the command line and prints any error to stderr.
func Execute() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(&options{})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, formatError(err))
		return 1
	}
	return 0
}
