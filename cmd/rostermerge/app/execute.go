package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/rostermerge/cmd/rostermerge/cmd/check"
	"github.com/agentstation/rostermerge/cmd/rostermerge/cmd/diff"
	"github.com/agentstation/rostermerge/cmd/rostermerge/cmd/merge"
	"github.com/agentstation/rostermerge/cmd/rostermerge/cmd/mergefiles"
	"github.com/agentstation/rostermerge/cmd/rostermerge/cmd/retire"
	"github.com/agentstation/rostermerge/cmd/rostermerge/cmd/version"
	"github.com/agentstation/rostermerge/pkg/logging"
)

// Execute runs the rostermerge CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "rostermerge",
		Short:   "Reconcile legislative rosters",
		Version: a.version,
		Long: `rostermerge keeps a roster of people, stored as one YAML file each,
in line with freshly scraped incoming data.

Records live under a data root:
  data/<jurisdiction>/people         active people
  data/<jurisdiction>/retired        retired people
  data/<jurisdiction>/organizations  committees
  incoming/<jurisdiction>/people     incoming people

A merge matches existing people to incoming ones by name and seat, then
updates, retires and creates records so the roster reflects the scrape.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "records", Title: "Record Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", a.config.ConfigFile, "config file (default is $HOME/.rostermerge.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.StringVar(&a.config.DataRoot, "data-root", a.config.DataRoot, "directory holding data/ and incoming/")
	flags.StringVar(&a.config.SettingsFile, "settings", a.config.SettingsFile, "seat settings file")

	rootCmd.SetVersionTemplate("rostermerge {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(merge.NewCommand(a, a.config.JournalPath, a.config.RequireClean, a.config.ContinueOnError))
	rootCmd.AddCommand(check.NewCommand(a))

	// Record commands
	rootCmd.AddCommand(retire.NewCommand(a))
	rootCmd.AddCommand(mergefiles.NewCommand(a))
	rootCmd.AddCommand(diff.NewCommand(a))

	rootCmd.AddCommand(version.NewCommand(a))
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
