// Package merge implements the merge command.
package merge

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/rostermerge"
	"github.com/agentstation/rostermerge/internal/cmd/output"
	"github.com/agentstation/rostermerge/pkg/logging"
	"github.com/agentstation/rostermerge/pkg/reconciler"
)

// AppContext defines what the merge command needs from the app.
type AppContext interface {
	ClientWithOptions(...rostermerge.Option) (rostermerge.Client, error)
	Logger() *zerolog.Logger
	OutputFormat() string
	NoColor() bool
}

// Flags holds the merge command's flags.
type Flags struct {
	Defer           bool
	Save            bool
	DryRun          bool
	EndDate         string
	ShowDiff        bool
	Journal         string
	RequireClean    bool
	ContinueOnError bool
}

// NewCommand creates the merge command. The journal, require-clean and
// continue-on-error defaults come from configuration.
func NewCommand(app AppContext, journal string, requireClean, continueOnError bool) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "merge <jurisdiction>",
		GroupID: "core",
		Short:   "Reconcile a jurisdiction's roster with incoming data",
		Long: `Merge matches existing people (active and retired) to incoming ones and
brings the roster in line:

• Matched people whose incoming data adds something are updated in place.
  A seat change ends the old role and adds the new one.
• Active people with no incoming match are retired.
• Incoming people with no existing match are created.
• Retired people matched again are restored to active.

People are matched by exact name first, then by name similarity within
the same seat. By default every decision is made before anything is
written and operations then run in seat order.`,
		Example: `  rostermerge merge ak                       # Reconcile Alaska
  rostermerge merge ak --dry-run --show-diff # Preview changes with diffs
  rostermerge merge ak --end-date 2024-01-01 # Backdate ended roles
  rostermerge merge ak -o json               # Machine-readable summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd, app, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.Defer, "defer", true, "decide everything first, then apply in seat order")
	f.BoolVar(&flags.Save, "save", true, "write changes (false previews only)")
	f.BoolVar(&flags.DryRun, "dry-run", false, "preview changes without writing (same as --save=false)")
	f.StringVar(&flags.EndDate, "end-date", "", "date stamped on ended roles (YYYY-MM-DD, default today)")
	f.BoolVar(&flags.ShowDiff, "show-diff", false, "show a unified diff for every update")
	f.StringVar(&flags.Journal, "journal", journal, "record the run in a SQLite journal at this path")
	f.BoolVar(&flags.RequireClean, "require-clean", requireClean, "refuse to run when the data root has uncommitted changes")
	f.BoolVar(&flags.ContinueOnError, "continue-on-error", continueOnError, "keep applying operations after one fails")

	return cmd
}

// Execute runs a merge and prints its outcome.
func Execute(cmd *cobra.Command, app AppContext, jurisdiction string, flags *Flags) error {
	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}

	var clientOpts []rostermerge.Option
	if flags.Journal != "" {
		clientOpts = append(clientOpts, rostermerge.WithJournal(flags.Journal))
	}
	if flags.RequireClean {
		clientOpts = append(clientOpts, rostermerge.WithRequireClean(true))
	}
	client, err := app.ClientWithOptions(clientOpts...)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := logging.WithLogger(cmd.Context(), app.Logger())

	result, runErr := client.Merge(ctx, jurisdiction,
		reconciler.WithDefer(flags.Defer),
		reconciler.WithSave(flags.Save && !flags.DryRun),
		reconciler.WithEndDate(flags.EndDate),
		reconciler.WithContinueOnError(flags.ContinueOnError),
	)
	if result == nil {
		return runErr
	}

	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), app.NoColor())
	if err := p.print(result, format, flags.ShowDiff); err != nil {
		return err
	}
	return runErr
}
