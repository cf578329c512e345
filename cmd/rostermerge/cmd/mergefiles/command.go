// Package mergefiles implements the merge-files command, which folds one
// person record into another.
package mergefiles

import (
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/rostermerge"
	"github.com/agentstation/rostermerge/internal/cmd/output"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/logging"
	"github.com/agentstation/rostermerge/pkg/merger"
)

// AppContext defines what the merge-files command needs from the app.
type AppContext interface {
	Client() (rostermerge.Client, error)
	Logger() *zerolog.Logger
	OutputFormat() string
	NoColor() bool
}

// Flags holds the merge-files command's flags.
type Flags struct {
	Old  string
	New  string
	Keep string
}

// NewCommand creates the merge-files command.
func NewCommand(app AppContext) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "merge-files --old <file> --new <file>",
		GroupID: "records",
		Short:   "Merge two records for the same person",
		Long: `Merge the record in --new into the record in --old, write the result to
--old and delete --new.

--keep decides which side wins when a field differs on both sides:
  old    keep the old value
  new    take the new value
  error  stop without writing anything (default)

Unless --new is an incoming record its id is kept under other_identifiers.`,
		Example: `  rostermerge merge-files --old data/ak/people/Jane-Doe-1.yml --new data/ak/people/Jane-Doe-2.yml
  rostermerge merge-files --old data/ak/people/Jane-Doe-1.yml --new incoming/ak/people/Jane-Doe-3.yml --keep new`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd, app, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Old, "old", "", "record that survives the merge")
	f.StringVar(&flags.New, "new", "", "record merged in and then deleted")
	f.StringVar(&flags.Keep, "keep", string(merger.KeepError), "conflict policy: old, new or error")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}

// Execute merges the two files and prints the merged document.
func Execute(cmd *cobra.Command, app AppContext, flags *Flags) error {
	if flags.Old == flags.New {
		return errors.NewValidationError("new", flags.New, "cannot merge a file into itself")
	}
	policy, err := merger.ParsePolicy(flags.Keep)
	if err != nil {
		return err
	}
	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}
	client, err := app.Client()
	if err != nil {
		return err
	}

	ctx := logging.WithLogger(cmd.Context(), app.Logger())
	merged, err := client.MergeFiles(ctx, flags.Old, flags.New, policy)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format != output.FormatTable {
		return output.NewFormatter(format).Format(out, map[string]any(merged))
	}

	c := color.New(color.FgGreen)
	if app.NoColor() {
		c.DisableColor()
	}
	c.Fprintf(out, "Merged %s into %s.\n", flags.New, flags.Old)
	data, err := document.Marshal(merged)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
