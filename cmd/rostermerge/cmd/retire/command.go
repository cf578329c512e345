// Package retire implements the retire command.
package retire

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/rostermerge"
	"github.com/agentstation/rostermerge/internal/cmd/output"
	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/logging"
	"github.com/agentstation/rostermerge/pkg/retire"
)

// AppContext defines what the retire command needs from the app.
type AppContext interface {
	Client() (rostermerge.Client, error)
	Logger() *zerolog.Logger
	OutputFormat() string
	NoColor() bool
}

// Flags holds the retire command's flags.
type Flags struct {
	Reason string
	Death  bool
}

// Report is the serializable form of a retirement.
type Report struct {
	File        string   `json:"file" yaml:"file"`
	EndDate     string   `json:"end_date" yaml:"end_date"`
	Reason      string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Roles       int      `json:"roles" yaml:"roles"`
	Memberships int      `json:"memberships" yaml:"memberships"`
	Committees  []string `json:"committees,omitempty" yaml:"committees,omitempty"`
}

// NewCommand creates the retire command.
func NewCommand(app AppContext) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "retire <end-date> <file>",
		GroupID: "records",
		Short:   "Retire an active person",
		Long: `End every active role and committee membership of the person in <file>
on <end-date> (YYYY-MM-DD) and move the record to the retired directory.

With --death the person's death_date is set and roles end with the
reason "Deceased".`,
		Example: `  rostermerge retire 2024-01-15 data/ak/people/Jane-Doe-1234.yml
  rostermerge retire 2024-01-15 data/ak/people/Jane-Doe-1234.yml --reason "Appointed judge"
  rostermerge retire 2024-03-02 data/ak/people/Bob-Roe-5678.yml --death`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd, app, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVar(&flags.Reason, "reason", "", "end_reason recorded on each ended role")
	cmd.Flags().BoolVar(&flags.Death, "death", false, "the person died; sets death_date")

	return cmd
}

// Execute retires the person at path.
func Execute(cmd *cobra.Command, app AppContext, endDate, path string, flags *Flags) error {
	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}
	client, err := app.Client()
	if err != nil {
		return err
	}

	ctx := logging.WithLogger(cmd.Context(), app.Logger())
	r := retire.Retirement{EndDate: endDate, Reason: flags.Reason, Death: flags.Death}
	result, err := client.Retire(ctx, path, r)
	if err != nil {
		return err
	}

	report := Report{
		File:        path,
		EndDate:     endDate,
		Reason:      flags.Reason,
		Roles:       result.Roles,
		Memberships: result.Memberships,
	}
	if flags.Death {
		report.Reason = constants.DeathReason
	}
	for _, ref := range result.Committees {
		report.Committees = append(report.Committees, ref.Name)
	}

	if format != output.FormatTable {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), report)
	}

	c := color.New(color.FgBlue)
	if app.NoColor() {
		c.DisableColor()
	}
	out := cmd.OutOrStdout()
	c.Fprintf(out, "Retired %s as of %s: %d role(s), %d committee membership(s).\n",
		path, endDate, report.Roles, report.Memberships)
	for _, name := range report.Committees {
		fmt.Fprintf(out, "  updated committee %s\n", name)
	}
	return nil
}
