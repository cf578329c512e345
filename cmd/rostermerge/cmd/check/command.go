// Package check implements the check-incoming command.
package check

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/rostermerge"
	"github.com/agentstation/rostermerge/internal/cmd/output"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/logging"
)

// AppContext defines what the check command needs from the app.
type AppContext interface {
	Client() (rostermerge.Client, error)
	Logger() *zerolog.Logger
	OutputFormat() string
}

// Report is the serializable form of an incoming check.
type Report struct {
	Jurisdiction string  `json:"jurisdiction" yaml:"jurisdiction"`
	Expected     int     `json:"expected" yaml:"expected"`
	Incoming     int     `json:"incoming" yaml:"incoming"`
	Ratio        float64 `json:"ratio" yaml:"ratio"`
	OK           bool    `json:"ok" yaml:"ok"`
}

// NewCommand creates the check-incoming command.
func NewCommand(app AppContext) *cobra.Command {
	return &cobra.Command{
		Use:     "check-incoming <jurisdiction>",
		Aliases: []string{"check"},
		GroupID: "core",
		Short:   "Check the incoming record count against expected seats",
		Long: `Compare the number of incoming people for a jurisdiction with the number
of seats its settings file declares. The check fails when the counts
differ by more than 10%, which usually means the scrape is incomplete.`,
		Example: `  rostermerge check-incoming ak
  rostermerge check-incoming ak --settings ./settings.yml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd, app, args[0])
		},
	}
}

// Execute runs the check and prints it. A failed check is returned as a
// validation error so the process exits non-zero.
func Execute(cmd *cobra.Command, app AppContext, jurisdiction string) error {
	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}
	client, err := app.Client()
	if err != nil {
		return err
	}

	ctx := logging.WithLogger(cmd.Context(), app.Logger())
	check, err := client.CheckIncoming(ctx, jurisdiction)
	if err != nil {
		return err
	}

	report := Report{
		Jurisdiction: jurisdiction,
		Expected:     check.Expected,
		Incoming:     check.Incoming,
		Ratio:        check.Ratio,
		OK:           check.OK,
	}
	if err := output.NewFormatter(format).Format(cmd.OutOrStdout(), data(report, format)); err != nil {
		return err
	}

	if !check.OK {
		return errors.NewValidationError("incoming", check.Incoming,
			fmt.Sprintf("expected %d seats, incoming count is off by more than 10%%", check.Expected))
	}
	return nil
}

func data(r Report, format output.Format) any {
	if format != output.FormatTable {
		return r
	}
	status := "ok"
	if !r.OK {
		status = "mismatch"
	}
	return output.Data{
		Headers:         []string{"Jurisdiction", "Expected", "Incoming", "Ratio", "Status"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight, output.AlignRight, output.AlignRight, output.AlignLeft},
		Rows: [][]string{{
			r.Jurisdiction,
			strconv.Itoa(r.Expected),
			strconv.Itoa(r.Incoming),
			strconv.FormatFloat(r.Ratio, 'f', 2, 64),
			status,
		}},
	}
}
