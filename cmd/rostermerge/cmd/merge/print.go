package merge

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/agentstation/rostermerge/internal/cmd/output"
	"github.com/agentstation/rostermerge/pkg/differ"
	"github.com/agentstation/rostermerge/pkg/operations"
	"github.com/agentstation/rostermerge/pkg/reconciler"
)

// printer writes merge results. Operation lines are colored by kind:
// creations green, retirements blue, updates yellow, failures red.
type printer struct {
	out, err io.Writer
	kinds    map[operations.Kind]*color.Color
	failed   *color.Color
	warn     *color.Color
	faint    *color.Color
}

func newPrinter(out, errOut io.Writer, noColor bool) *printer {
	p := &printer{
		out: out,
		err: errOut,
		kinds: map[operations.Kind]*color.Color{
			operations.KindCreate: color.New(color.FgGreen),
			operations.KindRetire: color.New(color.FgBlue),
			operations.KindUpdate: color.New(color.FgYellow),
		},
		failed: color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		faint:  color.New(color.Faint),
	}
	if noColor {
		for _, c := range p.kinds {
			c.DisableColor()
		}
		p.failed.DisableColor()
		p.warn.DisableColor()
		p.faint.DisableColor()
	}
	return p
}

func (p *printer) print(result *reconciler.Result, format output.Format, showDiff bool) error {
	for _, w := range result.Warnings {
		p.warn.Fprintf(p.err, "warning: %s\n", w)
	}

	if format != output.FormatTable {
		return output.NewFormatter(format).Format(p.out, output.Summarize(result))
	}

	entries := output.Entries(result)
	for i, op := range result.Plan {
		if err := p.line(op, entries[i]); err != nil {
			return err
		}
		if u, ok := op.(*operations.Update); ok && showDiff {
			if err := p.diff(u); err != nil {
				return err
			}
		}
	}
	if len(result.Plan) == 0 {
		fmt.Fprintln(p.out, "Nothing to do.")
	}
	fmt.Fprintln(p.out)
	return output.NewFormatter(output.FormatTable).Format(p.out, output.StatsTable(result))
}

func (p *printer) line(op operations.Operation, entry output.PlanEntry) error {
	switch operations.State(entry.State) {
	case operations.Failed:
		_, err := p.failed.Fprintf(p.out, "%s (failed: %s)\n", op.Describe(), entry.Error)
		return err
	case operations.Applied:
		_, err := p.kinds[op.Kind()].Fprintln(p.out, op.Describe())
		return err
	default:
		_, err := p.kinds[op.Kind()].Fprintf(p.out, "%s (%s)\n", op.Describe(), entry.State)
		return err
	}
}

func (p *printer) diff(u *operations.Update) error {
	text, err := differ.Unified(u.Existing.Doc, u.Merged, u.Existing.Ref.String(), "merged")
	if err != nil {
		return err
	}
	_, err = p.faint.Fprint(p.out, text)
	return err
}
