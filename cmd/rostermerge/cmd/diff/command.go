// Package diff implements the diff command.
package diff

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentstation/rostermerge/internal/cmd/output"
	"github.com/agentstation/rostermerge/pkg/differ"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
)

// AppContext defines what the diff command needs from the app.
type AppContext interface {
	OutputFormat() string
	NoColor() bool
}

// Flags holds the diff command's flags.
type Flags struct {
	Unified    bool
	Meaningful bool
	IDs        bool
	Ignore     []string
}

// Entry is one difference as shown to users.
type Entry struct {
	Path   string `json:"path" yaml:"path"`
	Kind   string `json:"kind" yaml:"kind"`
	First  any    `json:"first,omitempty" yaml:"first,omitempty"`
	Second any    `json:"second,omitempty" yaml:"second,omitempty"`
}

// NewCommand creates the diff command.
func NewCommand(app AppContext) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "diff <first> <second>",
		GroupID: "records",
		Short:   "Show how two person records differ",
		Long: `Compare two YAML records field by field. Key order and list order are
ignored; list elements are compared as whole values. The id field is
skipped unless --ids is given.`,
		Example: `  rostermerge diff data/ak/people/Jane-Doe-1.yml incoming/ak/people/Jane-Doe-2.yml
  rostermerge diff a.yml b.yml --meaningful
  rostermerge diff a.yml b.yml --unified`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd, app, args[0], args[1], flags)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&flags.Unified, "unified", "u", false, "print a unified diff of the canonical YAML instead")
	f.BoolVar(&flags.Meaningful, "meaningful", false, "only show what the second record adds")
	f.BoolVar(&flags.IDs, "ids", false, "compare the id field too")
	f.StringSliceVar(&flags.Ignore, "ignore", nil, "fields to skip (top-level key or dotted path)")

	return cmd
}

// Execute compares the two files and prints the differences.
func Execute(cmd *cobra.Command, app AppContext, firstPath, secondPath string, flags *Flags) error {
	first, err := load(firstPath)
	if err != nil {
		return err
	}
	second, err := load(secondPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if flags.Unified {
		text, err := differ.Unified(first, second, firstPath, secondPath)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, text)
		return err
	}

	opts := []differ.Option{differ.WithIgnoredFields(flags.Ignore...)}
	if flags.IDs {
		opts = append(opts, differ.WithoutDefaultIgnores())
	}
	d := differ.New(opts...)
	diffs := d.Differences(first, second)
	if flags.Meaningful {
		diffs = d.Meaningful(first, second)
	}

	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.NewFormatter(format).Format(out, Entries(diffs))
	}
	return printText(out, diffs, app.NoColor())
}

// Entries converts differences to their serializable form.
func Entries(diffs []differ.Difference) []Entry {
	entries := make([]Entry, 0, len(diffs))
	for _, d := range diffs {
		switch v := d.(type) {
		case differ.ItemDifference:
			entries = append(entries, Entry{Path: v.Key, Kind: "item", First: v.First, Second: v.Second})
		case differ.ListDifference:
			e := Entry{Path: v.Key, Kind: "list"}
			if v.Side == differ.First {
				e.First = v.Item
			} else {
				e.Second = v.Item
			}
			entries = append(entries, e)
		}
	}
	return entries
}

func printText(w io.Writer, diffs []differ.Difference, noColor bool) error {
	if len(diffs) == 0 {
		_, err := fmt.Fprintln(w, "No differences.")
		return err
	}
	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)
	changed := color.New(color.FgYellow)
	if noColor {
		removed.DisableColor()
		added.DisableColor()
		changed.DisableColor()
	}
	for _, d := range diffs {
		var err error
		switch v := d.(type) {
		case differ.ItemDifference:
			_, err = changed.Fprintf(w, "~ %s: %v -> %v\n", v.Key, v.First, v.Second)
		case differ.ListDifference:
			if v.Side == differ.First {
				_, err = removed.Fprintf(w, "- %s: %v\n", v.Key, v.Item)
			} else {
				_, err = added.Fprintf(w, "+ %s: %v\n", v.Key, v.Item)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func load(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	doc, err := document.Unmarshal(data)
	if err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return doc, nil
}
