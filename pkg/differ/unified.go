package differ

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/agentstation/rostermerge/pkg/document"
)

// Unified renders a unified diff of the canonical YAML form of two
// documents. It returns an empty string when they encode identically.
func Unified(a, b document.Document, fromName, toName string) (string, error) {
	before, err := document.Marshal(a)
	if err != nil {
		return "", err
	}
	after, err := document.Marshal(b)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}
