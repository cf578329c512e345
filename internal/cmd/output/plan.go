package output

import (
	"strconv"

	"github.com/agentstation/rostermerge/pkg/operations"
	"github.com/agentstation/rostermerge/pkg/reconciler"
)

// PlanEntry is one operation as shown to users.
type PlanEntry struct {
	Seq         int    `json:"seq" yaml:"seq"`
	Kind        string `json:"kind" yaml:"kind"`
	Seat        string `json:"seat" yaml:"seat"`
	Subject     string `json:"subject" yaml:"subject"`
	State       string `json:"state" yaml:"state"`
	Description string `json:"description" yaml:"description"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary is the serializable form of a reconciliation result.
type Summary struct {
	RunID       string                `json:"run_id" yaml:"run_id"`
	DryRun      bool                  `json:"dry_run" yaml:"dry_run"`
	Stats       reconciler.Statistics `json:"stats" yaml:"stats"`
	Operations  []PlanEntry           `json:"operations" yaml:"operations"`
	AssignedIDs map[string]string     `json:"assigned_ids,omitempty" yaml:"assigned_ids,omitempty"`
	Warnings    []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Entries lists a result's operations in plan order with their outcome.
func Entries(result *reconciler.Result) []PlanEntry {
	outcomes := make(map[operations.Operation]operations.Outcome)
	if result.Report != nil {
		for _, o := range result.Report.Outcomes {
			outcomes[o.Op] = o
		}
	}

	entries := make([]PlanEntry, 0, len(result.Plan))
	for i, op := range result.Plan {
		entry := PlanEntry{
			Seq:         i + 1,
			Kind:        string(op.Kind()),
			Seat:        op.Seat().String(),
			Subject:     op.Subject(),
			State:       string(operations.Pending),
			Description: op.Describe(),
		}
		if o, ok := outcomes[op]; ok {
			entry.State = string(o.State)
			if o.Err != nil {
				entry.Error = o.Err.Error()
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// Summarize converts a result to its serializable form.
func Summarize(result *reconciler.Result) Summary {
	return Summary{
		RunID:       result.RunID,
		DryRun:      result.DryRun,
		Stats:       result.Stats,
		Operations:  Entries(result),
		AssignedIDs: result.AssignedIDs,
		Warnings:    result.Warnings,
	}
}

// PlanTable renders a result's operations as a table.
func PlanTable(result *reconciler.Result) Data {
	data := Data{
		Headers:         []string{"#", "Operation", "Seat", "Person", "State"},
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft},
	}
	for _, e := range Entries(result) {
		data.Rows = append(data.Rows, []string{strconv.Itoa(e.Seq), e.Kind, e.Seat, e.Subject, e.State})
	}
	return data
}

// StatsTable renders a result's counts as a two column table.
func StatsTable(result *reconciler.Result) Data {
	s := result.Stats
	rows := []struct {
		name  string
		value int
	}{
		{"Active", s.Active},
		{"Retired", s.Retired},
		{"Incoming", s.Incoming},
		{"Exact matches", s.ExactMatches},
		{"Fuzzy matches", s.FuzzyMatches},
		{"Unchanged", s.Unchanged},
		{"Retired, unmatched", s.RetiredIgnored},
		{"Updates", s.Updates},
		{"Retirements", s.Retires},
		{"Creations", s.Creates},
	}
	data := Data{
		Headers:         []string{"Count", "Value"},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, []string{r.name, strconv.Itoa(r.value)})
	}
	return data
}
