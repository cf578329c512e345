package reconciler

import (
	"time"

	"github.com/agentstation/rostermerge/pkg/operations"
	"github.com/agentstation/rostermerge/pkg/seats"
)

// Result represents the outcome of a reconciliation run.
type Result struct {
	RunID string

	// Plan lists every operation in the order it was (or would be) applied.
	Plan   []operations.Operation
	Report *operations.Report

	// Statistics about the run
	Stats Statistics

	// AssignedIDs maps incoming record names to ids generated for them.
	AssignedIDs map[string]string

	// IncomingCheck is set when seat settings were supplied.
	IncomingCheck *seats.Check

	// Warnings are notable but non-fatal conditions.
	Warnings []string

	// Metadata
	DryRun    bool
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Statistics contains counts about the run.
type Statistics struct {
	Active         int `json:"active" yaml:"active"`
	Retired        int `json:"retired" yaml:"retired"`
	Incoming       int `json:"incoming" yaml:"incoming"`
	ExactMatches   int `json:"exact_matches" yaml:"exact_matches"`
	FuzzyMatches   int `json:"fuzzy_matches" yaml:"fuzzy_matches"`
	Unchanged      int `json:"unchanged" yaml:"unchanged"`
	RetiredIgnored int `json:"retired_ignored" yaml:"retired_ignored"`
	Creates        int `json:"creates" yaml:"creates"`
	Retires        int `json:"retires" yaml:"retires"`
	Updates        int `json:"updates" yaml:"updates"`
}

// HasChanges reports whether the run planned any operation.
func (r *Result) HasChanges() bool {
	return len(r.Plan) > 0
}
