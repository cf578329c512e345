// Package reconciler brings an existing roster in line with an incoming one.
//
// A run loads the active, retired and incoming person records from a store,
// matches existing records to incoming ones and decides per person whether
// to leave them alone, update them, retire them or create them. Decisions
// become operations handed to a scheduler, which by default holds them
// until every decision is made and then applies them in seat order.
//
// Everything that can be checked without touching the store is checked
// while planning: a bad seat, a duplicate id or a merge conflict fails the
// run before any record changes.
package reconciler

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/logging"
	"github.com/agentstation/rostermerge/pkg/matcher"
	"github.com/agentstation/rostermerge/pkg/merger"
	"github.com/agentstation/rostermerge/pkg/operations"
	"github.com/agentstation/rostermerge/pkg/retire"
	"github.com/agentstation/rostermerge/pkg/seats"
	"github.com/agentstation/rostermerge/pkg/store"
)

// Reconciler reconciles the rosters held by a store.
type Reconciler interface {
	// Reconcile plans and applies the operations that bring the active
	// partition in line with the incoming one. When an operation fails the
	// partial result is returned together with the error.
	Reconcile(ctx context.Context, s store.Store) (*Result, error)
}

// reconciler is the default Reconciler.
type reconciler struct {
	options *options
}

// New creates a Reconciler.
func New(opts ...Option) (Reconciler, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{options: o}, nil
}

// roster is the loaded state of one run.
type roster struct {
	active   []*store.Record
	retired  []*store.Record
	incoming []*store.Record
	byID     map[string]*store.Record
	inByID   map[string]*store.Record
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(ctx context.Context, s store.Store) (*Result, error) {
	start := r.options.now()
	runID := r.options.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	asOf := document.Today(start)
	endDate := r.options.endDate
	if endDate == "" {
		endDate = asOf
	}

	result := &Result{
		RunID:       runID,
		AssignedIDs: make(map[string]string),
		DryRun:      !r.options.save,
		StartTime:   start,
	}

	ros, err := load(ctx, s)
	if err != nil {
		return nil, err
	}
	result.Stats.Active = len(ros.active)
	result.Stats.Retired = len(ros.retired)
	result.Stats.Incoming = len(ros.incoming)

	for _, rec := range ros.incoming {
		if rec.Doc.EnsureID() {
			result.AssignedIDs[rec.Doc.Name()] = rec.Doc.ID()
		}
	}
	if err := ros.index(); err != nil {
		return nil, err
	}

	warnings, err := seatWarnings(ros.active)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}
	result.Warnings = append(result.Warnings, warnings...)

	if r.options.seats != nil {
		check, err := seats.CheckIncoming(r.options.seats.Expected(), len(ros.incoming))
		if err != nil {
			return nil, err
		}
		result.IncomingCheck = &check
		if !check.OK {
			w := fmt.Sprintf("incoming count %d is not within 10%% of %d expected seats", check.Incoming, check.Expected)
			logger.Warn().Float64("ratio", check.Ratio).Msg(w)
			result.Warnings = append(result.Warnings, w)
		}
	}

	existing := make([]document.Document, 0, len(ros.active)+len(ros.retired))
	for _, rec := range ros.active {
		existing = append(existing, rec.Doc)
	}
	for _, rec := range ros.retired {
		existing = append(existing, rec.Doc)
	}
	incoming := make([]document.Document, 0, len(ros.incoming))
	for _, rec := range ros.incoming {
		incoming = append(incoming, rec.Doc)
	}

	matched, err := matcher.New(r.options.matcherOpts...).Match(existing, incoming)
	if err != nil {
		return nil, err
	}

	ops, err := r.plan(ctx, ros, matched, asOf, endDate, &result.Stats)
	if err != nil {
		return nil, err
	}

	applier := &storeApplier{
		store:    s,
		effector: retire.New(s, retire.WithClock(r.options.now)),
		asOf:     asOf,
	}
	execOpts := []operations.Option{
		operations.WithSave(r.options.save),
		operations.WithContinueOnError(r.options.continueOnError),
	}
	for _, o := range r.options.observers {
		execOpts = append(execOpts, operations.WithObserver(o))
	}
	scheduler := operations.NewScheduler(operations.NewExecutor(applier, execOpts...), r.options.deferred)

	for _, op := range ops {
		if err := scheduler.Schedule(ctx, op); err != nil {
			break
		}
		if !r.options.deferred {
			result.Plan = append(result.Plan, op)
		}
	}
	if r.options.deferred {
		result.Plan = scheduler.Pending()
	}

	report, runErr := scheduler.Flush(ctx)
	result.Report = report
	result.EndTime = r.options.now()
	result.Duration = result.EndTime.Sub(start)

	logger.Info().
		Int("creates", result.Stats.Creates).
		Int("retires", result.Stats.Retires).
		Int("updates", result.Stats.Updates).
		Int("unchanged", result.Stats.Unchanged).
		Bool("dry_run", result.DryRun).
		Msg("reconciliation finished")

	return result, runErr
}

// plan turns matches into operations: updates first, then retirements,
// then creations. Merges are computed on copies so nothing is written
// until the operations run.
func (r *reconciler) plan(ctx context.Context, ros *roster, matched *matcher.Result, asOf, endDate string, stats *Statistics) ([]operations.Operation, error) {
	logger := logging.FromContext(ctx)
	m, err := merger.New(merger.WithAsOf(asOf))
	if err != nil {
		return nil, err
	}

	var updates, retires, creates []operations.Operation

	for _, pair := range matched.Pairs {
		if pair.Exact {
			stats.ExactMatches++
		} else {
			stats.FuzzyMatches++
		}
		existing := ros.byID[pair.Existing.ID()]
		incoming := ros.inByID[pair.Incoming.ID()]
		unretire := existing.Ref.Partition == store.Retired

		if !unretire && !merger.NeedsUpdate(existing.Doc, incoming.Doc) {
			stats.Unchanged++
			continue
		}

		seat, err := incoming.Doc.Seat()
		if err != nil {
			return nil, err
		}
		base := existing.Doc.Clone()
		moved, err := merger.EndMovedRoles(base, seat, endDate, asOf)
		if err != nil {
			return nil, err
		}
		merged, err := m.Merge(base, incoming.Doc)
		if err != nil {
			return nil, err
		}
		op, err := operations.NewUpdate(existing, incoming, merged, moved)
		if err != nil {
			return nil, err
		}
		updates = append(updates, op)
		if !pair.Exact {
			logger.Debug().
				Str("existing", existing.Doc.Name()).
				Str("incoming", incoming.Doc.Name()).
				Float64("ratio", pair.Ratio).
				Msg("fuzzy match")
		}
	}

	for _, doc := range matched.Retire {
		rec := ros.byID[doc.ID()]
		if rec.Ref.Partition == store.Retired {
			stats.RetiredIgnored++
			logger.Debug().Str("person", doc.Name()).Msg("already retired")
			continue
		}
		op, err := operations.NewRetire(rec, endDate, "")
		if err != nil {
			return nil, err
		}
		retires = append(retires, op)
	}

	for _, doc := range matched.Create {
		op, err := operations.NewCreate(ros.inByID[doc.ID()])
		if err != nil {
			return nil, err
		}
		creates = append(creates, op)
	}

	stats.Updates = len(updates)
	stats.Retires = len(retires)
	stats.Creates = len(creates)

	ops := make([]operations.Operation, 0, len(updates)+len(retires)+len(creates))
	ops = append(ops, updates...)
	ops = append(ops, retires...)
	return append(ops, creates...), nil
}

func load(ctx context.Context, s store.Store) (*roster, error) {
	ros := &roster{}
	var err error
	if ros.active, err = s.List(ctx, store.KindPerson, store.Active); err != nil {
		return nil, err
	}
	if ros.retired, err = s.List(ctx, store.KindPerson, store.Retired); err != nil {
		return nil, err
	}
	if ros.incoming, err = s.List(ctx, store.KindPerson, store.Incoming); err != nil {
		return nil, err
	}
	return ros, nil
}

// index builds the id lookups and rejects records that cannot be told
// apart.
func (ros *roster) index() error {
	ros.byID = make(map[string]*store.Record, len(ros.active)+len(ros.retired))
	for _, list := range [][]*store.Record{ros.active, ros.retired} {
		for _, rec := range list {
			if err := addUnique(ros.byID, rec); err != nil {
				return err
			}
		}
	}
	ros.inByID = make(map[string]*store.Record, len(ros.incoming))
	for _, rec := range ros.incoming {
		if err := addUnique(ros.inByID, rec); err != nil {
			return err
		}
	}
	return nil
}

func addUnique(index map[string]*store.Record, rec *store.Record) error {
	id := rec.Doc.ID()
	if id == "" {
		return errors.NewValidationError("id", rec.Ref.String(), "record has no id")
	}
	if prev, ok := index[id]; ok {
		return errors.NewValidationError("id", id, fmt.Sprintf("shared by %s and %s", prev.Ref, rec.Ref))
	}
	index[id] = rec
	return nil
}

// seatWarnings names every seat more than one active record holds. Seat
// accounting treats seats as single-member, so these are reported and
// otherwise left alone.
func seatWarnings(active []*store.Record) ([]string, error) {
	holders := make(map[document.Seat][]string)
	var order []document.Seat
	for _, rec := range active {
		seat, err := rec.Doc.Seat()
		if err != nil {
			return nil, err
		}
		if _, ok := holders[seat]; !ok {
			order = append(order, seat)
		}
		holders[seat] = append(holders[seat], rec.Doc.Name())
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].Compare(order[j]) < 0 })

	var warnings []string
	for _, seat := range order {
		if names := holders[seat]; len(names) > 1 {
			warnings = append(warnings, fmt.Sprintf("seat %s is held by %d active records: %v", seat, len(names), names))
		}
	}
	return warnings, nil
}

var _ Reconciler = (*reconciler)(nil)
