// Package retire ends a person's time in office: their active roles and
// committee memberships get an end date and their record moves to the
// retired partition.
package retire

import (
	"context"
	"time"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/logging"
	"github.com/agentstation/rostermerge/pkg/store"
)

// Retirement describes one retirement.
type Retirement struct {
	EndDate string
	Reason  string
	Death   bool
	// AsOf is the date roles are judged active on. Empty means today.
	AsOf string
}

func (r Retirement) normalize(now time.Time) (Retirement, error) {
	if _, err := time.Parse(constants.DateLayout, r.EndDate); err != nil {
		return r, errors.NewValidationError(constants.FieldEndDate, r.EndDate, "end date must be YYYY-MM-DD")
	}
	if r.Death {
		r.Reason = constants.DeathReason
	}
	if r.AsOf == "" {
		r.AsOf = document.Today(now)
	}
	return r, nil
}

// Person end-dates every active role of a copy of doc and returns it with
// the number of roles ended. A death also stamps death_date.
func Person(doc document.Document, r Retirement) (document.Document, int) {
	out := doc.Clone()
	n := 0
	for _, role := range out.Roles() {
		if !document.RoleActive(role, r.AsOf) {
			continue
		}
		role[constants.FieldEndDate] = r.EndDate
		if r.Reason != "" {
			role[constants.FieldEndReason] = r.Reason
		}
		n++
	}
	if r.Death {
		out[constants.FieldDeathDate] = r.EndDate
	}
	return out, n
}

// Committee end-dates a copy of a committee's active memberships that
// reference personID and returns it with the number ended.
func Committee(doc document.Document, personID, endDate, asOf string) (document.Document, int) {
	out := doc.Clone()
	n := 0
	if personID == "" {
		return out, 0
	}
	for _, m := range out.Memberships() {
		id, _ := m[constants.FieldID].(string)
		if id != personID || !document.RoleActive(m, asOf) {
			continue
		}
		m[constants.FieldEndDate] = endDate
		n++
	}
	return out, n
}

// Result reports what a retirement touched.
type Result struct {
	Roles       int
	Memberships int
	Committees  []store.Ref
}

// Total is the number of roles and memberships ended.
func (r *Result) Total() int { return r.Roles + r.Memberships }

// Effector applies retirements to a store.
type Effector struct {
	store store.Store
	now   func() time.Time
}

// Option configures an Effector.
type Option func(*Effector)

// WithClock overrides the clock used for the active-role predicate.
func WithClock(now func() time.Time) Option {
	return func(e *Effector) { e.now = now }
}

// New creates an Effector over s.
func New(s store.Store, opts ...Option) *Effector {
	e := &Effector{store: s, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retire ends rec's roles and committee memberships and moves rec to the
// retired partition. rec is updated in place. Ending nothing is not an
// error; the record is relocated regardless.
func (e *Effector) Retire(ctx context.Context, rec *store.Record, r Retirement) (*Result, error) {
	r, err := r.normalize(e.now())
	if err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx).With().
		Str("person_id", rec.Doc.ID()).
		Str("end_date", r.EndDate).
		Logger()

	doc, n := Person(rec.Doc, r)
	result := &Result{Roles: n}

	committees, err := e.store.List(ctx, store.KindCommittee, store.Active)
	if err != nil {
		return nil, err
	}
	for _, committee := range committees {
		updated, n := Committee(committee.Doc, doc.ID(), r.EndDate, r.AsOf)
		if n == 0 {
			continue
		}
		committee.Doc = updated
		if err := e.store.Save(ctx, committee); err != nil {
			return nil, err
		}
		result.Memberships += n
		result.Committees = append(result.Committees, committee.Ref)
	}

	rec.Doc = doc
	if err := e.store.Move(ctx, rec, store.Retired); err != nil {
		return nil, err
	}

	switch result.Total() {
	case 0:
		logger.Warn().Msg("no active roles to retire")
	case 1:
		logger.Info().Msg("retired person")
	default:
		logger.Info().Int("roles", result.Total()).Msg("retired person from multiple roles")
	}
	return result, nil
}
