package reconciler

import (
	"context"

	"github.com/agentstation/rostermerge/pkg/operations"
	"github.com/agentstation/rostermerge/pkg/retire"
	"github.com/agentstation/rostermerge/pkg/store"
)

// storeApplier applies operations to a store.
type storeApplier struct {
	store    store.Store
	effector *retire.Effector
	asOf     string
}

var _ operations.Applier = (*storeApplier)(nil)

// ApplyCreate promotes the incoming record to active.
func (a *storeApplier) ApplyCreate(ctx context.Context, op *operations.Create) error {
	rec := *op.Incoming
	return a.store.Move(ctx, &rec, store.Active)
}

// ApplyRetire runs the retirement effector.
func (a *storeApplier) ApplyRetire(ctx context.Context, op *operations.Retire) error {
	rec := *op.Existing
	_, err := a.effector.Retire(ctx, &rec, retire.Retirement{
		EndDate: op.EndDate,
		Reason:  op.Reason,
		AsOf:    a.asOf,
	})
	return err
}

// ApplyUpdate writes the merged document over the existing record, bringing
// a retired record back to active when needed. The incoming record is left
// untouched.
func (a *storeApplier) ApplyUpdate(ctx context.Context, op *operations.Update) error {
	rec := &store.Record{Ref: op.Existing.Ref, Doc: op.Merged}
	if op.Unretire {
		return a.store.Move(ctx, rec, store.Active)
	}
	return a.store.Save(ctx, rec)
}
