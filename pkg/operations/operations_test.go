package operations

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/store"
)

func record(partition store.Partition, name, chamber string, district any) *store.Record {
	return store.NewRecord(store.KindPerson, partition, document.Document{
		"id":    "ocd-person/" + name,
		"name":  name,
		"roles": []any{map[string]any{"type": chamber, "district": district}},
	})
}

type recordingApplier struct {
	applied []string
	fail    map[string]error
}

func (a *recordingApplier) do(kind Kind, subject string) error {
	if err := a.fail[subject]; err != nil {
		return err
	}
	a.applied = append(a.applied, fmt.Sprintf("%s %s", kind, subject))
	return nil
}

func (a *recordingApplier) ApplyCreate(_ context.Context, op *Create) error {
	return a.do(op.Kind(), op.Subject())
}

func (a *recordingApplier) ApplyRetire(_ context.Context, op *Retire) error {
	return a.do(op.Kind(), op.Subject())
}

func (a *recordingApplier) ApplyUpdate(_ context.Context, op *Update) error {
	return a.do(op.Kind(), op.Subject())
}

func mustCreate(t *testing.T, rec *store.Record) Operation {
	t.Helper()
	op, err := NewCreate(rec)
	require.NoError(t, err)
	return op
}

func mustRetire(t *testing.T, rec *store.Record) Operation {
	t.Helper()
	op, err := NewRetire(rec, "2024-06-01", "")
	require.NoError(t, err)
	return op
}

func seats(ops []Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Seat().String()
	}
	return out
}

func TestQueueSortBySeat(t *testing.T) {
	var q Queue
	q.Push(mustCreate(t, record(store.Incoming, "A", "lower", "3")))
	q.Push(mustRetire(t, record(store.Active, "B", "upper", "1")))
	q.Push(mustCreate(t, record(store.Incoming, "C", "lower", "1")))
	q.Sort()
	assert.Equal(t, []string{"lower/1", "lower/3", "upper/1"}, seats(q.Operations()))
}

func TestQueueSortMixedDistricts(t *testing.T) {
	var q Queue
	q.Push(mustCreate(t, record(store.Incoming, "A", "lower", "At-Large")))
	q.Push(mustCreate(t, record(store.Incoming, "B", "lower", "10")))
	q.Push(mustCreate(t, record(store.Incoming, "C", "lower", "9")))
	q.Push(mustCreate(t, record(store.Incoming, "D", "lower", "9")))
	q.Sort()
	ops := q.Operations()
	assert.Equal(t, []string{"lower/9", "lower/9", "lower/10", "lower/At-Large"}, seats(ops))
	assert.Equal(t, "C", ops[0].Subject(), "equal seats keep insertion order")
}

func TestUpdateKeysOnIncomingSeat(t *testing.T) {
	existing := record(store.Retired, "Jane", "upper", "5")
	incoming := record(store.Incoming, "Jane", "upper", "7")
	op, err := NewUpdate(existing, incoming, incoming.Doc, 1)
	require.NoError(t, err)
	assert.Equal(t, "upper/7", op.Seat().String())
	assert.True(t, op.Unretire)
	assert.Equal(t, "In upper/5 updating Jane and moving to upper/7 and restoring from retired.", op.Describe())
}

func TestNewOperationNeedsSeat(t *testing.T) {
	rec := store.NewRecord(store.KindPerson, store.Incoming, document.Document{"id": "x", "name": "No Roles"})
	_, err := NewCreate(rec)
	assert.True(t, errors.IsValidationError(err))
}

func TestSchedulerDeferredRunsInSeatOrder(t *testing.T) {
	ctx := context.Background()
	applier := &recordingApplier{}
	var observed []State
	exec := NewExecutor(applier, WithObserver(ObserverFunc(func(_ context.Context, o Outcome) {
		observed = append(observed, o.State)
	})))
	s := NewScheduler(exec, true)

	require.NoError(t, s.Schedule(ctx, mustCreate(t, record(store.Incoming, "A", "lower", "3"))))
	require.NoError(t, s.Schedule(ctx, mustRetire(t, record(store.Active, "B", "upper", "1"))))
	require.NoError(t, s.Schedule(ctx, mustCreate(t, record(store.Incoming, "C", "lower", "1"))))
	assert.Empty(t, applier.applied, "nothing runs before flush")
	assert.Len(t, s.Pending(), 3)

	report, err := s.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"create C", "create A", "retire B"}, applier.applied)
	assert.Equal(t, []State{Applied, Applied, Applied}, observed)
	assert.Equal(t, 2, report.Count(KindCreate, Applied))
	assert.Equal(t, 1, report.Planned(KindRetire))
}

func TestSchedulerNoDeferRunsImmediately(t *testing.T) {
	ctx := context.Background()
	applier := &recordingApplier{}
	s := NewScheduler(NewExecutor(applier), false)

	require.NoError(t, s.Schedule(ctx, mustCreate(t, record(store.Incoming, "A", "lower", "3"))))
	assert.Equal(t, []string{"create A"}, applier.applied)
	require.NoError(t, s.Schedule(ctx, mustCreate(t, record(store.Incoming, "C", "lower", "1"))))
	assert.Equal(t, []string{"create A", "create C"}, applier.applied, "no reordering without defer")

	report, err := s.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count("", Applied))
}

func TestDryRunSkips(t *testing.T) {
	ctx := context.Background()
	applier := &recordingApplier{}
	s := NewScheduler(NewExecutor(applier, WithSave(false)), true)
	require.NoError(t, s.Schedule(ctx, mustCreate(t, record(store.Incoming, "A", "lower", "3"))))
	require.NoError(t, s.Schedule(ctx, mustRetire(t, record(store.Active, "B", "lower", "4"))))

	report, err := s.Flush(ctx)
	require.NoError(t, err)
	assert.Empty(t, applier.applied)
	assert.Equal(t, 2, report.Count("", Skipped))
}

func TestFailureAbortsByDefault(t *testing.T) {
	ctx := context.Background()
	applier := &recordingApplier{fail: map[string]error{"B": assert.AnError}}
	s := NewScheduler(NewExecutor(applier), true)
	require.NoError(t, s.Schedule(ctx, mustCreate(t, record(store.Incoming, "A", "lower", "1"))))
	require.NoError(t, s.Schedule(ctx, mustCreate(t, record(store.Incoming, "B", "lower", "2"))))
	require.NoError(t, s.Schedule(ctx, mustCreate(t, record(store.Incoming, "C", "lower", "3"))))

	report, err := s.Flush(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsOperationError(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "create B in lower/2")

	assert.Equal(t, []string{"create A"}, applier.applied, "applied work is not rolled back")
	assert.Equal(t, 1, report.Count("", Applied))
	assert.Equal(t, 1, report.Count("", Failed))
	assert.Equal(t, 1, report.Count("", Pending))
}

func TestContinueOnError(t *testing.T) {
	ctx := context.Background()
	applier := &recordingApplier{fail: map[string]error{"A": assert.AnError, "B": assert.AnError}}
	s := NewScheduler(NewExecutor(applier, WithContinueOnError(true)), true)
	for i, name := range []string{"A", "B", "C"} {
		require.NoError(t, s.Schedule(ctx, mustCreate(t, record(store.Incoming, name, "lower", i+1))))
	}

	report, err := s.Flush(ctx)
	require.Error(t, err)
	assert.Len(t, report.Failures(), 2)
	assert.Equal(t, []string{"create C"}, applier.applied)
	assert.Contains(t, err.Error(), "create A")
	assert.Contains(t, err.Error(), "create B")
}
