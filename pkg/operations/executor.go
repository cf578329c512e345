package operations

import (
	"context"

	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/logging"
)

// State is where an operation is in its lifecycle.
type State string

const (
	// Pending operations have not run.
	Pending State = "pending"
	// Applied operations were persisted.
	Applied State = "applied"
	// Skipped operations ran with saving disabled.
	Skipped State = "skipped"
	// Failed operations returned an error.
	Failed State = "failed"
)

// Outcome records what happened to one operation.
type Outcome struct {
	Seq   int
	Op    Operation
	State State
	Err   error
}

// Applier performs operations against the store.
type Applier interface {
	ApplyCreate(ctx context.Context, op *Create) error
	ApplyRetire(ctx context.Context, op *Retire) error
	ApplyUpdate(ctx context.Context, op *Update) error
}

// Observer is told about every finished operation.
type Observer interface {
	Observe(ctx context.Context, outcome Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, outcome Outcome)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, outcome Outcome) { f(ctx, outcome) }

// Executor applies operations one at a time.
type Executor struct {
	applier         Applier
	save            bool
	continueOnError bool
	observers       []Observer
	seq             int
}

// Option configures an Executor.
type Option func(*Executor)

// WithSave enables or disables persistence. Without it every operation
// ends Skipped.
func WithSave(save bool) Option {
	return func(e *Executor) { e.save = save }
}

// WithContinueOnError keeps running after a failed operation and reports
// all failures together.
func WithContinueOnError(enabled bool) Option {
	return func(e *Executor) { e.continueOnError = enabled }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// NewExecutor creates an executor that saves by default.
func NewExecutor(applier Applier, opts ...Option) *Executor {
	e := &Executor{applier: applier, save: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a single operation and notifies observers.
func (e *Executor) Execute(ctx context.Context, op Operation) Outcome {
	e.seq++
	outcome := Outcome{Seq: e.seq, Op: op, State: Skipped}

	if e.save {
		if err := e.apply(ctx, op); err != nil {
			outcome.State = Failed
			outcome.Err = errors.NewOperationError(string(op.Kind()), op.Subject(), op.Seat().String(), err)
		} else {
			outcome.State = Applied
		}
	}

	logger := logging.FromContext(ctx)
	event := logger.Info()
	if outcome.Err != nil {
		event = logger.Error().Err(outcome.Err)
	}
	event.Int("seq", outcome.Seq).
		Str("operation", string(op.Kind())).
		Str("seat", op.Seat().String()).
		Str("state", string(outcome.State)).
		Msg(op.Describe())

	for _, o := range e.observers {
		o.Observe(ctx, outcome)
	}
	return outcome
}

func (e *Executor) apply(ctx context.Context, op Operation) error {
	switch v := op.(type) {
	case *Create:
		return e.applier.ApplyCreate(ctx, v)
	case *Retire:
		return e.applier.ApplyRetire(ctx, v)
	case *Update:
		return e.applier.ApplyUpdate(ctx, v)
	}
	return errors.NewValidationError("operation", op, "unknown operation kind")
}

// Run executes ops front to back. By default the first failure stops the
// run and the remaining operations stay Pending; nothing already applied
// is rolled back.
func (e *Executor) Run(ctx context.Context, ops []Operation) (*Report, error) {
	report := &Report{}
	var errs []error
	for i, op := range ops {
		outcome := e.Execute(ctx, op)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Err == nil {
			continue
		}
		errs = append(errs, outcome.Err)
		if e.continueOnError {
			continue
		}
		for _, rest := range ops[i+1:] {
			report.Outcomes = append(report.Outcomes, Outcome{Op: rest, State: Pending})
		}
		break
	}
	return report, joinErrors(errs)
}
