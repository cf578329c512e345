package operations

import "context"

// Scheduler collects operations and runs them in seat order. When not
// deferred each operation runs as soon as it is scheduled.
type Scheduler struct {
	queue    Queue
	executor *Executor
	deferred bool
	report   Report
	errs     []error
}

// NewScheduler creates a scheduler around an executor.
func NewScheduler(executor *Executor, deferred bool) *Scheduler {
	return &Scheduler{executor: executor, deferred: deferred}
}

// Schedule queues op, or runs it immediately in no-defer mode. An error is
// returned only when an immediate run fails and the executor is not
// continuing on error.
func (s *Scheduler) Schedule(ctx context.Context, op Operation) error {
	if s.deferred {
		s.queue.Push(op)
		return nil
	}
	outcome := s.executor.Execute(ctx, op)
	s.report.Outcomes = append(s.report.Outcomes, outcome)
	if outcome.Err != nil {
		s.errs = append(s.errs, outcome.Err)
		if !s.executor.continueOnError {
			return outcome.Err
		}
	}
	return nil
}

// Pending returns the queued operations in seat order without running them.
func (s *Scheduler) Pending() []Operation {
	s.queue.Sort()
	return s.queue.Operations()
}

// Flush sorts and runs whatever is queued and returns the report for every
// operation this scheduler has handled.
func (s *Scheduler) Flush(ctx context.Context) (*Report, error) {
	s.queue.Sort()
	ops := s.queue.Drain()
	report, err := s.executor.Run(ctx, ops)
	s.report.Outcomes = append(s.report.Outcomes, report.Outcomes...)

	out := &Report{Outcomes: append([]Outcome(nil), s.report.Outcomes...)}
	if err != nil {
		s.errs = append(s.errs, err)
	}
	return out, joinErrors(s.errs)
}
