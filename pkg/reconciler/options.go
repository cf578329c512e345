package reconciler

import (
	"time"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/matcher"
	"github.com/agentstation/rostermerge/pkg/operations"
	"github.com/agentstation/rostermerge/pkg/seats"
)

// options configures a reconciler.
type options struct {
	deferred        bool
	save            bool
	continueOnError bool
	endDate         string
	runID           string
	now             func() time.Time
	observers       []operations.Observer
	matcherOpts     []matcher.Option
	seats           seats.Seats
}

func defaultOptions() *options {
	return &options{
		deferred: true,
		save:     true,
		now:      time.Now,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithDefer controls whether operations wait until every decision is made
// and then run in seat order (the default), or run as soon as decided.
func WithDefer(deferred bool) Option {
	return func(o *options) error {
		o.deferred = deferred
		return nil
	}
}

// WithSave controls persistence. Disabling it is a dry run.
func WithSave(save bool) Option {
	return func(o *options) error {
		o.save = save
		return nil
	}
}

// WithEndDate overrides the date stamped on ended roles. Defaults to today.
func WithEndDate(date string) Option {
	return func(o *options) error {
		if date == "" {
			return nil
		}
		if _, err := time.Parse(constants.DateLayout, date); err != nil {
			return errors.NewValidationError("end_date", date, "end date must be YYYY-MM-DD")
		}
		o.endDate = date
		return nil
	}
}

// WithContinueOnError keeps applying operations after one fails.
func WithContinueOnError(enabled bool) Option {
	return func(o *options) error {
		o.continueOnError = enabled
		return nil
	}
}

// WithObserver receives every operation outcome.
func WithObserver(observer operations.Observer) Option {
	return func(o *options) error {
		if observer == nil {
			return &errors.ValidationError{Field: "observer", Message: "cannot be nil"}
		}
		o.observers = append(o.observers, observer)
		return nil
	}
}

// WithRunID sets the run identifier. Defaults to a random uuid.
func WithRunID(id string) Option {
	return func(o *options) error {
		o.runID = id
		return nil
	}
}

// WithClock overrides the clock used for today's date.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}

// WithMatcherOptions passes options through to the matcher.
func WithMatcherOptions(opts ...matcher.Option) Option {
	return func(o *options) error {
		o.matcherOpts = append(o.matcherOpts, opts...)
		return nil
	}
}

// WithSeats enables the incoming-volume check against expected seats.
func WithSeats(expanded seats.Seats) Option {
	return func(o *options) error {
		o.seats = expanded
		return nil
	}
}
