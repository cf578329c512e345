// Package matcher pairs existing roster records with incoming ones.
//
// Matching runs two passes over the cross product of both sets. The exact
// pass pairs identical names. The fuzzy pass then scores every remaining
// pair that holds the same seat, keeps those above the threshold and
// accepts them best first, so the strongest candidate always claims a
// record before weaker ones are considered. Whatever is left over becomes
// a retirement (existing) or a creation (incoming).
package matcher

import (
	"sort"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/document"
)

// Pair is an existing record matched to an incoming one.
type Pair struct {
	Existing document.Document
	Incoming document.Document
	// Ratio is the similarity of the names, 1 for exact matches.
	Ratio float64
	Exact bool
}

// Result is the outcome of matching.
type Result struct {
	Pairs   []Pair
	Retire  []document.Document
	Create  []document.Document
	Handled Handled
}

// Matcher pairs records. The zero value is not usable; call New.
type Matcher struct {
	threshold float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold overrides the similarity a fuzzy candidate must exceed.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// New creates a Matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{threshold: constants.SimilarityThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match is shorthand for New(opts...).Match.
func Match(existing, incoming []document.Document, opts ...Option) (*Result, error) {
	return New(opts...).Match(existing, incoming)
}

// Match pairs existing with incoming records. It is a pure function of its
// inputs: the same sets in the same order always give the same result.
// A record whose seat cannot be derived is an input error.
func (m *Matcher) Match(existing, incoming []document.Document) (*Result, error) {
	exact, handled := ExactPass(existing, incoming, NewHandled())
	fuzzy, handled, err := m.FuzzyPass(existing, incoming, handled)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Pairs:   append(exact, fuzzy...),
		Handled: handled,
	}
	for _, doc := range existing {
		if !handled.Existing[doc.ID()] {
			result.Retire = append(result.Retire, doc)
		}
	}
	for _, doc := range incoming {
		if !handled.Incoming[doc.ID()] {
			result.Create = append(result.Create, doc)
		}
	}
	return result, nil
}

// ExactPass pairs records with identical names, first come first served.
func ExactPass(existing, incoming []document.Document, handled Handled) ([]Pair, Handled) {
	handled = handled.Clone()
	var pairs []Pair
	for _, e := range existing {
		if handled.Existing[e.ID()] {
			continue
		}
		for _, n := range incoming {
			if handled.Incoming[n.ID()] {
				continue
			}
			if e.Name() == n.Name() {
				pairs = append(pairs, Pair{Existing: e, Incoming: n, Ratio: 1, Exact: true})
				handled.mark(e.ID(), n.ID())
				break
			}
		}
	}
	return pairs, handled
}

type candidate struct {
	existing document.Document
	incoming document.Document
	ratio    float64
}

// FuzzyPass pairs same-seat records whose names are similar enough,
// awarding the highest ratio first across the whole candidate set. Ties
// keep scan order.
func (m *Matcher) FuzzyPass(existing, incoming []document.Document, handled Handled) ([]Pair, Handled, error) {
	handled = handled.Clone()
	incomingSeats := make([]document.Seat, len(incoming))
	for i, n := range incoming {
		if handled.Incoming[n.ID()] {
			continue
		}
		seat, err := n.Seat()
		if err != nil {
			return nil, handled, err
		}
		incomingSeats[i] = seat
	}

	var candidates []candidate
	for _, e := range existing {
		if handled.Existing[e.ID()] {
			continue
		}
		seat, err := e.Seat()
		if err != nil {
			return nil, handled, err
		}
		for i, n := range incoming {
			if handled.Incoming[n.ID()] || incomingSeats[i] != seat {
				continue
			}
			if ratio := Ratio(e.Name(), n.Name()); ratio > m.threshold {
				candidates = append(candidates, candidate{existing: e, incoming: n, ratio: ratio})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ratio > candidates[j].ratio
	})

	var pairs []Pair
	for _, c := range candidates {
		if handled.Existing[c.existing.ID()] || handled.Incoming[c.incoming.ID()] {
			continue
		}
		pairs = append(pairs, Pair{Existing: c.existing, Incoming: c.incoming, Ratio: c.ratio})
		handled.mark(c.existing.ID(), c.incoming.ID())
	}
	return pairs, handled, nil
}
