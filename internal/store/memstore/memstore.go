// Package memstore is an in-memory store.Store for tests and dry runs.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/store"
)

// Store keeps records in memory. Documents are copied on the way in and
// out so callers never share state with the store.
type Store struct {
	mu       sync.RWMutex
	records  map[store.Ref]document.Document
	failures map[string]error
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		records:  make(map[store.Ref]document.Document),
		failures: make(map[string]error),
	}
}

// Put seeds a record and returns it.
func (s *Store) Put(kind store.Kind, partition store.Partition, doc document.Document) *store.Record {
	rec := store.NewRecord(kind, partition, doc)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Ref] = doc.Clone()
	return rec
}

// FailOn makes every write touching the named record return err.
func (s *Store) FailOn(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[name] = err
}

// Len returns the number of records in a partition.
func (s *Store) Len(kind store.Kind, partition store.Partition) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for ref := range s.records {
		if ref.Kind == kind && ref.Partition == partition {
			n++
		}
	}
	return n
}

// List implements store.Reader.
func (s *Store) List(_ context.Context, kind store.Kind, partition store.Partition) ([]*store.Record, error) {
	if err := store.Validate(kind, partition); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*store.Record
	for ref, doc := range s.records {
		if ref.Kind == kind && ref.Partition == partition {
			out = append(out, &store.Record{Ref: ref, Doc: doc.Clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.Name < out[j].Ref.Name })
	return out, nil
}

// Load implements store.Reader.
func (s *Store) Load(_ context.Context, ref store.Ref) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.records[ref]
	if !ok {
		return nil, errors.NewNotFoundError("record", ref.String())
	}
	return &store.Record{Ref: ref, Doc: doc.Clone()}, nil
}

// Save implements store.Writer.
func (s *Store) Save(_ context.Context, rec *store.Record) error {
	if err := store.Validate(rec.Ref.Kind, rec.Ref.Partition); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[rec.Ref.Name]; err != nil {
		return errors.WrapIO("write", rec.Ref.String(), err)
	}
	s.records[rec.Ref] = rec.Doc.Clone()
	return nil
}

// Move implements store.Writer.
func (s *Store) Move(_ context.Context, rec *store.Record, to store.Partition) error {
	if err := store.Validate(rec.Ref.Kind, to); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[rec.Ref.Name]; err != nil {
		return errors.WrapIO("move", rec.Ref.String(), err)
	}
	target := rec.Ref.In(to)
	if target == rec.Ref {
		s.records[target] = rec.Doc.Clone()
		return nil
	}
	if _, exists := s.records[target]; exists {
		return &errors.AlreadyExistsError{Resource: "record", ID: target.String()}
	}
	delete(s.records, rec.Ref)
	s.records[target] = rec.Doc.Clone()
	rec.Ref = target
	return nil
}

// Delete implements store.Writer.
func (s *Store) Delete(_ context.Context, ref store.Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[ref]; !ok {
		return errors.NewNotFoundError("record", ref.String())
	}
	delete(s.records, ref)
	return nil
}
