// Package store defines the keyed document store reconciliation runs
// against. Every record lives in exactly one partition and the adapter,
// not the caller, says which.
package store

import (
	"context"
	"fmt"

	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
)

// Kind is the type of record.
type Kind string

const (
	// KindPerson is a person record.
	KindPerson Kind = "person"
	// KindCommittee is a committee record.
	KindCommittee Kind = "committee"
)

// Partition is the storage bucket a record lives in.
type Partition string

const (
	// Active holds current office holders.
	Active Partition = "active"
	// Retired holds people no longer in office.
	Retired Partition = "retired"
	// Incoming holds the latest data pull.
	Incoming Partition = "incoming"
)

// Partitions lists every partition.
var Partitions = []Partition{Active, Retired, Incoming}

// ParsePartition validates a partition name.
func ParsePartition(s string) (Partition, error) {
	for _, p := range Partitions {
		if string(p) == s {
			return p, nil
		}
	}
	return "", errors.NewValidationError("partition", s, fmt.Sprintf("unknown partition %q", s))
}

// Ref addresses a record. Name is the record's base name and survives
// moves between partitions.
type Ref struct {
	Kind      Kind
	Partition Partition
	Name      string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Kind, r.Partition, r.Name)
}

// In returns the same record addressed in another partition.
func (r Ref) In(p Partition) Ref {
	r.Partition = p
	return r
}

// Record is a document together with where it is stored.
type Record struct {
	Ref Ref
	Doc document.Document
}

// NewRecord names a record after its document.
func NewRecord(kind Kind, partition Partition, doc document.Document) *Record {
	return &Record{
		Ref: Ref{Kind: kind, Partition: partition, Name: document.Filename(doc)},
		Doc: doc,
	}
}

// Reader lists and loads records.
type Reader interface {
	// List returns every record of a kind in a partition, ordered by name.
	List(ctx context.Context, kind Kind, partition Partition) ([]*Record, error)
	// Load returns one record or a NotFoundError.
	Load(ctx context.Context, ref Ref) (*Record, error)
}

// Writer persists records. Each call is atomic from the caller's point of
// view; there are no transactions across calls.
type Writer interface {
	// Save writes the record at its ref.
	Save(ctx context.Context, rec *Record) error
	// Move writes the record into another partition under the same name,
	// removes it from its current one and updates rec.Ref. Moving onto an
	// existing record is an AlreadyExistsError.
	Move(ctx context.Context, rec *Record, to Partition) error
	// Delete removes a record.
	Delete(ctx context.Context, ref Ref) error
}

// Store is a full document store.
type Store interface {
	Reader
	Writer
}

// Validate checks that a kind and partition combination is storable.
// Committees only exist in the active partition.
func Validate(kind Kind, partition Partition) error {
	if _, err := ParsePartition(string(partition)); err != nil {
		return err
	}
	switch kind {
	case KindPerson:
		return nil
	case KindCommittee:
		if partition != Active {
			return errors.NewValidationError("partition", partition, "committees are only stored in the active partition")
		}
		return nil
	}
	return errors.NewValidationError("kind", kind, fmt.Sprintf("unknown record kind %q", kind))
}
