// Package operations schedules and executes the mutations a reconciliation
// run decides on. Operations are plain data; an Applier does the work.
package operations

import (
	"fmt"

	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/store"
)

// Kind tags an operation.
type Kind string

const (
	// KindCreate promotes an incoming record to active.
	KindCreate Kind = "create"
	// KindRetire retires an existing record.
	KindRetire Kind = "retire"
	// KindUpdate merges an incoming record into an existing one.
	KindUpdate Kind = "update"
)

// Operation is one of Create, Retire or Update.
type Operation interface {
	Kind() Kind
	// Seat is the seat of the primary subject, used for ordering.
	Seat() document.Seat
	// Subject is the display name of the primary subject.
	Subject() string
	// Describe renders the human readable log line.
	Describe() string
	operation()
}

// Create promotes an incoming record into the active partition.
type Create struct {
	Incoming *store.Record
	seat     document.Seat
}

// Retire end-dates an existing record's roles and moves it to retired.
type Retire struct {
	Existing *store.Record
	EndDate  string
	Reason   string
	seat     document.Seat
}

// Update replaces an existing record's content with Merged. Moved counts
// the roles ended because the seat changed; Unretire is set when the
// existing record comes back from the retired partition.
type Update struct {
	Existing *store.Record
	Incoming *store.Record
	Merged   document.Document
	Moved    int
	Unretire bool
	seat     document.Seat
	from     document.Seat
}

// NewCreate keys a create on the incoming record's seat.
func NewCreate(incoming *store.Record) (*Create, error) {
	seat, err := incoming.Doc.Seat()
	if err != nil {
		return nil, err
	}
	return &Create{Incoming: incoming, seat: seat}, nil
}

// NewRetire keys a retire on the existing record's seat.
func NewRetire(existing *store.Record, endDate, reason string) (*Retire, error) {
	seat, err := existing.Doc.Seat()
	if err != nil {
		return nil, err
	}
	return &Retire{Existing: existing, EndDate: endDate, Reason: reason, seat: seat}, nil
}

// NewUpdate keys an update on the incoming record's seat.
func NewUpdate(existing, incoming *store.Record, merged document.Document, moved int) (*Update, error) {
	seat, err := incoming.Doc.Seat()
	if err != nil {
		return nil, err
	}
	from, err := existing.Doc.Seat()
	if err != nil {
		return nil, err
	}
	return &Update{
		Existing: existing,
		Incoming: incoming,
		Merged:   merged,
		Moved:    moved,
		Unretire: existing.Ref.Partition == store.Retired,
		seat:     seat,
		from:     from,
	}, nil
}

func (*Create) Kind() Kind { return KindCreate }
func (*Retire) Kind() Kind { return KindRetire }
func (*Update) Kind() Kind { return KindUpdate }

func (c *Create) Seat() document.Seat { return c.seat }
func (r *Retire) Seat() document.Seat { return r.seat }
func (u *Update) Seat() document.Seat { return u.seat }

func (c *Create) Subject() string { return c.Incoming.Doc.Name() }
func (r *Retire) Subject() string { return r.Existing.Doc.Name() }
func (u *Update) Subject() string { return u.Existing.Doc.Name() }

// Describe renders lines such as "In lower/3 creating Jane Doe."
func (c *Create) Describe() string {
	return fmt.Sprintf("In %s creating %s.", c.seat, c.Subject())
}

func (r *Retire) Describe() string {
	return fmt.Sprintf("In %s retiring %s.", r.seat, r.Subject())
}

func (u *Update) Describe() string {
	var extra string
	if u.Moved > 0 {
		extra += fmt.Sprintf(" and moving to %s", u.seat)
	}
	if u.Unretire {
		extra += " and restoring from retired"
	}
	return fmt.Sprintf("In %s updating %s%s.", u.from, u.Subject(), extra)
}

func (*Create) operation() {}
func (*Retire) operation() {}
func (*Update) operation() {}
