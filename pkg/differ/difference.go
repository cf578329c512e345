// Package differ computes structured differences between two documents.
package differ

import "fmt"

// Side identifies which document contributed a list element.
type Side int

const (
	// First is the existing document.
	First Side = iota
	// Second is the incoming document.
	Second
)

func (s Side) String() string {
	if s == Second {
		return "second"
	}
	return "first"
}

// Difference is either an ItemDifference or a ListDifference.
type Difference interface {
	// Path returns the dotted key path the difference was found at.
	Path() string
	fmt.Stringer
	difference()
}

// ItemDifference is a scalar field whose values differ. A missing value is
// reported as nil.
type ItemDifference struct {
	Key    string
	First  any
	Second any
}

// ListDifference is a list element present on only one side.
type ListDifference struct {
	Key  string
	Item any
	Side Side
}

// Path implements Difference.
func (d ItemDifference) Path() string { return d.Key }

// Path implements Difference.
func (d ListDifference) Path() string { return d.Key }

func (d ItemDifference) String() string {
	return fmt.Sprintf("%s: %v != %v", d.Key, d.First, d.Second)
}

func (d ListDifference) String() string {
	return fmt.Sprintf("%s: %v only in %s", d.Key, d.Item, d.Side)
}

func (ItemDifference) difference() {}
func (ListDifference) difference() {}
