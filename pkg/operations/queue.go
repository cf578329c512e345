package operations

import "sort"

// Queue is an append-only list of pending operations.
type Queue struct {
	ops []Operation
}

// Push appends an operation.
func (q *Queue) Push(op Operation) {
	q.ops = append(q.ops, op)
}

// Len returns the number of queued operations.
func (q *Queue) Len() int { return len(q.ops) }

// Operations returns the queued operations in their current order.
func (q *Queue) Operations() []Operation {
	out := make([]Operation, len(q.ops))
	copy(out, q.ops)
	return out
}

// Sort orders operations by seat: chamber first, then district with
// numbers ascending ahead of labels. Equal seats keep insertion order.
func (q *Queue) Sort() {
	sort.SliceStable(q.ops, func(i, j int) bool {
		return q.ops[i].Seat().Compare(q.ops[j].Seat()) < 0
	})
}

// Drain removes and returns every operation.
func (q *Queue) Drain() []Operation {
	ops := q.ops
	q.ops = nil
	return ops
}
