package rostermerge

import (
	"context"
	"sync"

	"github.com/agentstation/rostermerge/pkg/operations"
)

// Hook function types for roster events
type (
	// CreatedHook is called when a new person is added to the roster
	CreatedHook func(op *operations.Create)

	// UpdatedHook is called when an existing person is updated
	UpdatedHook func(op *operations.Update)

	// RetiredHook is called when a person is retired
	RetiredHook func(op *operations.Retire)
)

// hooks manages event callbacks for applied operations
type hooks struct {
	mu        sync.RWMutex
	onCreated []CreatedHook
	onUpdated []UpdatedHook
	onRetired []RetiredHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnCreated registers a callback for when people are created
func (h *hooks) OnCreated(fn CreatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCreated = append(h.onCreated, fn)
}

// OnUpdated registers a callback for when people are updated
func (h *hooks) OnUpdated(fn UpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onUpdated = append(h.onUpdated, fn)
}

// OnRetired registers a callback for when people are retired
func (h *hooks) OnRetired(fn RetiredHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRetired = append(h.onRetired, fn)
}

// observer adapts the hooks to the executor. Only applied operations
// trigger hooks; skipped and failed ones do not.
func (h *hooks) observer() operations.Observer {
	return operations.ObserverFunc(func(_ context.Context, outcome operations.Outcome) {
		if outcome.State != operations.Applied {
			return
		}
		h.trigger(outcome.Op)
	})
}

// trigger calls every hook registered for the operation's kind
func (h *hooks) trigger(op operations.Operation) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch v := op.(type) {
	case *operations.Create:
		for _, hook := range h.onCreated {
			hook(v)
		}
	case *operations.Update:
		for _, hook := range h.onUpdated {
			hook(v)
		}
	case *operations.Retire:
		for _, hook := range h.onRetired {
			hook(v)
		}
	}
}
