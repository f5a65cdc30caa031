// Package guard holds the per-document flags that keep a workflow from running
// twice: once per qualifying context, and never concurrently.
package guard

import "sync"

// State is a snapshot of a Guard.
type State struct {
	WorkflowAttempted  bool
	WorkflowInProgress bool
	PendingHandshake   bool
}

// Guard is owned by one orchestrator for one document. The zero value is ready
// to use with every flag false.
//
// Check-and-set happens under a mutex: callbacks from the browser arrive on
// different goroutines, so the check that precedes workflow entry must be
// atomic with the flag update.
type Guard struct {
	mu sync.Mutex
	s  State
	// deferred holds a context reset that arrived during a run.
	deferred bool
}

// New returns a cleared guard.
func New() *Guard {
	return &Guard{}
}

// TryBegin marks the workflow attempted and in progress. It returns false,
// changing nothing, when the workflow was already attempted in this context or
// is running.
func (g *Guard) TryBegin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.s.WorkflowAttempted || g.s.WorkflowInProgress {
		return false
	}
	g.s.WorkflowAttempted = true
	g.s.WorkflowInProgress = true
	return true
}

// Finish ends the running workflow. The attempt stays recorded whatever the
// outcome, so a failure is not retried automatically, unless a new context
// arrived during the run. Finish reports whether such a reset was applied.
func (g *Guard) Finish() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.s.WorkflowInProgress = false
	if !g.deferred {
		return false
	}
	g.deferred = false
	g.s.WorkflowAttempted = false
	return true
}

// ResetContext clears the attempt when a new qualifying context appears (a new
// dialog instance, a new meeting join). While a run is in progress the reset is
// held until Finish. It reports whether the reset happened now.
func (g *Guard) ResetContext() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.s.WorkflowInProgress {
		g.deferred = true
		return false
	}
	g.s.WorkflowAttempted = false
	return true
}

// TryMarkPending sets the pending-handshake flag. It returns false when a
// handshake is already pending.
func (g *Guard) TryMarkPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.s.PendingHandshake {
		return false
	}
	g.s.PendingHandshake = true
	return true
}

// ClearPending clears the pending-handshake flag and reports whether it was
// set.
func (g *Guard) ClearPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	was := g.s.PendingHandshake
	g.s.PendingHandshake = false
	return was
}

// Snapshot returns the current flags.
func (g *Guard) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.s
}
