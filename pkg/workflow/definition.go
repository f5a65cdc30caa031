package workflow

import (
	"context"
	"time"
)

// Action performs one step. It may block, but must return once ctx is done.
type Action func(ctx context.Context) error

// Step is one named unit of a workflow.
type Step struct {
	Name   string
	Action Action
	// OnFailure defaults to AbortWorkflow.
	OnFailure Policy
	// Reason is shown to the user when this step aborts the run.
	Reason string
	// Settle is waited after the step succeeds, and between retries, to let
	// the page render.
	Settle time.Duration
}

// Verification re-reads the target condition after the last step.
type Verification struct {
	Wait  time.Duration
	Check func(ctx context.Context) error
}

// Definition is an immutable workflow.
type Definition struct {
	Name string
	// Delay is waited before the first step.
	Delay  time.Duration
	Steps  []Step
	Verify *Verification
	// OnSuccess runs after a passed verification. Its failure is logged and
	// does not change the outcome.
	OnSuccess Action
}

// Outcome is the result class of a run.
type Outcome int

const (
	Succeeded Outcome = iota
	AlreadySatisfied
	Warning
	Aborted
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case AlreadySatisfied:
		return "already_satisfied"
	case Warning:
		return "warning"
	case Aborted:
		return "aborted"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Report describes a finished run.
type Report struct {
	Workflow  string
	Outcome   Outcome
	Err       error
	Completed []string
	Skipped   []string
	Duration  time.Duration
}

// OK reports whether the run reached its goal.
func (r Report) OK() bool {
	return r.Outcome == Succeeded || r.Outcome == AlreadySatisfied
}
