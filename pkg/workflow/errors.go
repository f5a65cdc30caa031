package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrHalt ends a run early as already satisfied. A step returns it when
	// the goal state is observed before any action is taken.
	ErrHalt = errors.New("workflow goal already satisfied")

	// ErrPermissionDenied marks an entry point that is absent or disabled for
	// the current user.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrVerificationFailed marks a run whose steps completed but whose end
	// state was not observed.
	ErrVerificationFailed = errors.New("verification failed")
)

// StepError records the step that aborted a run.
type StepError struct {
	Workflow string
	Step     string
	// Reason is the user-facing description. Empty means Err's text.
	Reason   string
	Attempts int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %q failed: %v", e.Workflow, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// UserMessage describes the failure for a notice, naming the step.
func (e *StepError) UserMessage() string {
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	return fmt.Sprintf("%s (step: %s)", reason, e.Step)
}
