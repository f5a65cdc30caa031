package workflow

import "fmt"

type policyKind int

const (
	abortKind policyKind = iota
	skipKind
	retryKind
)

// Policy is what the executor does when a step fails.
type Policy struct {
	kind    policyKind
	retries int
}

var (
	// AbortWorkflow stops the run and reports the step. It is the zero value.
	AbortWorkflow = Policy{kind: abortKind}

	// SkipStep logs the failure and continues with the next step.
	SkipStep = Policy{kind: skipKind}
)

// RetryStep re-runs the step up to n more times, then aborts.
func RetryStep(n int) Policy {
	if n < 0 {
		n = 0
	}
	return Policy{kind: retryKind, retries: n}
}

// Attempts is the total number of times a step under p may run.
func (p Policy) Attempts() int {
	if p.kind == retryKind {
		return p.retries + 1
	}
	return 1
}

func (p Policy) String() string {
	switch p.kind {
	case skipKind:
		return "skip"
	case retryKind:
		return fmt.Sprintf("retry(%d)", p.retries)
	default:
		return "abort"
	}
}
