package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	calls []string
}

func (tr *callLog) step(name string, err error) Step {
	return Step{
		Name: name,
		Action: func(context.Context) error {
			tr.calls = append(tr.calls, name)
			return err
		},
	}
}

func TestRunsStepsInOrder(t *testing.T) {
	tr := &callLog{}
	def := Definition{
		Name:  "ordered",
		Steps: []Step{tr.step("a", nil), tr.step("b", nil), tr.step("c", nil)},
	}

	report := NewExecutor(nil, nil).Run(context.Background(), def)

	assert.Equal(t, Succeeded, report.Outcome)
	assert.Equal(t, []string{"a", "b", "c"}, tr.calls)
	assert.Equal(t, []string{"a", "b", "c"}, report.Completed)
	assert.True(t, report.OK())
}

func TestAbortStopsAndNamesStep(t *testing.T) {
	tr := &callLog{}
	boom := errors.New("not found")
	fail := tr.step("open tools", boom)
	fail.Reason = "Could not open Meeting tools"
	def := Definition{
		Name:  "abort",
		Steps: []Step{tr.step("a", nil), fail, tr.step("never", nil)},
	}

	report := NewExecutor(nil, nil).Run(context.Background(), def)

	assert.Equal(t, Aborted, report.Outcome)
	assert.Equal(t, []string{"a", "open tools"}, tr.calls)
	assert.ErrorIs(t, report.Err, boom)

	var stepErr *StepError
	require.ErrorAs(t, report.Err, &stepErr)
	assert.Equal(t, "open tools", stepErr.Step)
	assert.Contains(t, stepErr.UserMessage(), "Could not open Meeting tools")
	assert.Contains(t, stepErr.UserMessage(), "open tools")
}

func TestHaltEndsRunAsSatisfied(t *testing.T) {
	tr := &callLog{}
	verified := false
	def := Definition{
		Name:  "halt",
		Steps: []Step{tr.step("precheck", ErrHalt), tr.step("never", nil)},
		Verify: &Verification{Check: func(context.Context) error {
			verified = true
			return nil
		}},
	}

	report := NewExecutor(nil, nil).Run(context.Background(), def)

	assert.Equal(t, AlreadySatisfied, report.Outcome)
	assert.Equal(t, []string{"precheck"}, tr.calls)
	assert.False(t, verified)
	assert.NoError(t, report.Err)
}

func TestSkipContinues(t *testing.T) {
	tr := &callLog{}
	optional := tr.step("optional", errors.New("missing"))
	optional.OnFailure = SkipStep
	def := Definition{Name: "skip", Steps: []Step{optional, tr.step("next", nil)}}

	report := NewExecutor(nil, nil).Run(context.Background(), def)

	assert.Equal(t, Succeeded, report.Outcome)
	assert.Equal(t, []string{"optional"}, report.Skipped)
	assert.Equal(t, []string{"next"}, report.Completed)
}

func TestRetryOnlyWhenDeclared(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		failFor int
		calls   int
		outcome Outcome
	}{
		{"abort runs once", AbortWorkflow, 1, 1, Aborted},
		{"retry recovers", RetryStep(2), 2, 3, Succeeded},
		{"retry exhausted", RetryStep(1), 5, 2, Aborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			def := Definition{Name: "retry", Steps: []Step{{
				Name:      "flaky",
				OnFailure: tt.policy,
				Action: func(context.Context) error {
					calls++
					if calls <= tt.failFor {
						return errors.New("flaky")
					}
					return nil
				},
			}}}

			report := NewExecutor(nil, nil).Run(context.Background(), def)

			assert.Equal(t, tt.outcome, report.Outcome)
			assert.Equal(t, tt.calls, calls)
		})
	}
}

func TestVerificationFailureIsWarning(t *testing.T) {
	successRan := false
	def := Definition{
		Name:  "verify",
		Steps: []Step{{Name: "click", Action: func(context.Context) error { return nil }}},
		Verify: &Verification{
			Wait:  time.Millisecond,
			Check: func(context.Context) error { return errors.New("indicator absent") },
		},
		OnSuccess: func(context.Context) error {
			successRan = true
			return nil
		},
	}

	report := NewExecutor(nil, nil).Run(context.Background(), def)

	assert.Equal(t, Warning, report.Outcome)
	assert.ErrorIs(t, report.Err, ErrVerificationFailed)
	assert.False(t, successRan)
}

func TestOnSuccessFailureDoesNotChangeOutcome(t *testing.T) {
	def := Definition{
		Name:      "best effort",
		Steps:     []Step{{Name: "click", Action: func(context.Context) error { return nil }}},
		Verify:    &Verification{Check: func(context.Context) error { return nil }},
		OnSuccess: func(context.Context) error { return errors.New("panel stuck") },
	}

	report := NewExecutor(nil, nil).Run(context.Background(), def)

	assert.Equal(t, Succeeded, report.Outcome)
	assert.NoError(t, report.Err)
}

func TestCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := &callLog{}
	def := Definition{Name: "cancel", Delay: time.Hour, Steps: []Step{tr.step("a", nil)}}

	report := NewExecutor(nil, nil).Run(ctx, def)

	assert.Equal(t, Aborted, report.Outcome)
	assert.ErrorIs(t, report.Err, context.Canceled)
	assert.Empty(t, tr.calls)
}

func TestPolicyAttempts(t *testing.T) {
	assert.Equal(t, 1, AbortWorkflow.Attempts())
	assert.Equal(t, 1, SkipStep.Attempts())
	assert.Equal(t, 4, RetryStep(3).Attempts())
	assert.Equal(t, 1, RetryStep(-2).Attempts())
	assert.Equal(t, "retry(3)", RetryStep(3).String())
	assert.Equal(t, AbortWorkflow, Policy{})
}
