package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/entrhq/autorecord/pkg/logging"
	"github.com/entrhq/autorecord/pkg/telemetry"
)

// Executor runs Definitions.
type Executor struct {
	logger  *logging.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// NewExecutor creates an executor. logger and metrics may be nil.
func NewExecutor(logger *logging.Logger, metrics *telemetry.Metrics) *Executor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Executor{
		logger:  logger,
		metrics: metrics,
		tracer:  telemetry.Tracer(),
		now:     time.Now,
	}
}

// Run executes def to completion. Cancelling ctx aborts the run at the next
// wait point or inside the running step's action.
func (e *Executor) Run(ctx context.Context, def Definition) Report {
	start := e.now()
	ctx, span := e.tracer.Start(ctx, "workflow "+def.Name,
		trace.WithAttributes(attribute.String("workflow.name", def.Name)))
	defer span.End()

	report := e.run(ctx, def)
	report.Workflow = def.Name
	report.Duration = e.now().Sub(start)

	span.SetAttributes(attribute.String("workflow.outcome", report.Outcome.String()))
	if report.Err != nil {
		span.RecordError(report.Err)
		if report.Outcome == Aborted {
			span.SetStatus(codes.Error, report.Err.Error())
		}
	}
	e.metrics.WorkflowRun(def.Name, report.Outcome.String(), report.Duration)
	e.logger.Infof("workflow %s finished: %s in %v", def.Name, report.Outcome, report.Duration)
	return report
}

func (e *Executor) run(ctx context.Context, def Definition) Report {
	var report Report

	if err := Sleep(ctx, def.Delay); err != nil {
		report.Outcome = Aborted
		report.Err = err
		return report
	}

	for _, step := range def.Steps {
		err := e.runStep(ctx, def.Name, step)
		switch {
		case err == nil:
			report.Completed = append(report.Completed, step.Name)
		case errors.Is(err, ErrHalt):
			e.logger.Infof("workflow %s: step %q found goal already satisfied", def.Name, step.Name)
			report.Outcome = AlreadySatisfied
			return report
		case step.OnFailure.kind == skipKind:
			e.logger.Warnf("workflow %s: skipping step %q: %v", def.Name, step.Name, err)
			report.Skipped = append(report.Skipped, step.Name)
			continue
		default:
			report.Outcome = Aborted
			report.Err = &StepError{
				Workflow: def.Name,
				Step:     step.Name,
				Reason:   step.Reason,
				Attempts: step.OnFailure.Attempts(),
				Err:      err,
			}
			e.logger.Errorf("%v", report.Err)
			return report
		}

		if err := Sleep(ctx, step.Settle); err != nil {
			report.Outcome = Aborted
			report.Err = err
			return report
		}
	}

	if def.Verify != nil {
		if err := e.verify(ctx, def); err != nil {
			report.Outcome = Warning
			report.Err = err
			e.logger.Warnf("workflow %s: %v", def.Name, err)
			return report
		}
	}

	report.Outcome = Succeeded
	if def.OnSuccess != nil {
		if err := def.OnSuccess(ctx); err != nil {
			e.logger.Warnf("workflow %s: post-success action failed: %v", def.Name, err)
		}
	}
	return report
}

// runStep runs one step, honoring its retry policy. It returns the last error.
func (e *Executor) runStep(ctx context.Context, workflow string, step Step) error {
	ctx, span := e.tracer.Start(ctx, "step "+step.Name,
		trace.WithAttributes(attribute.String("workflow.step", step.Name)))
	defer span.End()

	attempts := step.OnFailure.Attempts()
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		err = step.Action(ctx)
		if err == nil || errors.Is(err, ErrHalt) {
			return err
		}
		e.metrics.StepFailure(workflow, step.Name, step.OnFailure.String())
		e.logger.Debugf("workflow %s: step %q attempt %d/%d: %v", workflow, step.Name, attempt, attempts, err)
		if attempt < attempts {
			if serr := Sleep(ctx, step.Settle); serr != nil {
				err = serr
				break
			}
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (e *Executor) verify(ctx context.Context, def Definition) error {
	if err := Sleep(ctx, def.Verify.Wait); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if err := def.Verify.Check(ctx); err != nil {
		if errors.Is(err, ErrVerificationFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
