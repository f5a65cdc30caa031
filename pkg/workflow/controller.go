package workflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/entrhq/autorecord/pkg/guard"
	"github.com/entrhq/autorecord/pkg/logging"
	"github.com/entrhq/autorecord/pkg/notify"
)

// Messages are the user-facing texts a Controller shows. Empty texts are not
// shown.
type Messages struct {
	Title     string
	Busy      string
	Success   string
	Satisfied string
	Warning   string
	// FailurePrefix is prepended to the failed step's description.
	FailurePrefix string
	Duration      time.Duration
}

// Controller runs one workflow per qualifying context.
type Controller struct {
	guard    *guard.Guard
	executor *Executor
	notifier notify.Notifier
	messages Messages
	logger   *logging.Logger
}

// NewController ties a workflow's guard, executor and notifier together.
func NewController(g *guard.Guard, executor *Executor, notifier notify.Notifier, messages Messages, logger *logging.Logger) *Controller {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if messages.Title == "" {
		messages.Title = notify.DefaultTitle
	}
	return &Controller{
		guard:    g,
		executor: executor,
		notifier: notifier,
		messages: messages,
		logger:   logger,
	}
}

// Guard returns the controller's guard.
func (c *Controller) Guard() *guard.Guard {
	return c.guard
}

// Trigger runs def unless the guard refuses, and returns the report. The
// second result is false when the guard refused entry.
func (c *Controller) Trigger(ctx context.Context, def Definition) (Report, bool) {
	if !c.guard.TryBegin() {
		c.logger.Debugf("workflow %s already attempted or running", def.Name)
		return Report{Workflow: def.Name, Outcome: Skipped}, false
	}
	return c.run(ctx, def), true
}

// Start is Trigger on a new goroutine. The guard is checked before Start
// returns, so two calls in a row never start two runs. done, if non-nil,
// receives the report.
func (c *Controller) Start(ctx context.Context, def Definition, done func(Report)) bool {
	if !c.guard.TryBegin() {
		c.logger.Debugf("workflow %s already attempted or running", def.Name)
		return false
	}
	go func() {
		report := c.run(ctx, def)
		if done != nil {
			done(report)
		}
	}()
	return true
}

func (c *Controller) run(ctx context.Context, def Definition) (report Report) {
	defer c.guard.Finish()
	defer func() {
		if r := recover(); r != nil {
			c.notifier.HideBusy()
			err := fmt.Errorf("workflow %s panicked: %v", def.Name, r)
			c.logger.Errorf("%v\n%s", err, debug.Stack())
			report = Report{Workflow: def.Name, Outcome: Aborted, Err: err}
			c.notice(notify.Error, c.messages.FailurePrefix+err.Error())
		}
	}()

	if c.messages.Busy != "" {
		c.notifier.ShowBusy(c.messages.Busy)
	}
	report = c.executor.Run(ctx, def)
	c.notifier.HideBusy()
	c.surface(report)
	return report
}

func (c *Controller) surface(report Report) {
	switch report.Outcome {
	case Succeeded:
		c.notice(notify.Success, c.messages.Success)
	case AlreadySatisfied:
		c.notice(notify.Info, c.messages.Satisfied)
	case Warning:
		c.notice(notify.Warning, c.messages.Warning)
	case Aborted:
		c.notice(notify.Error, c.messages.FailurePrefix+describe(report.Err))
	}
}

func (c *Controller) notice(kind notify.Kind, message string) {
	if message == "" {
		return
	}
	c.notifier.ShowNotice(notify.Notice{
		Kind:     kind,
		Title:    c.messages.Title,
		Message:  message,
		Duration: c.messages.Duration,
	})
}

func describe(err error) string {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.UserMessage()
	}
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
