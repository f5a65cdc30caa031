package autorecord

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/locator"
	"github.com/entrhq/autorecord/pkg/logging"
	"github.com/entrhq/autorecord/pkg/notify"
	"github.com/entrhq/autorecord/pkg/telemetry"
	"github.com/entrhq/autorecord/pkg/workflow"
)

// Session flag keys for the one-time activation notices.
const (
	CalendarInitFlag = "mar-calendar-init"
	MeetInitFlag     = "mar-meet-init"
)

// Options configures an Env. Zero collaborators are replaced with silent
// defaults.
type Options struct {
	Labels    Labels
	Selectors Selectors
	Pages     Pages
	Timings   Timings

	Notifier notify.Notifier
	Flags    notify.FlagStore
	Logger   *logging.Logger
	Metrics  *telemetry.Metrics
}

// DefaultOptions returns the default tables with no collaborators.
func DefaultOptions() Options {
	return Options{
		Labels:    DefaultLabels(),
		Selectors: DefaultSelectors(),
		Pages:     DefaultPages(),
		Timings:   DefaultTimings(),
	}
}

// Env is shared by every orchestrator of one browser session.
type Env struct {
	opts       Options
	match      matchers
	classifier *Classifier
	locator    *locator.Locator
	executor   *workflow.Executor
	logger     *logging.Logger
}

// NewEnv compiles the keyword tables and URL globs in opts.
func NewEnv(opts Options) (*Env, error) {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard{}
	}
	if opts.Flags == nil {
		opts.Flags = &notify.MemoryFlags{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	match, err := compileMatchers(opts.Labels)
	if err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(opts.Pages)
	if err != nil {
		return nil, err
	}
	return &Env{
		opts:       opts,
		match:      match,
		classifier: classifier,
		locator:    locator.New(opts.Metrics),
		executor:   workflow.NewExecutor(opts.Logger.With("workflow"), opts.Metrics),
		logger:     opts.Logger,
	}, nil
}

// Options returns the options the Env was built from.
func (e *Env) Options() Options {
	return e.opts
}

// Classify returns the context for a document URL.
func (e *Env) Classify(url string) Context {
	return e.classifier.Classify(url)
}

// Notifier returns the notifier orchestrators report to.
func (e *Env) Notifier() notify.Notifier {
	return e.opts.Notifier
}

// locate waits for q under doc's root using the frame-aligned strategy.
func (e *Env) locate(ctx context.Context, doc dom.Document, q dom.Query) (dom.Node, error) {
	return e.locator.Locate(ctx, locator.Request{
		Query:   q,
		Root:    doc.Root(),
		Timeout: e.opts.Timings.LocateTimeout,
	})
}

// announce shows a one-time notice for the browsing session.
func (e *Env) announce(key, message string, d time.Duration) {
	notify.Announce(e.opts.Flags, key, e.opts.Notifier, notify.Notice{
		Kind:     notify.Info,
		Title:    notify.DefaultTitle,
		Message:  message,
		Duration: d,
	})
}

func (e *Env) info(message string, d time.Duration) {
	e.opts.Notifier.ShowNotice(notify.Notice{
		Kind:     notify.Info,
		Title:    notify.DefaultTitle,
		Message:  message,
		Duration: d,
	})
}

// click clicks n and wraps the failure with what was clicked.
func click(n dom.Node, what string) error {
	if err := n.Click(); err != nil {
		return fmt.Errorf("clicking %s: %w", what, err)
	}
	return nil
}
