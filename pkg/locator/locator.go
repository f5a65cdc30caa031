// Package locator finds transient UI controls by polling a query until it
// matches or a deadline passes.
package locator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/telemetry"
)

// DefaultTimeout bounds a lookup when the request does not set one.
const DefaultTimeout = 10 * time.Second

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("element not found")

// NotFoundError reports a query that did not match before its timeout.
type NotFoundError struct {
	Query   string
	Timeout time.Duration
	// LastErr is the last error the query itself returned, if any.
	LastErr error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("element not found: %s (after %v)", e.Query, e.Timeout)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.LastErr
}

// Request is one lookup. It is not modified by Locate.
type Request struct {
	Query    dom.Query
	Root     dom.Node
	Timeout  time.Duration
	Strategy Strategy
}

// Locator issues lookups and reports them to metrics.
type Locator struct {
	metrics *telemetry.Metrics
	now     func() time.Time
}

// New creates a Locator. metrics may be nil.
func New(metrics *telemetry.Metrics) *Locator {
	return &Locator{metrics: metrics, now: time.Now}
}

// Locate evaluates req.Query at issue time and then on every tick of
// req.Strategy until it matches, the timeout passes or ctx is done. The last
// tick is clamped to the deadline so a miss fails no later than req.Timeout
// after the call.
func (l *Locator) Locate(ctx context.Context, req Request) (dom.Node, error) {
	if req.Query == nil || req.Root == nil {
		return nil, fmt.Errorf("locate: query and root are required")
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	strategy := req.Strategy
	if strategy == nil {
		strategy = FrameAligned()
	}
	strategy = strategy.fresh()

	deadline := l.now().Add(timeout)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	var lastErr error
	for {
		n, err := req.Query.First(req.Root)
		if err != nil {
			lastErr = err
		} else if n != nil {
			l.metrics.LocatorLookup("found")
			return n, nil
		}

		remaining := deadline.Sub(l.now())
		if remaining <= 0 {
			l.metrics.LocatorLookup("not_found")
			return nil, &NotFoundError{Query: req.Query.String(), Timeout: timeout, LastErr: lastErr}
		}
		wait := strategy.next()
		if wait > remaining {
			wait = remaining
		}
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			l.metrics.LocatorLookup("canceled")
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Find is a single immediate evaluation with no waiting.
func Find(root dom.Node, q dom.Query) dom.Node {
	n, err := q.First(root)
	if err != nil {
		return nil
	}
	return n
}
