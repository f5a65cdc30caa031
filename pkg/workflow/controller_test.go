package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autorecord/pkg/guard"
	"github.com/entrhq/autorecord/pkg/notify"
)

var testMessages = Messages{
	Busy:          "Working...",
	Success:       "Done!",
	Satisfied:     "Already done",
	Warning:       "Please verify",
	FailurePrefix: "Failed: ",
}

func newController(g *guard.Guard, rec *notify.Recorder) *Controller {
	return NewController(g, NewExecutor(nil, nil), rec, testMessages, nil)
}

func okDefinition() Definition {
	return Definition{Name: "ok", Steps: []Step{{Name: "a", Action: func(context.Context) error { return nil }}}}
}

func TestTriggerSurfacesSuccess(t *testing.T) {
	rec := &notify.Recorder{}
	g := guard.New()
	c := newController(g, rec)

	report, ran := c.Trigger(context.Background(), okDefinition())

	require.True(t, ran)
	assert.Equal(t, Succeeded, report.Outcome)
	assert.Equal(t, []string{"Working..."}, rec.BusyMessages())
	assert.False(t, rec.Busy())
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Success, last.Kind)
	assert.Equal(t, notify.DefaultTitle, last.Title)
	assert.Equal(t, "Done!", last.Message)

	s := g.Snapshot()
	assert.True(t, s.WorkflowAttempted)
	assert.False(t, s.WorkflowInProgress)
}

func TestTriggerOncePerContext(t *testing.T) {
	rec := &notify.Recorder{}
	g := guard.New()
	c := newController(g, rec)

	_, ran := c.Trigger(context.Background(), okDefinition())
	require.True(t, ran)
	report, ran := c.Trigger(context.Background(), okDefinition())
	assert.False(t, ran)
	assert.Equal(t, Skipped, report.Outcome)
	assert.Len(t, rec.Notices(), 1)

	require.True(t, g.ResetContext())
	_, ran = c.Trigger(context.Background(), okDefinition())
	assert.True(t, ran)
}

func TestAbortedRunStaysAttempted(t *testing.T) {
	rec := &notify.Recorder{}
	g := guard.New()
	c := newController(g, rec)
	def := Definition{Name: "fails", Steps: []Step{{
		Name:   "open Meeting tools",
		Reason: "Could not open Meeting tools",
		Action: func(context.Context) error { return errors.New("element not found") },
	}}}

	report, ran := c.Trigger(context.Background(), def)
	require.True(t, ran)
	assert.Equal(t, Aborted, report.Outcome)

	last, _ := rec.Last()
	assert.Equal(t, notify.Error, last.Kind)
	assert.Contains(t, last.Message, "Failed: Could not open Meeting tools")
	assert.Contains(t, last.Message, "open Meeting tools")

	_, ran = c.Trigger(context.Background(), def)
	assert.False(t, ran)
	assert.True(t, g.Snapshot().WorkflowAttempted)
}

func TestSatisfiedAndWarningNotices(t *testing.T) {
	rec := &notify.Recorder{}
	c := newController(guard.New(), rec)
	_, _ = c.Trigger(context.Background(), Definition{Name: "halt", Steps: []Step{{
		Name: "precheck", Action: func(context.Context) error { return ErrHalt },
	}}})
	last, _ := rec.Last()
	assert.Equal(t, notify.Info, last.Kind)
	assert.Equal(t, "Already done", last.Message)

	rec = &notify.Recorder{}
	c = newController(guard.New(), rec)
	_, _ = c.Trigger(context.Background(), Definition{
		Name:   "unverified",
		Steps:  []Step{{Name: "click", Action: func(context.Context) error { return nil }}},
		Verify: &Verification{Check: func(context.Context) error { return errors.New("no") }},
	})
	last, _ = rec.Last()
	assert.Equal(t, notify.Warning, last.Kind)
	assert.Equal(t, "Please verify", last.Message)
}

func TestPanicIsContained(t *testing.T) {
	rec := &notify.Recorder{}
	g := guard.New()
	c := newController(g, rec)
	def := Definition{Name: "panics", Steps: []Step{{
		Name:   "bad",
		Action: func(context.Context) error { panic("nil element") },
	}}}

	var report Report
	require.NotPanics(t, func() { report, _ = c.Trigger(context.Background(), def) })

	assert.Equal(t, Aborted, report.Outcome)
	assert.False(t, rec.Busy())
	assert.False(t, g.Snapshot().WorkflowInProgress)
	assert.Len(t, rec.OfKind(notify.Error), 1)
}

func TestStartAdmitsOneConcurrentRun(t *testing.T) {
	rec := &notify.Recorder{}
	g := guard.New()
	c := newController(g, rec)

	release := make(chan struct{})
	def := Definition{Name: "slow", Steps: []Step{{
		Name: "wait",
		Action: func(ctx context.Context) error {
			<-release
			return nil
		},
	}}}

	var wg sync.WaitGroup
	wg.Add(1)
	assert.True(t, c.Start(context.Background(), def, func(Report) { wg.Done() }))
	for i := 0; i < 5; i++ {
		assert.False(t, c.Start(context.Background(), def, nil))
	}
	assert.True(t, g.Snapshot().WorkflowInProgress)
	assert.False(t, g.ResetContext())

	close(release)
	wg.Wait()
	assert.Eventually(t, func() bool { return !g.Snapshot().WorkflowInProgress }, time.Second, time.Millisecond)

	// The reset held during the run is applied when it finishes.
	assert.False(t, g.Snapshot().WorkflowAttempted)
}
