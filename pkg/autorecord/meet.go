package autorecord

import (
	"context"
	"sync"
	"time"

	"github.com/entrhq/autorecord/pkg/detect"
	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/guard"
	"github.com/entrhq/autorecord/pkg/handshake"
	"github.com/entrhq/autorecord/pkg/logging"
	"github.com/entrhq/autorecord/pkg/workflow"
)

// MeetCall automates a call page: once the user is past the lobby it waits
// AutoStartDelay and starts recording, at most once per page.
type MeetCall struct {
	env     *Env
	doc     dom.Document
	guard   *guard.Guard
	control *workflow.Controller
	hub     *detect.Hub
	logger  *logging.Logger

	mu      sync.Mutex
	ctx     context.Context
	pending *time.Timer
	done    func(workflow.Report)
}

// NewMeetCall creates the orchestrator.
func NewMeetCall(env *Env, doc dom.Document) *MeetCall {
	o := env.opts
	logger := env.logger.With("meet")
	m := &MeetCall{
		env:    env,
		doc:    doc,
		guard:  guard.New(),
		logger: logger,
		ctx:    context.Background(),
	}
	m.control = workflow.NewController(m.guard, env.executor, o.Notifier, workflow.Messages{
		Busy:      "Starting recording...",
		Success:   "Recording started successfully!",
		Satisfied: "Recording is already active",
		Warning:   "Recording may not have started - please verify",
		Duration:  o.Timings.NoticeDuration,
	}, logger)
	m.hub = detect.NewHub(doc, m.onEvent, o.Metrics, detect.NewMeetingDetector(doc, env.callControls()))
	return m
}

// Context implements Orchestrator.
func (m *MeetCall) Context() Context { return MeetCallContext }

// Guard exposes the call's guard state.
func (m *MeetCall) Guard() *guard.Guard { return m.guard }

// OnFinish registers fn to receive the recording workflow report.
func (m *MeetCall) OnFinish(fn func(workflow.Report)) {
	m.mu.Lock()
	m.done = fn
	m.mu.Unlock()
}

// Start shows the activation notice once per session and watches for the
// user joining, re-checking every MeetingPoll as well as on mutations.
func (m *MeetCall) Start(ctx context.Context) error {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	m.env.announce(MeetInitFlag, "Extension active - will auto-start recording when you join", 4*time.Second)
	m.hub.Start(ctx, m.env.opts.Timings.MeetingPoll)
	go func() {
		<-ctx.Done()
		m.cancelPending()
	}()
	m.logger.Infof("watching call %s", m.doc.URL())
	return nil
}

// HandleMessage ignores messages; call pages take part in no handshake.
func (m *MeetCall) HandleMessage(handshake.Envelope) error { return nil }

func (m *MeetCall) onEvent(ev detect.Event) {
	switch ev.Kind {
	case detect.MeetingJoined:
		if m.guard.Snapshot().WorkflowAttempted {
			return
		}
		m.logger.Infof("joined meeting, starting recording in %v", m.env.opts.Timings.AutoStartDelay)
		m.schedule()
	case detect.MeetingLeft:
		m.logger.Infof("left meeting")
		m.cancelPending()
	}
}

func (m *MeetCall) schedule() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		m.pending.Stop()
	}
	m.pending = time.AfterFunc(m.env.opts.Timings.AutoStartDelay, m.autoStart)
}

func (m *MeetCall) cancelPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

// autoStart runs after the join delay. The page is re-checked since the user
// may have left in the meantime.
func (m *MeetCall) autoStart() {
	m.mu.Lock()
	ctx, done := m.ctx, m.done
	m.pending = nil
	m.mu.Unlock()

	if ctx.Err() != nil || !m.env.InMeeting(m.doc) {
		m.logger.Debugf("no longer in meeting, recording not started")
		return
	}
	m.control.Start(ctx, m.env.RecordingWorkflow(m.doc), done)
}
