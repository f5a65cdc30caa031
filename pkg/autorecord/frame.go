package autorecord

import (
	"context"
	"sync"

	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/guard"
	"github.com/entrhq/autorecord/pkg/handshake"
	"github.com/entrhq/autorecord/pkg/logging"
	"github.com/entrhq/autorecord/pkg/workflow"
)

// SettingsFrame automates the embedded calendar settings frame. It never acts
// on its own: it announces READY and configures only when the calendar page
// answers with CONFIGURE, so a user opening the settings by hand is left
// alone.
type SettingsFrame struct {
	env       *Env
	doc       dom.Document
	guard     *guard.Guard
	responder *handshake.Responder
	control   *workflow.Controller
	logger    *logging.Logger

	mu   sync.Mutex
	ctx  context.Context
	done func(workflow.Report)
}

// NewSettingsFrame creates the orchestrator. port must post to the embedding
// calendar page.
func NewSettingsFrame(env *Env, doc dom.Document, port handshake.Port) *SettingsFrame {
	o := env.opts
	logger := env.logger.With("settings-frame")
	f := &SettingsFrame{
		env:    env,
		doc:    doc,
		guard:  guard.New(),
		logger: logger,
		ctx:    context.Background(),
	}
	f.responder = handshake.NewResponder(port, o.Pages.CalendarOrigin, f.configure, logger.With("handshake"))
	f.control = workflow.NewController(f.guard, env.executor, o.Notifier, workflow.Messages{
		Busy:          "Configuring meeting settings...",
		Success:       "Recording settings configured successfully!",
		Warning:       "Recording settings may not have been saved - please verify",
		FailurePrefix: "Failed to configure settings: ",
		Duration:      o.Timings.NoticeDuration,
	}, logger)
	return f
}

// Context implements Orchestrator.
func (f *SettingsFrame) Context() Context { return SettingsFrameContext }

// Guard exposes the frame's guard state.
func (f *SettingsFrame) Guard() *guard.Guard { return f.guard }

// OnFinish registers fn to receive the settings workflow report.
func (f *SettingsFrame) OnFinish(fn func(workflow.Report)) {
	f.mu.Lock()
	f.done = fn
	f.mu.Unlock()
}

// Start announces READY to the calendar page. The caller must already route
// the frame's messages to HandleMessage.
func (f *SettingsFrame) Start(ctx context.Context) error {
	f.mu.Lock()
	f.ctx = ctx
	f.mu.Unlock()

	f.logger.Infof("settings frame loaded at %s, waiting for configure", f.doc.URL())
	return f.responder.Announce()
}

// HandleMessage processes a message posted to the frame.
func (f *SettingsFrame) HandleMessage(env handshake.Envelope) error {
	f.responder.Handle(env)
	return nil
}

func (f *SettingsFrame) configure() {
	f.mu.Lock()
	ctx, done := f.ctx, f.done
	f.mu.Unlock()

	if !f.control.Start(ctx, f.env.SettingsWorkflow(f.doc), done) {
		f.logger.Debugf("settings already configured in this frame")
	}
}
