package autorecord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/autorecord/pkg/detect"
	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/guard"
	"github.com/entrhq/autorecord/pkg/handshake"
	"github.com/entrhq/autorecord/pkg/locator"
	"github.com/entrhq/autorecord/pkg/logging"
	"github.com/entrhq/autorecord/pkg/workflow"
)

// Calendar workflow step names.
const (
	StepFindOptions     = "find video call options"
	StepRequestConfig   = "request configuration"
	StepOpenOptions     = "open video call options"
	openOptionsWorkflow = "open_video_call_options"
)

// CalendarHost automates the calendar page. When an event dialog gains a
// ready conferencing link it opens the video call options once per dialog,
// and answers the settings frame's READY with CONFIGURE.
type CalendarHost struct {
	env       *Env
	doc       dom.Document
	guard     *guard.Guard
	initiator *handshake.Initiator
	control   *workflow.Controller
	hub       *detect.Hub
	logger    *logging.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewCalendarHost creates the orchestrator. port must post into the settings
// frame.
func NewCalendarHost(env *Env, doc dom.Document, port handshake.Port) *CalendarHost {
	o, t := env.opts, env.opts.Timings
	logger := env.logger.With("calendar")
	g := guard.New()

	h := &CalendarHost{
		env:    env,
		doc:    doc,
		guard:  g,
		logger: logger,
		ctx:    context.Background(),
	}
	h.initiator = handshake.NewInitiator(port, g, handshake.InitiatorConfig{
		Origin:          doc.Origin(),
		ResponderOrigin: o.Pages.MeetOrigin,
		Timeout:         t.HandshakeTimeout,
	}, logger.With("handshake"), o.Metrics)
	h.control = workflow.NewController(g, env.executor, o.Notifier, workflow.Messages{
		Busy:     "Opening meeting settings...",
		Success:  "Configuring recording settings...",
		Duration: t.BriefNotice,
	}, logger)

	s := o.Selectors
	h.hub = detect.NewHub(doc, h.onEvent, o.Metrics,
		detect.NewModalDetector(doc, detect.ModalConfig{DialogCSS: s.Dialog, FrameCSS: s.SettingsFrame}),
		detect.NewDialogDetector(doc, s.Dialog),
		detect.NewLinkCountDetector(doc, s.ConferencingLink),
		detect.NewConferencingDetector(doc, s.Dialog, s.ConferencingLink, o.Labels.LoadingText),
	)
	return h
}

// Context implements Orchestrator.
func (h *CalendarHost) Context() Context { return CalendarHostContext }

// Guard exposes the host's guard state.
func (h *CalendarHost) Guard() *guard.Guard { return h.guard }

// Start shows the activation notice once per session and begins watching the
// page until ctx is done.
func (h *CalendarHost) Start(ctx context.Context) error {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()

	h.env.announce(CalendarInitFlag, "Extension active on Google Calendar", h.env.opts.Timings.BriefNotice)
	h.hub.Start(ctx, 0)
	go func() {
		<-ctx.Done()
		h.initiator.Close()
	}()
	h.logger.Infof("watching %s", h.doc.URL())
	return nil
}

// HandleMessage processes a message posted to the calendar page.
func (h *CalendarHost) HandleMessage(env handshake.Envelope) error {
	return h.initiator.Handle(env)
}

func (h *CalendarHost) onEvent(ev detect.Event) {
	h.logger.Debugf("%s from %s", ev.Kind, ev.Detector)
	switch ev.Kind {
	case detect.ModalOpened:
		h.env.info("Detected video call options - configuring...", h.env.opts.Timings.BriefNotice)
	case detect.DialogAppeared:
		if h.guard.ResetContext() {
			h.logger.Debugf("new event dialog %v", ev.Payload)
		}
		h.checkDialog()
	case detect.LinkCountIncreased, detect.ConferencingReady:
		h.checkDialog()
	}
}

// checkDialog starts the open-options workflow when the open dialog holds a
// conferencing link that has finished loading.
func (h *CalendarHost) checkDialog() {
	dialog := readyDialog(h.doc, h.env.opts)
	if dialog == nil {
		return
	}
	h.mu.Lock()
	ctx := h.ctx
	h.mu.Unlock()

	if h.control.Start(ctx, h.openOptionsWorkflow(dialog), h.afterRun) {
		h.logger.Infof("conferencing detected in event dialog")
	}
}

// afterRun picks up a dialog that replaced the one the finished run was
// working on.
func (h *CalendarHost) afterRun(report workflow.Report) {
	if h.guard.Snapshot().WorkflowAttempted {
		return
	}
	h.logger.Debugf("event dialog changed during %s, checking again", report.Workflow)
	h.checkDialog()
}

func conferencingReady(doc dom.Document, o Options) bool {
	return readyDialog(doc, o) != nil
}

// readyDialog returns the open dialog when it holds a conferencing link that
// has finished loading.
func readyDialog(doc dom.Document, o Options) dom.Node {
	dialog, err := dom.Select(o.Selectors.Dialog).First(doc.Root())
	if err != nil || dialog == nil {
		return nil
	}
	if !dom.Exists(dialog, dom.Select(o.Selectors.ConferencingLink)) {
		return nil
	}
	if o.Labels.LoadingText != "" && strings.Contains(dialog.Text(), o.Labels.LoadingText) {
		return nil
	}
	return dialog
}

// openOptionsWorkflow searches only inside dialog, so a run never acts on a
// dialog that replaced it.
func (h *CalendarHost) openOptionsWorkflow(dialog dom.Node) workflow.Definition {
	o, t := h.env.opts, h.env.opts.Timings
	var button dom.Node

	return workflow.Definition{
		Name: openOptionsWorkflow,
		Steps: []workflow.Step{
			{
				Name:   StepFindOptions,
				Reason: "Could not find " + o.Labels.VideoCallOptions,
				Action: func(ctx context.Context) error {
					n, err := h.env.locator.Locate(ctx, locator.Request{
						Query:    videoCallOptions(o),
						Root:     dialog,
						Timeout:  t.OptionsSearchInterval * time.Duration(t.OptionsSearchTries),
						Strategy: locator.FixedInterval(t.OptionsSearchInterval),
					})
					if err != nil {
						return err
					}
					button = n
					return nil
				},
			},
			{
				Name: StepRequestConfig,
				Action: func(context.Context) error {
					if _, ok := h.initiator.Request(); !ok {
						return workflow.ErrHalt
					}
					return nil
				},
			},
			{
				Name:   StepOpenOptions,
				Reason: "Could not open " + o.Labels.VideoCallOptions,
				Settle: t.OptionsSettle,
				Action: func(context.Context) error {
					if err := click(button, o.Labels.VideoCallOptions); err != nil {
						h.initiator.Close()
						return err
					}
					return nil
				},
			},
		},
	}
}

// videoCallOptions finds the options button under a dialog: by exact text, or
// by text or label among the buttons of the container around a conferencing
// link.
func videoCallOptions(o Options) dom.Query {
	label := o.Labels.VideoCallOptions
	return dom.FirstOf(label+" button",
		dom.Select("button").Matching(dom.TextEquals(label)),
		&nearLinkQuery{opts: o},
	)
}

type nearLinkQuery struct {
	opts Options
}

func (q *nearLinkQuery) First(root dom.Node) (dom.Node, error) {
	all, err := q.all(root, true)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (q *nearLinkQuery) All(root dom.Node) ([]dom.Node, error) {
	return q.all(root, false)
}

func (q *nearLinkQuery) all(root dom.Node, first bool) ([]dom.Node, error) {
	s, label := q.opts.Selectors, q.opts.Labels.VideoCallOptions
	if s.EventContainer == "" {
		return nil, nil
	}
	links, err := root.Find(s.ConferencingLink)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(label)
	var out []dom.Node
	for _, link := range links {
		container, err := link.Closest(s.EventContainer)
		if err != nil {
			return nil, err
		}
		if container == nil {
			continue
		}
		buttons, err := container.Find("button")
		if err != nil {
			return nil, err
		}
		for _, b := range buttons {
			text := strings.TrimSpace(b.Text())
			aria := strings.ToLower(dom.AccessibleLabel(b))
			if text == label || strings.Contains(aria, lower) ||
				(strings.Contains(aria, "video") && strings.Contains(aria, "option")) {
				out = append(out, b)
				if first {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

func (q *nearLinkQuery) String() string {
	return fmt.Sprintf("%s near %s", q.opts.Labels.VideoCallOptions, q.opts.Selectors.ConferencingLink)
}
