package autorecord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/workflow"
)

// Recording workflow step names.
const (
	StepCheckRecording  = "check recording state"
	StepOpenTools       = "open Meeting tools"
	StepSelectRecording = "select Recording"
	StepEnableRecording = "enable recording options"
	StepStartRecording  = "start recording"
	StepDismissDialogs  = "dismiss info dialogs"
	StepConfirmConsent  = "confirm consent"
)

var errNoCloseControl = errors.New("no control closes the side panel")

// RecordingWorkflow builds the workflow that starts recording in a call: open
// the Meeting tools panel, choose Recording, tick the note and transcript
// options, press start and get through the dialogs that follow.
func (e *Env) RecordingWorkflow(doc dom.Document) workflow.Definition {
	l, t := e.opts.Labels, e.opts.Timings

	return workflow.Definition{
		Name: "start_recording",
		Steps: []workflow.Step{
			{
				Name: StepCheckRecording,
				Action: func(context.Context) error {
					if e.RecordingActive(doc) {
						return workflow.ErrHalt
					}
					return nil
				},
			},
			{
				Name:   StepOpenTools,
				Reason: "Could not open " + l.MeetingTools,
				Settle: t.PanelSettle,
				Action: func(ctx context.Context) error {
					tools, err := e.locate(ctx, doc, e.toolsButton())
					if err != nil {
						return err
					}
					if dom.AttrValue(tools, "aria-expanded") == "true" {
						e.logger.Debugf("%s already open", l.MeetingTools)
						return nil
					}
					return click(tools, l.MeetingTools)
				},
			},
			{
				Name:   StepSelectRecording,
				Reason: fmt.Sprintf("%s option not available - you may not have permission", l.RecordingOption),
				Settle: t.PanelSettle,
				Action: func(ctx context.Context) error {
					return e.selectRecording(ctx, doc)
				},
			},
			{
				Name:   StepEnableRecording,
				Reason: "Could not enable recording options",
				Settle: t.OptionSettle,
				Action: func(ctx context.Context) error {
					if err := workflow.Sleep(ctx, t.OptionSettle); err != nil {
						return err
					}
					_, err := e.enableCheckboxes(ctx, doc, e.match.recording, e.match.exclude, t.ToggleSettle)
					return err
				},
			},
			{
				Name:   StepStartRecording,
				Reason: "Could not start recording",
				Settle: t.PanelSettle,
				Action: func(ctx context.Context) error {
					start, err := e.locate(ctx, doc, dom.FirstOf(l.StartRecording+" button",
						dom.Select("button").Matching(dom.TextContains(l.StartRecording)),
						dom.Select(attrSelector("button", "aria-label", l.StartRecording)),
					))
					if err != nil {
						return err
					}
					if start.Disabled() {
						return fmt.Errorf("%s button is disabled", l.StartRecording)
					}
					return click(start, l.StartRecording)
				},
			},
			{
				Name:      StepDismissDialogs,
				OnFailure: workflow.SkipStep,
				Action: func(ctx context.Context) error {
					_, err := e.dismissDialogs(ctx, doc)
					return err
				},
			},
			{
				Name:      StepConfirmConsent,
				OnFailure: workflow.SkipStep,
				Action: func(ctx context.Context) error {
					if err := workflow.Sleep(ctx, t.ConsentWait); err != nil {
						return err
					}
					_, err := e.confirmConsent(doc)
					return err
				},
			},
		},
		Verify: &workflow.Verification{
			Wait: t.VerifyWait,
			Check: func(context.Context) error {
				if !e.RecordingActive(doc) {
					return errors.New("no recording indicator on the page")
				}
				return nil
			},
		},
		OnSuccess: func(ctx context.Context) error {
			if err := workflow.Sleep(ctx, t.CollapseDelay); err != nil {
				return err
			}
			return e.closePanel(doc)
		},
	}
}

// RecordingActive reports whether the page shows that this call is being
// recorded: the recording banner, or a stop-recording control.
func (e *Env) RecordingActive(doc dom.Document) bool {
	l := e.opts.Labels
	root := doc.Root()
	if root == nil {
		return false
	}
	if l.RecordingBanner != "" && strings.Contains(root.Text(), l.RecordingBanner) {
		return true
	}
	stop := dom.FirstOf("recording indicator",
		dom.Select(attrSelector("", "aria-label", l.StopRecording)),
		dom.Select(`button[aria-label*="recording"][aria-label*="stop"]`),
	)
	return dom.Exists(root, stop)
}

// InMeeting reports whether call controls are present.
func (e *Env) InMeeting(doc dom.Document) bool {
	root := doc.Root()
	return root != nil && dom.Exists(root, e.callControls())
}

func (e *Env) callControls() dom.Query {
	return dom.Select(anyAttrSelector("aria-label", e.opts.Labels.CallControls)).Describe("call controls")
}

func (e *Env) toolsButton() dom.Query {
	l, s := e.opts.Labels, e.opts.Selectors
	return dom.FirstOf(l.MeetingTools+" button",
		dom.Select(attrSelector(s.Button, "aria-label", l.MeetingTools)),
		dom.Select("button").Matching(dom.TextContains(l.MeetingTools)),
	)
}

// selectRecording clicks the Recording entry of the tools panel. A missing or
// disabled entry means the user may not record this call.
func (e *Env) selectRecording(ctx context.Context, doc dom.Document) error {
	l := e.opts.Labels
	option, err := e.locate(ctx, doc, dom.FirstOf(l.RecordingOption+" option",
		dom.Select(attrSelector(`[role="option"]`, "value", l.RecordingOption)),
		dom.Select(attrSelector(`[role="option"]`, "aria-label", l.RecordingOption)),
		dom.Select(`[role="option"]`).Matching(dom.TextContains(l.RecordingOption)),
	))
	if err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrPermissionDenied, err)
	}
	if option.Disabled() {
		return fmt.Errorf("%w: %s option is disabled", workflow.ErrPermissionDenied, l.RecordingOption)
	}
	return click(option, l.RecordingOption+" option")
}

// dismissDialogs clicks the informational acknowledgement button up to
// DismissTries times, looking once per try.
func (e *Env) dismissDialogs(ctx context.Context, doc dom.Document) (int, error) {
	l, t := e.opts.Labels, e.opts.Timings
	if l.DismissButton == "" {
		return 0, nil
	}
	q := dom.Select("button").Matching(dom.TextContains(l.DismissButton)).Matching(dom.Enabled)
	dismissed := 0
	for i := 0; i < t.DismissTries; i++ {
		if err := workflow.Sleep(ctx, t.DismissWait); err != nil {
			return dismissed, err
		}
		btn, err := q.First(doc.Root())
		if err != nil {
			return dismissed, err
		}
		if btn == nil {
			continue
		}
		if err := click(btn, l.DismissButton); err != nil {
			return dismissed, err
		}
		dismissed++
		if err := workflow.Sleep(ctx, t.DismissSettle); err != nil {
			return dismissed, err
		}
	}
	return dismissed, nil
}

// confirmConsent accepts the recording consent dialog when one is open and
// its text matches a consent pattern. It reports whether it clicked.
func (e *Env) confirmConsent(doc dom.Document) (bool, error) {
	l, s := e.opts.Labels, e.opts.Selectors
	dialog, err := dom.Select(s.Dialog).First(doc.Root())
	if err != nil || dialog == nil {
		return false, err
	}
	if !e.match.consent.Match(dialog.Text()) {
		return false, nil
	}
	start, err := dom.Select("button").Matching(dom.TextEquals(l.ConsentButton)).First(dialog)
	if err != nil || start == nil {
		return false, err
	}
	if err := click(start, "consent "+l.ConsentButton); err != nil {
		return false, err
	}
	return true, nil
}

// closePanel collapses the tools side panel with its Close button, or by
// toggling the Meeting tools button.
func (e *Env) closePanel(doc dom.Document) error {
	l, s := e.opts.Labels, e.opts.Selectors
	root := doc.Root()
	queries := []dom.Query{
		dom.Select(fmt.Sprintf(`[aria-label=%q]`, l.CloseButton)),
		dom.Select(attrSelector("button", "aria-label", l.CloseButton)),
	}
	if s.SidePanel != "" {
		queries = append(queries, dom.Select(attrSelector(s.SidePanel+" button", "aria-label", l.CloseButton)))
	}
	if closeBtn := dom.FirstOf("close panel", queries...); dom.Exists(root, closeBtn) {
		n, err := closeBtn.First(root)
		if err != nil {
			return err
		}
		return click(n, "close panel")
	}

	tools, err := e.toolsButton().First(root)
	if err != nil {
		return err
	}
	if tools != nil && dom.AttrValue(tools, "aria-expanded") == "true" {
		return click(tools, l.MeetingTools)
	}
	return errNoCloseControl
}
