package autorecord

import (
	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/locator"
)

// Finding is one control the workflows would look for.
type Finding struct {
	Control string
	Found   bool
	Detail  string
}

// ProbeReport describes what the engine sees in a document without acting
// on it.
type ProbeReport struct {
	URL      string
	Context  Context
	Findings []Finding

	// Calendar page
	ConferencingReady bool

	// Settings frame
	Checkboxes []string

	// Meet call
	InMeeting       bool
	RecordingActive bool
}

// Probe evaluates the detectors and queries that apply to doc's context.
// It never clicks.
func (e *Env) Probe(doc dom.Document) ProbeReport {
	r := ProbeReport{URL: doc.URL(), Context: e.Classify(doc.URL())}
	root := doc.Root()
	l, s := e.opts.Labels, e.opts.Selectors

	findIn := func(scope dom.Node, control string, q dom.Query) {
		n := locator.Find(scope, q)
		f := Finding{Control: control, Found: n != nil}
		if n != nil {
			f.Detail = abbreviate(dom.ControlLabel(n), 60)
		}
		r.Findings = append(r.Findings, f)
	}
	find := func(control string, q dom.Query) { findIn(root, control, q) }

	switch r.Context {
	case CalendarHostContext:
		r.ConferencingReady = conferencingReady(doc, e.opts)
		find("event dialog", dom.Select(s.Dialog))
		find("conferencing link", dom.Select(s.ConferencingLink))
		scope := locator.Find(root, dom.Select(s.Dialog))
		if scope == nil {
			scope = root
		}
		findIn(scope, l.VideoCallOptions, videoCallOptions(e.opts))

	case SettingsFrameContext:
		find(l.SettingsTab+" tab", dom.Select(s.Tab).Matching(dom.TextOrLabelContains(l.SettingsTab)))
		find("language control", dom.Select(s.LanguageControl))
		find(l.SaveButton+" button", dom.Select("button").Matching(dom.TextContains(l.SaveButton)))
		boxes, _ := root.Find(s.Checkbox)
		for _, box := range boxes {
			label := dom.ControlLabel(box)
			if !e.match.settings.Match(label) {
				continue
			}
			state := "off"
			if box.Checked() {
				state = "on"
			}
			if box.Disabled() {
				state += ", disabled"
			}
			r.Checkboxes = append(r.Checkboxes, abbreviate(label, 50)+" ("+state+")")
		}

	case MeetCallContext:
		r.InMeeting = e.InMeeting(doc)
		r.RecordingActive = e.RecordingActive(doc)
		find("call controls", e.callControls())
		find(l.MeetingTools+" button", e.toolsButton())
	}
	return r
}
