package autorecord

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/autorecord/pkg/dom/htmldom"
	"github.com/entrhq/autorecord/pkg/notify"
	"github.com/entrhq/autorecord/pkg/workflow"
)

const (
	calendarURL = "https://calendar.google.com/calendar/u/0/r/eventedit"
	settingsURL = "https://meet.google.com/calendarsettings/xyz?hl=en"
	callURL     = "https://meet.google.com/abc-defg-hij"
)

// fastTimings keeps the pacing structure with millisecond waits.
func fastTimings() Timings {
	return Timings{
		LocateTimeout:         300 * time.Millisecond,
		SettingsDelay:         time.Millisecond,
		TabSettle:             time.Millisecond,
		LanguageOpen:          time.Millisecond,
		LanguageSettle:        time.Millisecond,
		CheckboxSettle:        time.Millisecond,
		CheckboxesSettle:      time.Millisecond,
		AutoStartDelay:        10 * time.Millisecond,
		PanelSettle:           time.Millisecond,
		OptionSettle:          time.Millisecond,
		ToggleSettle:          time.Millisecond,
		DismissTries:          3,
		DismissWait:           time.Millisecond,
		DismissSettle:         time.Millisecond,
		ConsentWait:           time.Millisecond,
		VerifyWait:            5 * time.Millisecond,
		CollapseDelay:         time.Millisecond,
		OptionsSearchTries:    5,
		OptionsSearchInterval: 5 * time.Millisecond,
		OptionsSettle:         time.Millisecond,
		HandshakeTimeout:      time.Second,
		NoticeDuration:        time.Second,
		BriefNotice:           time.Second,
	}
}

func newTestEnv(t *testing.T, rec *notify.Recorder, tweak ...func(*Options)) *Env {
	t.Helper()
	opts := DefaultOptions()
	opts.Timings = fastTimings()
	opts.Notifier = rec
	for _, fn := range tweak {
		fn(&opts)
	}
	env, err := NewEnv(opts)
	require.NoError(t, err)
	return env
}

func waitReport(t *testing.T, ch <-chan workflow.Report) workflow.Report {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("workflow did not finish")
		return workflow.Report{}
	}
}

func page(body string) string {
	return "<!DOCTYPE html><html><head></head><body>" + strings.TrimSpace(body) + "</body></html>"
}

const settingsPage = `
<div role="tablist">
  <div role="tab">Meeting details</div>
  <div role="tab">Meeting records</div>
</div>
<div role="combobox" aria-label="Language">Spanish</div>
<div><div role="checkbox" aria-checked="false" aria-label="Take notes with Gemini"></div></div>
<label><input type="checkbox"> Record the meeting</label>
<div><div role="checkbox" aria-checked="true" aria-label="Transcribe the meeting"></div></div>
<div><div role="checkbox" aria-checked="false" aria-disabled="true" aria-label="Share recording with guests"></div></div>
<div><div role="checkbox" aria-checked="false" aria-label="Allow guests to present"></div></div>
<button>Cancel</button>
<button>Save</button>
`

// newSettingsDoc loads the settings frame with a language picker that opens
// on click and takes the chosen option's text.
func newSettingsDoc(t *testing.T) *htmldom.Document {
	t.Helper()
	doc := htmldom.MustParse(settingsURL, page(settingsPage))
	require.NoError(t, doc.OnClick(`[role="combobox"]`, func(d *htmldom.Document, _ *htmldom.Node) {
		_ = d.Append("body", `<ul role="listbox" id="languages"><li role="option">Deutsch</li><li role="option">English</li></ul>`)
	}))
	require.NoError(t, doc.OnClick(`[role="option"]`, func(d *htmldom.Document, n *htmldom.Node) {
		_ = d.SetText(`[role="combobox"]`, strings.TrimSpace(n.Text()))
		_, _ = d.Remove("#languages")
	}))
	return doc
}

var settingsClicks = []string{
	`div "Meeting records"`,
	`div "Language"`,
	`li "English"`,
	`div "Take notes with Gemini"`,
	`input ""`,
	`button "Save"`,
}

const callPage = `
<div class="controls">
  <button aria-label="Turn off microphone"></button>
  <button aria-label="Leave call"></button>
</div>
<button aria-label="Meeting tools" aria-expanded="false">Meeting tools</button>
`

const toolsPanel = `
<div role="complementary">
  <button aria-label="Close"></button>
  <div role="listbox">
    <div role="option" aria-label="Breakout rooms">Breakout rooms</div>
    <div role="option" aria-label="Recording">Recording</div>
  </div>
</div>
`

const recordingPane = `
<div id="recording-pane">
  <div><div role="checkbox" aria-checked="false" aria-label="Also take notes with Gemini"></div></div>
  <div><div role="checkbox" aria-checked="false" aria-label="Also start a transcript"></div></div>
  <div><div role="checkbox" aria-checked="false" aria-label="Stop transcript when recording ends"></div></div>
  <button>Start recording</button>
</div>
`

// newCallDoc loads a joined call whose Meeting tools, Recording entry, start
// button and follow-up dialogs react like the live page.
func newCallDoc(t *testing.T) *htmldom.Document {
	t.Helper()
	doc := htmldom.MustParse(callURL, page(callPage))
	on := func(css string, fn htmldom.ClickFunc) {
		require.NoError(t, doc.OnClick(css, fn))
	}
	on(`button[aria-label="Meeting tools"]`, func(d *htmldom.Document, _ *htmldom.Node) {
		_ = d.SetAttr(`button[aria-label="Meeting tools"]`, "aria-expanded", "true")
		_ = d.Append("body", toolsPanel)
	})
	on(`[role="option"][aria-label="Recording"]`, func(d *htmldom.Document, _ *htmldom.Node) {
		_ = d.Append(`[role="complementary"]`, recordingPane)
	})
	on(`#recording-pane button`, func(d *htmldom.Document, _ *htmldom.Node) {
		_ = d.Append("body", `<div role="dialog" id="info"><p>Take notes with Gemini</p><button>Got it</button></div>`)
	})
	on(`#info button`, func(d *htmldom.Document, _ *htmldom.Node) {
		_, _ = d.Remove("#info")
		_ = d.Append("body", `<div role="dialog" id="consent"><p>Make sure everyone is ready</p><button>Cancel</button><button>Start</button></div>`)
	})
	on(`#consent button`, func(d *htmldom.Document, n *htmldom.Node) {
		_, _ = d.Remove("#consent")
		if strings.TrimSpace(n.Text()) == "Start" {
			_ = d.Append(".controls", `<button aria-label="Stop recording"></button>`)
		}
	})
	on(`[role="complementary"] button[aria-label="Close"]`, func(d *htmldom.Document, _ *htmldom.Node) {
		_, _ = d.Remove(`[role="complementary"]`)
		_ = d.SetAttr(`button[aria-label="Meeting tools"]`, "aria-expanded", "false")
	})
	return doc
}

var recordingClicks = []string{
	`button "Meeting tools"`,
	`div "Recording"`,
	`div "Also take notes with Gemini"`,
	`div "Also start a transcript"`,
	`button "Start recording"`,
	`button "Got it"`,
	`button "Start"`,
	`button "Close"`,
}
