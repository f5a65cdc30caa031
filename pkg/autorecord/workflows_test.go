package autorecord

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autorecord/pkg/dom/htmldom"
	"github.com/entrhq/autorecord/pkg/locator"
	"github.com/entrhq/autorecord/pkg/notify"
	"github.com/entrhq/autorecord/pkg/workflow"
)

func TestSettingsWorkflowLanguageAlreadySelected(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{})
	doc := htmldom.MustParse(settingsURL, page(`
<div role="tab">Meeting records</div>
<select aria-label="Language"><option>Deutsch</option><option selected>English</option></select>
<div><div role="checkbox" aria-checked="false" aria-label="Transcribe the meeting"></div></div>
<button>Save</button>`))

	report := env.executor.Run(context.Background(), env.SettingsWorkflow(doc))

	assert.Equal(t, workflow.Succeeded, report.Outcome, "%v", report.Err)
	assert.Equal(t, []string{
		`div "Meeting records"`,
		`div "Transcribe the meeting"`,
		`button "Save"`,
	}, doc.Clicks())
}

func TestSettingsWorkflowMissingTabAborts(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{}, func(o *Options) {
		o.Timings.LocateTimeout = 30 * time.Millisecond
	})
	doc := htmldom.MustParse(settingsURL, page(`<div role="tab">Meeting details</div><button>Save</button>`))

	start := time.Now()
	report := env.executor.Run(context.Background(), env.SettingsWorkflow(doc))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, workflow.Aborted, report.Outcome)
	assert.True(t, errors.Is(report.Err, locator.ErrNotFound))
	var stepErr *workflow.StepError
	require.ErrorAs(t, report.Err, &stepErr)
	assert.Equal(t, StepSelectTab, stepErr.Step)
	assert.Contains(t, stepErr.UserMessage(), "Could not find Meeting records tab")
	assert.Empty(t, doc.Clicks())
}

func TestSettingsWorkflowDisabledSaveAborts(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{}, func(o *Options) {
		o.Timings.LocateTimeout = 30 * time.Millisecond
	})
	doc := htmldom.MustParse(settingsURL, page(`
<div role="tab">Meeting records</div>
<div role="combobox">English</div>
<button disabled>Save</button>`))

	report := env.executor.Run(context.Background(), env.SettingsWorkflow(doc))

	assert.Equal(t, workflow.Aborted, report.Outcome)
	var stepErr *workflow.StepError
	require.ErrorAs(t, report.Err, &stepErr)
	assert.Equal(t, StepSave, stepErr.Step)
	assert.Equal(t, []string{`div "Meeting records"`}, doc.Clicks())
}

func TestSettingsWorkflowUncheckedAfterSaveWarns(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{})
	doc := htmldom.MustParse(settingsURL, page(`
<div role="tab">Meeting records</div>
<div role="combobox">English</div>
<div><div role="checkbox" aria-checked="false" aria-label="Take notes with Gemini"></div></div>
<button>Save</button>`))
	// The page flips the option back off when saving.
	require.NoError(t, doc.OnClick("button", func(d *htmldom.Document, _ *htmldom.Node) {
		_ = d.SetAttr(`[role="checkbox"]`, "aria-checked", "false")
	}))

	report := env.executor.Run(context.Background(), env.SettingsWorkflow(doc))

	assert.Equal(t, workflow.Warning, report.Outcome)
	assert.ErrorIs(t, report.Err, workflow.ErrVerificationFailed)
}

func TestRecordingWorkflowToolsAlreadyOpen(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{})
	doc := newCallDoc(t)
	require.NoError(t, doc.SetAttr(`button[aria-label="Meeting tools"]`, "aria-expanded", "true"))
	require.NoError(t, doc.Append("body", toolsPanel))

	report := env.executor.Run(context.Background(), env.RecordingWorkflow(doc))

	assert.Equal(t, workflow.Succeeded, report.Outcome, "%v", report.Err)
	assert.Equal(t, recordingClicks[1:], doc.Clicks())
}

func TestRecordingWorkflowUnconfirmedIsWarning(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{})
	doc := newCallDoc(t)
	// Consent never turns into an active recording.
	require.NoError(t, doc.OnClick(`#consent button`, func(d *htmldom.Document, _ *htmldom.Node) {
		_, _ = d.Remove(`[aria-label="Stop recording"]`)
	}))

	report := env.executor.Run(context.Background(), env.RecordingWorkflow(doc))

	assert.Equal(t, workflow.Warning, report.Outcome)
	assert.ErrorIs(t, report.Err, workflow.ErrVerificationFailed)
	assert.NotContains(t, doc.Clicks(), `button "Close"`, "panel left open without confirmation")
}

func TestRecordingWorkflowDisabledStartAborts(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{})
	doc := htmldom.MustParse(callURL, page(`
<button aria-label="Leave call"></button>
<button aria-label="Meeting tools" aria-expanded="true">Meeting tools</button>
<div role="option" aria-label="Recording">Recording</div>
<button disabled>Start recording</button>`))

	report := env.executor.Run(context.Background(), env.RecordingWorkflow(doc))

	assert.Equal(t, workflow.Aborted, report.Outcome)
	var stepErr *workflow.StepError
	require.ErrorAs(t, report.Err, &stepErr)
	assert.Equal(t, StepStartRecording, stepErr.Step)
	assert.Contains(t, stepErr.UserMessage(), "Could not start recording")
}

func TestRecordingActiveIndicators(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{})
	tests := []struct {
		name   string
		body   string
		active bool
	}{
		{"banner", `<div>This call is being recorded</div>`, true},
		{"stop control", `<div aria-label="Stop recording"></div>`, true},
		{"stop button", `<button aria-label="recording in progress, click to stop"></button>`, true},
		{"recording option only", `<div role="option">Recording</div>`, false},
		{"start only", `<button>Start recording</button>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := htmldom.MustParse(callURL, page(tt.body))
			assert.Equal(t, tt.active, env.RecordingActive(doc))
		})
	}
}

func TestClassify(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{})
	tests := []struct {
		url  string
		want Context
	}{
		{"https://calendar.google.com/calendar/u/0/r/week", CalendarHostContext},
		{"https://meet.google.com/calendarsettings/abc?hl=en", SettingsFrameContext},
		{"https://meet.google.com/abc-defg-hij", MeetCallContext},
		{"https://meet.google.com/abc-defg-hij?authuser=1", MeetCallContext},
		{"https://meet.google.com/landing", Unknown},
		{"https://example.com/abc-defg-hij", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, env.Classify(tt.url))
		})
	}
}

func TestForBuildsOrchestrator(t *testing.T) {
	env := newTestEnv(t, &notify.Recorder{})

	o, err := env.For(htmldom.MustParse(callURL, page("")), nil)
	require.NoError(t, err)
	assert.Equal(t, MeetCallContext, o.Context())

	_, err = env.For(htmldom.MustParse("https://example.com/", page("")), nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestOptionsDefaultsAreComplete(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 10*time.Second, opts.Timings.LocateTimeout)
	assert.Equal(t, 10*time.Second, opts.Timings.HandshakeTimeout)
	assert.Equal(t, 3*time.Second, opts.Timings.AutoStartDelay)
	assert.Equal(t, 3, opts.Timings.DismissTries)
	assert.Equal(t, "English", opts.Labels.Language)
	assert.Equal(t, "https://calendar.google.com", opts.Pages.CalendarOrigin)
	assert.Equal(t, "meet_call", MeetCallContext.String())
}

func TestAbbreviateKeepsRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "Transcribe   the\n meeting", n: 60, want: "Transcribe the meeting"},
		{in: "Réunion enregistrée", n: 2, want: "Ré"},
		{in: "会議を録画する", n: 3, want: "会議を"},
		{in: "🎥🎥🎥", n: 1, want: "🎥"},
	}
	for _, tt := range tests {
		got := abbreviate(tt.in, tt.n)
		assert.Equal(t, tt.want, got)
		assert.True(t, utf8.ValidString(got), "%q", got)
	}
}
