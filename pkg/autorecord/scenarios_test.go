package autorecord

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autorecord/pkg/dom/htmldom"
	"github.com/entrhq/autorecord/pkg/handshake"
	"github.com/entrhq/autorecord/pkg/notify"
	"github.com/entrhq/autorecord/pkg/workflow"
)

const calendarPage = `<div role="main"><div class="grid">Week of Oct 12</div></div>`

const eventDialog = `
<div role="dialog" id="event">
  <input aria-label="Title" value="Weekly sync">
  <div class="conference">
    <a href="https://meet.google.com/abc-defg-hij">Join with Google Meet</a>
    <button>Video call options</button>
  </div>
</div>
`

func TestNewDialogWithConferencingConfiguresSettingsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec)
	link := handshake.NewLink("https://calendar.google.com", "https://meet.google.com")

	calendar := htmldom.MustParse(calendarURL, page(calendarPage))
	host := NewCalendarHost(env, calendar, link.HostPort())
	link.OnHost(func(e handshake.Envelope) { _ = host.HandleMessage(e) })

	settings := newSettingsDoc(t)
	reports := make(chan workflow.Report, 2)
	loaded := 0

	// Opening the video call options loads the settings frame, which then
	// announces itself to the calendar page.
	require.NoError(t, calendar.OnClick(`#event button`, func(d *htmldom.Document, n *htmldom.Node) {
		if strings.TrimSpace(n.Text()) != "Video call options" {
			return
		}
		loaded++
		_ = d.Append("#event", `<iframe src="https://meet.google.com/calendarsettings/xyz?hl=en"></iframe>`)
		frame := NewSettingsFrame(env, settings, link.FramePort())
		frame.OnFinish(func(r workflow.Report) { reports <- r })
		link.OnFrame(func(e handshake.Envelope) { _ = frame.HandleMessage(e) })
		assert.NoError(t, frame.Start(ctx))
	}))

	require.NoError(t, host.Start(ctx))
	require.NoError(t, calendar.Append("body", eventDialog))

	report := waitReport(t, reports)
	assert.Equal(t, workflow.Succeeded, report.Outcome, "%v", report.Err)
	assert.Equal(t, settingsClicks, settings.Clicks())
	assert.Eventually(t, func() bool {
		return len(calendar.Clicks()) == 1
	}, time.Second, time.Millisecond)

	combo, err := settings.Query(`[role="combobox"]`)
	require.NoError(t, err)
	require.Len(t, combo, 1)
	assert.Equal(t, "English", strings.TrimSpace(combo[0].Text()))

	// More churn in the same dialog does not reopen the options.
	require.NoError(t, calendar.Append("#event .conference", `<a href="https://meet.google.com/xyz-abcd-efg">Alt link</a>`))
	require.NoError(t, calendar.SetAttr("#event input", "value", "Weekly sync (moved)"))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, loaded)
	assert.Len(t, calendar.Clicks(), 1)
	assert.False(t, host.Guard().Snapshot().PendingHandshake)

	assert.NotEmpty(t, rec.OfKind(notify.Success))
	assert.Empty(t, rec.OfKind(notify.Error))
	var messages []string
	for _, n := range rec.Notices() {
		messages = append(messages, n.Message)
	}
	assert.Contains(t, messages, "Recording settings configured successfully!")
	assert.Contains(t, messages, "Detected video call options - configuring...")
	assert.Contains(t, messages, "Extension active on Google Calendar")
}

func TestLoadingConferencingWaitsForLink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec)
	calendar := htmldom.MustParse(calendarURL, page(calendarPage))
	host := NewCalendarHost(env, calendar, handshake.NewLink("https://calendar.google.com", "https://meet.google.com").HostPort())
	require.NoError(t, host.Start(ctx))

	require.NoError(t, calendar.Append("body", `
<div role="dialog" id="event">
  <div class="conference"><span class="status">Adding conferencing details</span></div>
</div>`))
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, calendar.Clicks())
	assert.False(t, host.Guard().Snapshot().WorkflowAttempted)

	require.NoError(t, calendar.Append("#event .conference", `<a href="https://meet.google.com/abc-defg-hij">Join</a><button>Video call options</button>`))
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, calendar.Clicks(), "still loading")

	_, err := calendar.Remove(".status")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return len(calendar.Clicks()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestJoinWithRecordingActiveClicksNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec)
	doc := htmldom.MustParse(callURL, page(`
<div class="controls">
  <button aria-label="Leave call"></button>
  <button aria-label="Stop recording"></button>
</div>
<button aria-label="Meeting tools">Meeting tools</button>`))

	call := NewMeetCall(env, doc)
	reports := make(chan workflow.Report, 1)
	call.OnFinish(func(r workflow.Report) { reports <- r })
	require.NoError(t, call.Start(ctx))

	report := waitReport(t, reports)
	assert.Equal(t, workflow.AlreadySatisfied, report.Outcome)
	assert.True(t, report.OK())
	assert.Empty(t, doc.Clicks())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Info, last.Kind)
	assert.Equal(t, "Recording is already active", last.Message)
}

func TestJoinStartsRecording(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec)
	doc := newCallDoc(t)

	call := NewMeetCall(env, doc)
	reports := make(chan workflow.Report, 1)
	call.OnFinish(func(r workflow.Report) { reports <- r })
	require.NoError(t, call.Start(ctx))

	report := waitReport(t, reports)
	assert.Equal(t, workflow.Succeeded, report.Outcome, "%v", report.Err)
	assert.Equal(t, recordingClicks, doc.Clicks())
	assert.True(t, env.RecordingActive(doc))

	panels, err := doc.Query(`[role="complementary"]`)
	require.NoError(t, err)
	assert.Empty(t, panels, "side panel collapsed")

	last, _ := rec.Last()
	assert.Equal(t, notify.Success, last.Kind)
	assert.Equal(t, "Recording started successfully!", last.Message)
	assert.Equal(t, []string{"Starting recording..."}, rec.BusyMessages())
}

func TestMissingMeetingToolsAbortsWithoutRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec, func(o *Options) {
		o.Timings.LocateTimeout = 40 * time.Millisecond
	})
	doc := htmldom.MustParse(callURL, page(`<div class="controls"><button aria-label="Leave call"></button></div>`))

	call := NewMeetCall(env, doc)
	reports := make(chan workflow.Report, 4)
	call.OnFinish(func(r workflow.Report) { reports <- r })
	require.NoError(t, call.Start(ctx))

	report := waitReport(t, reports)
	assert.Equal(t, workflow.Aborted, report.Outcome)
	var stepErr *workflow.StepError
	require.ErrorAs(t, report.Err, &stepErr)
	assert.Equal(t, StepOpenTools, stepErr.Step)

	errs := rec.OfKind(notify.Error)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Meeting tools")

	s := call.Guard().Snapshot()
	assert.True(t, s.WorkflowAttempted)
	assert.False(t, s.WorkflowInProgress)

	// Leaving and rejoining within the page does not retry.
	_, err := doc.Remove(".controls")
	require.NoError(t, err)
	require.NoError(t, doc.Append("body", `<div class="controls"><button aria-label="Leave call"></button></div>`))

	select {
	case r := <-reports:
		t.Fatalf("unexpected second run: %v", r.Outcome)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, doc.Clicks())
}

func TestMissingRecordingEntryIsPermissionDenied(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec, func(o *Options) {
		o.Timings.LocateTimeout = 40 * time.Millisecond
	})
	doc := htmldom.MustParse(callURL, page(callPage))
	require.NoError(t, doc.OnClick(`button[aria-label="Meeting tools"]`, func(d *htmldom.Document, _ *htmldom.Node) {
		_ = d.Append("body", `<div role="complementary"><div role="listbox"><div role="option">Breakout rooms</div></div></div>`)
	}))

	call := NewMeetCall(env, doc)
	reports := make(chan workflow.Report, 1)
	call.OnFinish(func(r workflow.Report) { reports <- r })
	require.NoError(t, call.Start(ctx))

	report := waitReport(t, reports)
	assert.Equal(t, workflow.Aborted, report.Outcome)
	assert.True(t, errors.Is(report.Err, workflow.ErrPermissionDenied))

	last, _ := rec.Last()
	assert.Contains(t, last.Message, "you may not have permission")
	assert.Equal(t, []string{`button "Meeting tools"`}, doc.Clicks())
}

func TestLeavingBeforeAutoStartCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec, func(o *Options) {
		o.Timings.AutoStartDelay = 50 * time.Millisecond
	})
	doc := newCallDoc(t)
	call := NewMeetCall(env, doc)
	require.NoError(t, call.Start(ctx))

	_, err := doc.Remove(".controls")
	require.NoError(t, err)
	time.Sleep(120 * time.Millisecond)

	assert.Empty(t, doc.Clicks())
	assert.False(t, call.Guard().Snapshot().WorkflowAttempted)
}

func TestHandshakeTimeoutIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec, func(o *Options) {
		o.Timings.HandshakeTimeout = 150 * time.Millisecond
	})
	calendar := htmldom.MustParse(calendarURL, page(calendarPage))
	host := NewCalendarHost(env, calendar, handshake.NewLink("https://calendar.google.com", "https://meet.google.com").HostPort())
	require.NoError(t, host.Start(ctx))

	// The options button does nothing, so no frame ever answers.
	require.NoError(t, calendar.Append("body", eventDialog))

	assert.Eventually(t, func() bool {
		return host.Guard().Snapshot().PendingHandshake
	}, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(calendar.Clicks()) == 1
	}, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool {
		return !host.Guard().Snapshot().PendingHandshake
	}, time.Second, 5*time.Millisecond)

	assert.Empty(t, rec.OfKind(notify.Error))
	assert.Empty(t, rec.OfKind(notify.Warning))
}

func TestReadyFromForeignOriginIsIgnored(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec)
	settings := newSettingsDoc(t)
	frame := NewSettingsFrame(env, settings, handshake.NewLink("https://calendar.google.com", "https://meet.google.com").FramePort())
	require.NoError(t, frame.Start(ctx))

	_ = frame.HandleMessage(handshake.Envelope{Origin: "https://evil.example", Message: handshake.Configure()})
	_ = frame.HandleMessage(handshake.Envelope{Origin: "https://calendar.google.com", Message: handshake.Ready()})
	time.Sleep(30 * time.Millisecond)

	assert.Empty(t, settings.Clicks())
	assert.False(t, frame.Guard().Snapshot().WorkflowAttempted)
}

const dialogWithoutOptions = `
<div role="dialog" id="event">
  <input aria-label="Title" value="Weekly sync">
  <div class="conference">
    <a href="https://meet.google.com/abc-defg-hij">Join with Google Meet</a>
  </div>
</div>
`

const replacementDialog = `
<div role="dialog" id="other">
  <input aria-label="Title" value="Retro">
  <div class="conference">
    <a href="https://meet.google.com/klm-nopq-rst">Join with Google Meet</a>
    <button>Video call options</button>
  </div>
</div>
`

func TestMissingVideoCallOptionsShowsOneError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec)
	calendar := htmldom.MustParse(calendarURL, page(calendarPage))
	host := NewCalendarHost(env, calendar, handshake.NewLink("https://calendar.google.com", "https://meet.google.com").HostPort())
	require.NoError(t, host.Start(ctx))

	require.NoError(t, calendar.Append("body", dialogWithoutOptions))
	assert.Eventually(t, func() bool {
		return len(rec.OfKind(notify.Error)) == 1
	}, time.Second, time.Millisecond)

	// Later churn in the same dialog does not retry.
	require.NoError(t, calendar.SetAttr("#event input", "value", "Weekly sync (moved)"))
	time.Sleep(50 * time.Millisecond)

	errs := rec.OfKind(notify.Error)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Could not find Video call options")
	assert.Empty(t, calendar.Clicks())

	state := host.Guard().Snapshot()
	assert.True(t, state.WorkflowAttempted)
	assert.False(t, state.WorkflowInProgress)
	assert.False(t, state.PendingHandshake)
}

func TestDialogReplacedDuringSearchGetsItsOwnRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &notify.Recorder{}
	env := newTestEnv(t, rec, func(o *Options) {
		o.Timings.OptionsSearchTries = 40
	})
	calendar := htmldom.MustParse(calendarURL, page(calendarPage))
	host := NewCalendarHost(env, calendar, handshake.NewLink("https://calendar.google.com", "https://meet.google.com").HostPort())
	require.NoError(t, host.Start(ctx))

	require.NoError(t, calendar.Append("body", dialogWithoutOptions))
	assert.Eventually(t, func() bool {
		return host.Guard().Snapshot().WorkflowInProgress
	}, time.Second, time.Millisecond)

	_, err := calendar.Remove("#event")
	require.NoError(t, err)
	require.NoError(t, calendar.Append("body", replacementDialog))

	assert.Eventually(t, func() bool {
		return len(calendar.Clicks()) == 1
	}, 2*time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	assert.Len(t, calendar.Clicks(), 1)
	assert.Len(t, rec.OfKind(notify.Error), 1, "only the first dialog's search fails")
	assert.True(t, host.Guard().Snapshot().WorkflowAttempted)
}
