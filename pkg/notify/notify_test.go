package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autorecord/pkg/logging"
)

func TestMultiFansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, b}

	m.ShowBusy("Configuring...")
	m.ShowNotice(Notice{Kind: Success, Title: DefaultTitle, Message: "done"})
	m.HideBusy()

	for _, r := range []*Recorder{a, b} {
		assert.Equal(t, []string{"Configuring..."}, r.BusyMessages())
		assert.False(t, r.Busy())
		last, ok := r.Last()
		require.True(t, ok)
		assert.Equal(t, "done", last.Message)
	}
}

func TestRecorderOfKind(t *testing.T) {
	r := &Recorder{}
	r.ShowNotice(Notice{Kind: Info, Message: "one"})
	r.ShowNotice(Notice{Kind: Error, Message: "two"})
	r.ShowNotice(Notice{Kind: Info, Message: "three"})

	infos := r.OfKind(Info)
	require.Len(t, infos, 2)
	assert.Equal(t, "three", infos[1].Message)
	assert.Empty(t, r.OfKind(Warning))
}

func TestTerminalWritesTitleAndMessage(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)
	term.ShowNotice(Notice{Kind: Warning, Title: DefaultTitle, Message: "please verify"})
	term.ShowBusy("Starting recording...")

	out := buf.String()
	assert.Contains(t, out, DefaultTitle)
	assert.Contains(t, out, "please verify")
	assert.Contains(t, out, "Starting recording...")
}

func TestLogNotifierUsesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(logging.NewWriterLogger("notify", &buf))
	l.ShowNotice(Notice{Kind: Error, Title: DefaultTitle, Message: "Could not start recording"})

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "Could not start recording")
}

func TestAnnounceOncePerKey(t *testing.T) {
	flags := &MemoryFlags{}
	r := &Recorder{}
	n := Notice{Kind: Info, Title: DefaultTitle, Message: "Extension active"}

	assert.True(t, Announce(flags, "mar-meet-init", r, n))
	assert.False(t, Announce(flags, "mar-meet-init", r, n))
	assert.True(t, Announce(flags, "mar-calendar-init", r, n))
	assert.Len(t, r.Notices(), 2)
}

type brokenFlags struct{}

func (brokenFlags) Once(string) (bool, error) { return false, errors.New("storage denied") }

func TestAnnounceSuppressedOnStoreError(t *testing.T) {
	r := &Recorder{}
	assert.False(t, Announce(brokenFlags{}, "k", r, Notice{Kind: Info}))
	assert.Empty(t, r.Notices())
}
