package autorecord

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Context is the role a document plays.
type Context int

const (
	Unknown Context = iota
	CalendarHostContext
	SettingsFrameContext
	MeetCallContext
)

func (c Context) String() string {
	switch c {
	case CalendarHostContext:
		return "calendar"
	case SettingsFrameContext:
		return "settings_frame"
	case MeetCallContext:
		return "meet_call"
	default:
		return "unknown"
	}
}

// Classifier maps document URLs to contexts.
type Classifier struct {
	calendar glob.Glob
	settings glob.Glob
	meet     glob.Glob
}

// NewClassifier compiles the URL globs in p.
func NewClassifier(p Pages) (*Classifier, error) {
	var c Classifier
	var err error
	if c.calendar, err = glob.Compile(p.CalendarURL); err != nil {
		return nil, fmt.Errorf("calendar url glob: %w", err)
	}
	if c.settings, err = glob.Compile(p.SettingsFrameURL); err != nil {
		return nil, fmt.Errorf("settings frame url glob: %w", err)
	}
	if c.meet, err = glob.Compile(p.MeetCallURL); err != nil {
		return nil, fmt.Errorf("meet call url glob: %w", err)
	}
	return &c, nil
}

// Classify returns the context for url. The settings frame is checked before
// the call page since both live on the Meet origin.
func (c *Classifier) Classify(url string) Context {
	switch {
	case c.settings.Match(url):
		return SettingsFrameContext
	case c.meet.Match(url):
		return MeetCallContext
	case c.calendar.Match(url):
		return CalendarHostContext
	default:
		return Unknown
	}
}
