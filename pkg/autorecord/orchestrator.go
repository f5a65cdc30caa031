package autorecord

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/handshake"
)

// Orchestrator automates one document.
type Orchestrator interface {
	Context() Context
	Start(ctx context.Context) error
	HandleMessage(env handshake.Envelope) error
}

var (
	_ Orchestrator = (*CalendarHost)(nil)
	_ Orchestrator = (*SettingsFrame)(nil)
	_ Orchestrator = (*MeetCall)(nil)
)

// ErrUnsupported is returned by For for documents no orchestrator handles.
var ErrUnsupported = errors.New("document is not automated")

// For builds the orchestrator for doc's context. port posts to the
// counterpart document and is only used by the calendar page and the
// settings frame.
func (e *Env) For(doc dom.Document, port handshake.Port) (Orchestrator, error) {
	switch c := e.Classify(doc.URL()); c {
	case CalendarHostContext:
		return NewCalendarHost(e, doc, port), nil
	case SettingsFrameContext:
		return NewSettingsFrame(e, doc, port), nil
	case MeetCallContext:
		return NewMeetCall(e, doc), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, doc.URL())
	}
}
