package handshake

import (
	"fmt"
	"time"
)

// State is the lifecycle position of a Session.
type State int

const (
	AwaitingReady State = iota
	ReadySignaled
	ConfigureSent
	TimedOut
)

func (s State) String() string {
	switch s {
	case AwaitingReady:
		return "awaiting_ready"
	case ReadySignaled:
		return "ready_signaled"
	case ConfigureSent:
		return "configure_sent"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one pending configure request. A host has at most one live
// session at a time.
type Session struct {
	ID              string
	InitiatorOrigin string
	ResponderOrigin string
	State           State
	Deadline        time.Time
}

// Advance moves the session forward. Allowed: AwaitingReady -> ReadySignaled
// -> ConfigureSent, and any non-final state -> TimedOut.
func (s *Session) Advance(to State) error {
	ok := false
	switch to {
	case ReadySignaled:
		ok = s.State == AwaitingReady
	case ConfigureSent:
		ok = s.State == ReadySignaled
	case TimedOut:
		ok = s.State == AwaitingReady || s.State == ReadySignaled
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, to)
	}
	s.State = to
	return nil
}

// Final reports whether no further transition is possible.
func (s *Session) Final() bool {
	return s.State == ConfigureSent || s.State == TimedOut
}
