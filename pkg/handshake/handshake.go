// Package handshake implements the two-message rendezvous between a host page
// and the cross-origin settings frame it embeds.
//
// The frame announces READY once its own automation is listening. The host
// never sends CONFIGURE on its own initiative: it marks a handshake pending,
// performs the UI action that loads the frame, and only answers a READY that
// arrives from the expected origin while the handshake is still pending. A
// pending handshake expires after a deadline and is abandoned silently.
package handshake

import (
	"errors"
	"fmt"
)

// Message types exchanged between host and frame.
const (
	TypeReady     = "MAR_IFRAME_READY"
	TypeConfigure = "MAR_AUTO_CONFIGURE"
)

var (
	// ErrTimeout marks a handshake abandoned because READY never arrived.
	ErrTimeout = errors.New("handshake timed out waiting for ready")

	// ErrForeignOrigin marks a message dropped because of its sender origin.
	ErrForeignOrigin = errors.New("message from unexpected origin")

	// ErrInvalidTransition marks an attempt to move a session backwards.
	ErrInvalidTransition = errors.New("invalid handshake transition")
)

// Message is the structured payload carried by postMessage.
type Message struct {
	Type string `json:"type"`
}

// Ready returns the READY message.
func Ready() Message { return Message{Type: TypeReady} }

// Configure returns the CONFIGURE message.
func Configure() Message { return Message{Type: TypeConfigure} }

// Envelope is a received message with the sender origin reported by the
// browser.
type Envelope struct {
	Origin  string
	Message Message
}

// Port sends messages to the counterpart document. targetOrigin restricts
// delivery the same way window.postMessage does.
type Port interface {
	Post(msg Message, targetOrigin string) error
}

// CheckOrigin returns ErrForeignOrigin unless env came from want.
func CheckOrigin(env Envelope, want string) error {
	if env.Origin != want {
		return fmt.Errorf("%w: got %q, want %q", ErrForeignOrigin, env.Origin, want)
	}
	return nil
}
