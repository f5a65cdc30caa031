package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/autorecord/pkg/handshake"
)

// ParentPort posts from a frame to the page embedding it.
type ParentPort struct {
	frame playwright.Frame
}

// NewParentPort creates a port for messages from frame to its parent.
func NewParentPort(frame playwright.Frame) *ParentPort {
	return &ParentPort{frame: frame}
}

// Post implements handshake.Port.
func (p *ParentPort) Post(msg handshake.Message, targetOrigin string) error {
	_, err := p.frame.Evaluate(`([type, origin]) => window.parent.postMessage({ type }, origin)`,
		[]any{msg.Type, targetOrigin})
	if err != nil {
		return fmt.Errorf("post %s to parent: %w", msg.Type, err)
	}
	return nil
}

// ChildPort posts from a page into the embedded frames matching a selector.
type ChildPort struct {
	frame    playwright.Frame
	selector string
}

// NewChildPort creates a port for messages from frame to the iframes matched
// by selector.
func NewChildPort(frame playwright.Frame, selector string) *ChildPort {
	return &ChildPort{frame: frame, selector: selector}
}

// Post implements handshake.Port. It fails when no matching frame is present.
func (p *ChildPort) Post(msg handshake.Message, targetOrigin string) error {
	v, err := p.frame.Evaluate(`([sel, type, origin]) => {
  let sent = 0;
  for (const f of document.querySelectorAll(sel)) {
    if (f.contentWindow) { f.contentWindow.postMessage({ type }, origin); sent++; }
  }
  return sent;
}`, []any{p.selector, msg.Type, targetOrigin})
	if err != nil {
		return fmt.Errorf("post %s to frame: %w", msg.Type, err)
	}
	if asInt(v) == 0 {
		return fmt.Errorf("post %s: no frame matches %s", msg.Type, p.selector)
	}
	return nil
}

// envelopeFromBinding decodes the payload the init script passes to the
// message binding. Payloads without the install token did not come from the
// init script's listener and are rejected.
func envelopeFromBinding(args []any, token string) (handshake.Envelope, bool) {
	if len(args) == 0 {
		return handshake.Envelope{}, false
	}
	m, ok := args[0].(map[string]any)
	if !ok {
		return handshake.Envelope{}, false
	}
	origin, _ := m["origin"].(string)
	typ, _ := m["type"].(string)
	got, _ := m["token"].(string)
	if typ == "" || token == "" || got != token {
		return handshake.Envelope{}, false
	}
	return handshake.Envelope{Origin: origin, Message: handshake.Message{Type: typ}}, true
}

// asInt reads a number returned from page script.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
