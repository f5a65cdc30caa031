package handshake

import "sync"

// Link connects a host and a frame in process. Delivery is synchronous and
// follows postMessage rules: the receiver sees the sender's origin, and a
// message whose target origin is neither "*" nor the receiver's origin is
// silently dropped.
type Link struct {
	hostOrigin  string
	frameOrigin string

	mu      sync.RWMutex
	toHost  func(Envelope)
	toFrame func(Envelope)
}

// NewLink creates a link between documents at the two origins.
func NewLink(hostOrigin, frameOrigin string) *Link {
	return &Link{hostOrigin: hostOrigin, frameOrigin: frameOrigin}
}

// OnHost sets the host's message listener.
func (l *Link) OnHost(fn func(Envelope)) {
	l.mu.Lock()
	l.toHost = fn
	l.mu.Unlock()
}

// OnFrame sets the frame's message listener.
func (l *Link) OnFrame(fn func(Envelope)) {
	l.mu.Lock()
	l.toFrame = fn
	l.mu.Unlock()
}

// HostPort posts from the host to the frame.
func (l *Link) HostPort() Port {
	return linkPort{link: l, toFrame: true}
}

// FramePort posts from the frame to the host.
func (l *Link) FramePort() Port {
	return linkPort{link: l, toFrame: false}
}

type linkPort struct {
	link    *Link
	toFrame bool
}

func (p linkPort) Post(msg Message, targetOrigin string) error {
	l := p.link
	l.mu.RLock()
	sender, receiver, deliver := l.hostOrigin, l.frameOrigin, l.toFrame
	if !p.toFrame {
		sender, receiver, deliver = l.frameOrigin, l.hostOrigin, l.toHost
	}
	l.mu.RUnlock()

	if deliver == nil || (targetOrigin != "*" && targetOrigin != receiver) {
		return nil
	}
	deliver(Envelope{Origin: sender, Message: msg})
	return nil
}
