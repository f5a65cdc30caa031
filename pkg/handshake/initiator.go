package handshake

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/autorecord/pkg/guard"
	"github.com/entrhq/autorecord/pkg/logging"
	"github.com/entrhq/autorecord/pkg/telemetry"
)

// DefaultTimeout is how long a pending handshake waits for READY.
const DefaultTimeout = 10 * time.Second

// InitiatorConfig configures the host side.
type InitiatorConfig struct {
	// Origin is the host document origin, recorded on sessions.
	Origin string
	// ResponderOrigin is the only origin whose READY is honored, and the
	// target origin for CONFIGURE.
	ResponderOrigin string
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
}

// Initiator is the host side of the handshake. Its pending state lives in the
// host's guard, so the host orchestrator and the initiator agree on whether a
// handshake is outstanding.
type Initiator struct {
	port    Port
	guard   *guard.Guard
	cfg     InitiatorConfig
	logger  *logging.Logger
	metrics *telemetry.Metrics
	now     func() time.Time

	mu      sync.Mutex
	session *Session
	timer   *time.Timer
}

// NewInitiator creates the host side. port must deliver to the frame. logger
// and metrics may be nil.
func NewInitiator(port Port, g *guard.Guard, cfg InitiatorConfig, logger *logging.Logger, metrics *telemetry.Metrics) *Initiator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Initiator{
		port:    port,
		guard:   g,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Request opens a session in AwaitingReady and arms the deadline. It is a
// no-op returning false while another handshake is pending.
func (i *Initiator) Request() (Session, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.guard.TryMarkPending() {
		i.logger.Debugf("handshake already pending, request ignored")
		return Session{}, false
	}

	s := &Session{
		ID:              uuid.New().String(),
		InitiatorOrigin: i.cfg.Origin,
		ResponderOrigin: i.cfg.ResponderOrigin,
		State:           AwaitingReady,
		Deadline:        i.now().Add(i.cfg.Timeout),
	}
	i.session = s
	id := s.ID
	i.timer = time.AfterFunc(i.cfg.Timeout, func() { i.expire(id) })

	i.logger.Infof("handshake %s pending, waiting up to %v for ready from %s", id, i.cfg.Timeout, i.cfg.ResponderOrigin)
	return *s, true
}

// Handle processes a message received by the host. Messages from any origin
// other than the responder's are dropped, as is a READY that arrives when no
// handshake is pending. CONFIGURE is sent at most once per session.
func (i *Initiator) Handle(env Envelope) error {
	if err := CheckOrigin(env, i.cfg.ResponderOrigin); err != nil {
		i.logger.Debugf("dropping %q: %v", env.Message.Type, err)
		return err
	}
	if env.Message.Type != TypeReady {
		return nil
	}

	i.mu.Lock()
	s := i.session
	if s == nil || !i.guard.Snapshot().PendingHandshake {
		i.mu.Unlock()
		i.logger.Debugf("ready from %s with no pending handshake, ignored", env.Origin)
		return nil
	}
	if err := s.Advance(ReadySignaled); err != nil {
		i.mu.Unlock()
		return err
	}
	i.detachLocked()
	i.guard.ClearPending()
	i.mu.Unlock()

	if err := i.port.Post(Configure(), i.cfg.ResponderOrigin); err != nil {
		i.metrics.Handshake("send_failed")
		i.logger.Errorf("handshake %s: sending configure: %v", s.ID, err)
		return fmt.Errorf("sending configure: %w", err)
	}
	if err := s.Advance(ConfigureSent); err != nil {
		return err
	}
	i.metrics.Handshake("configured")
	i.logger.Infof("handshake %s: configure sent to %s", s.ID, i.cfg.ResponderOrigin)
	return nil
}

func (i *Initiator) expire(id string) {
	i.mu.Lock()
	s := i.session
	if s == nil || s.ID != id {
		i.mu.Unlock()
		return
	}
	_ = s.Advance(TimedOut)
	i.detachLocked()
	i.guard.ClearPending()
	i.mu.Unlock()

	i.metrics.Handshake("timed_out")
	i.logger.Warnf("handshake %s abandoned: %v", id, ErrTimeout)
}

func (i *Initiator) detachLocked() {
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	i.session = nil
}

// Current returns the live session, if any.
func (i *Initiator) Current() (Session, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.session == nil {
		return Session{}, false
	}
	return *i.session, true
}

// Close abandons any live session without reporting a timeout.
func (i *Initiator) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.session != nil {
		i.guard.ClearPending()
	}
	i.detachLocked()
}

// IsTimeout reports whether err came from an abandoned handshake.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
