package handshake

import (
	"fmt"

	"github.com/entrhq/autorecord/pkg/logging"
)

// Responder is the frame side of the handshake.
type Responder struct {
	port        Port
	hostOrigin  string
	onConfigure func()
	logger      *logging.Logger
}

// NewResponder creates the frame side. onConfigure runs on the delivering
// goroutine for every CONFIGURE from hostOrigin and should not block.
func NewResponder(port Port, hostOrigin string, onConfigure func(), logger *logging.Logger) *Responder {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Responder{
		port:        port,
		hostOrigin:  hostOrigin,
		onConfigure: onConfigure,
		logger:      logger,
	}
}

// Announce posts READY to the host origin. Call it once the frame's own
// listeners are installed.
func (r *Responder) Announce() error {
	if err := r.port.Post(Ready(), r.hostOrigin); err != nil {
		return fmt.Errorf("announcing ready: %w", err)
	}
	r.logger.Debugf("ready announced to %s", r.hostOrigin)
	return nil
}

// Handle processes a message received by the frame and reports whether it
// triggered configuration.
func (r *Responder) Handle(env Envelope) bool {
	if err := CheckOrigin(env, r.hostOrigin); err != nil {
		r.logger.Debugf("dropping %q: %v", env.Message.Type, err)
		return false
	}
	if env.Message.Type != TypeConfigure {
		return false
	}
	r.logger.Infof("configure received from %s", env.Origin)
	if r.onConfigure != nil {
		r.onConfigure()
	}
	return true
}
