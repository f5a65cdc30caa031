package detect

import (
	"context"
	"sync"
	"time"

	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/telemetry"
)

// Handler receives transition events. It runs on the goroutine that evaluates
// the detectors and should hand long work off to another goroutine.
type Handler func(Event)

// Hub feeds one document's mutation batches to a set of detectors and
// delivers the resulting events to a single handler, one batch at a time, in
// the order the state changed.
type Hub struct {
	doc       dom.Document
	detectors []Detector
	handler   Handler
	metrics   *telemetry.Metrics
	now       func() time.Time

	mu      sync.Mutex
	running bool
	dirty   bool
}

// NewHub creates a hub. metrics may be nil.
func NewHub(doc dom.Document, handler Handler, metrics *telemetry.Metrics, detectors ...Detector) *Hub {
	return &Hub{
		doc:       doc,
		detectors: detectors,
		handler:   handler,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Notify re-evaluates every detector. Calls arriving while an evaluation is in
// progress, including re-entrant calls from the handler, are coalesced into one
// more pass instead of running concurrently.
func (h *Hub) Notify() {
	h.mu.Lock()
	if h.running {
		h.dirty = true
		h.mu.Unlock()
		return
	}
	h.running = true
	for {
		h.dirty = false
		h.mu.Unlock()

		h.evaluate()

		h.mu.Lock()
		if !h.dirty {
			h.running = false
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) evaluate() {
	now := h.now()
	for _, d := range h.detectors {
		ev, ok := d.Update(now)
		if !ok {
			continue
		}
		h.metrics.Transition(ev.Kind.String())
		h.handler(ev)
	}
}

// Start subscribes to the document's mutations and, when poll is positive,
// also re-evaluates on that interval. It evaluates once immediately and runs
// until ctx is done.
func (h *Hub) Start(ctx context.Context, poll time.Duration) {
	stop := h.doc.Observe(h.Notify)
	h.Notify()

	go func() {
		defer stop()
		if poll <= 0 {
			<-ctx.Done()
			return
		}
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Notify()
			}
		}
	}()
}
