// Package detect turns raw DOM mutation notifications into transition events.
//
// A detector owns one piece of derived state (a bool, a count, the identity of
// a dialog). On every mutation batch it recomputes that state with a pure
// function and emits an event only when the value differs from the previous
// one, so unrelated DOM churn never reaches the workflows.
package detect

import (
	"fmt"
	"sync"
	"time"
)

// Kind classifies a transition.
type Kind int

const (
	ModalOpened Kind = iota + 1
	ModalClosed
	LinkCountIncreased
	DialogAppeared
	DialogDismissed
	MeetingJoined
	MeetingLeft
	ConferencingReady
	ConferencingCleared
)

var kindNames = map[Kind]string{
	ModalOpened:         "modal_opened",
	ModalClosed:         "modal_closed",
	LinkCountIncreased:  "link_count_increased",
	DialogAppeared:      "dialog_appeared",
	DialogDismissed:     "dialog_dismissed",
	MeetingJoined:       "meeting_joined",
	MeetingLeft:         "meeting_left",
	ConferencingReady:   "conferencing_ready",
	ConferencingCleared: "conferencing_cleared",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is a transition of derived state. Events are produced and consumed
// synchronously and never stored.
type Event struct {
	Kind       Kind
	Detector   string
	ObservedAt time.Time
	Payload    any
}

// Detector recomputes its state and reports a transition when it changed.
type Detector interface {
	Name() string
	Update(now time.Time) (Event, bool)
}

// ComputeFunc derives the current state. prev is the previous derived value,
// which lets monotonic detectors keep a high-water mark.
type ComputeFunc[T comparable] func(prev T) T

// ClassifyFunc maps a change prev -> cur to an event kind and payload.
type ClassifyFunc[T comparable] func(prev, cur T) (Kind, any)

// State is an edge-triggered detector over a comparable value.
type State[T comparable] struct {
	name     string
	compute  ComputeFunc[T]
	classify ClassifyFunc[T]

	mu    sync.Mutex
	prior T
}

// NewState creates a detector whose prior value is initial.
func NewState[T comparable](name string, initial T, compute ComputeFunc[T], classify ClassifyFunc[T]) *State[T] {
	return &State[T]{
		name:     name,
		compute:  compute,
		classify: classify,
		prior:    initial,
	}
}

// Name implements Detector.
func (s *State[T]) Name() string { return s.name }

// Update implements Detector. Exactly one event is returned per change of the
// derived value and none while it is unchanged.
func (s *State[T]) Update(now time.Time) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.compute(s.prior)
	if cur == s.prior {
		return Event{}, false
	}
	prev := s.prior
	s.prior = cur

	kind, payload := s.classify(prev, cur)
	return Event{Kind: kind, Detector: s.name, ObservedAt: now, Payload: payload}, true
}

// Current returns the last computed value.
func (s *State[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prior
}
