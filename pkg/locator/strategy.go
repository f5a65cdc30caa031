package locator

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// FrameInterval approximates one display refresh at 60Hz.
const FrameInterval = 16 * time.Millisecond

// Strategy decides how long to wait between evaluations.
type Strategy interface {
	next() time.Duration
	// fresh returns a strategy with its own state for one lookup.
	fresh() Strategy
}

type fixed time.Duration

func (f fixed) next() time.Duration { return time.Duration(f) }
func (f fixed) fresh() Strategy      { return f }

// FrameAligned polls at display refresh cadence.
func FrameAligned() Strategy {
	return fixed(FrameInterval)
}

// FixedInterval polls every d.
func FixedInterval(d time.Duration) Strategy {
	if d <= 0 {
		d = FrameInterval
	}
	return fixed(d)
}

type exponential struct {
	initial, max time.Duration
	b            *backoff.ExponentialBackOff
}

// Backoff polls with exponentially growing gaps between initial and max.
func Backoff(initial, max time.Duration) Strategy {
	return &exponential{initial: initial, max: max}
}

func (e *exponential) fresh() Strategy {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.initial
	b.MaxInterval = e.max
	b.RandomizationFactor = 0
	b.Reset()
	return &exponential{initial: e.initial, max: e.max, b: b}
}

func (e *exponential) next() time.Duration {
	if e.b == nil {
		return e.initial
	}
	d := e.b.NextBackOff()
	if d == backoff.Stop || d > e.max {
		return e.max
	}
	return d
}
