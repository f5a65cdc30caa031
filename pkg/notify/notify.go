package notify

import (
	"sync"
	"time"
)

// Kind classifies a notice.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// DefaultTitle heads every notice raised by the orchestrators.
const DefaultTitle = "Meet Auto Record"

// DefaultDuration is how long a notice stays up when the caller passes zero.
const DefaultDuration = 5 * time.Second

// Notice is one transient message.
type Notice struct {
	Kind     Kind
	Title    string
	Message  string
	Duration time.Duration
}

// Notifier renders notices and the busy indicator. Implementations must be
// safe for concurrent use.
type Notifier interface {
	ShowNotice(n Notice)
	ShowBusy(message string)
	HideBusy()
}

// Multi fans out to several notifiers in order.
type Multi []Notifier

func (m Multi) ShowNotice(n Notice) {
	for _, x := range m {
		x.ShowNotice(n)
	}
}

func (m Multi) ShowBusy(message string) {
	for _, x := range m {
		x.ShowBusy(message)
	}
}

func (m Multi) HideBusy() {
	for _, x := range m {
		x.HideBusy()
	}
}

// Discard drops everything.
type Discard struct{}

func (Discard) ShowNotice(Notice) {}
func (Discard) ShowBusy(string)   {}
func (Discard) HideBusy()         {}

// Recorder keeps every call in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
	busy    []string
	busyOn  bool
	hides   int
}

func (r *Recorder) ShowNotice(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *Recorder) ShowBusy(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = append(r.busy, message)
	r.busyOn = true
}

func (r *Recorder) HideBusy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hides++
	r.busyOn = false
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Last returns the most recent notice.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// OfKind returns the recorded notices of kind k.
func (r *Recorder) OfKind(k Kind) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notice
	for _, n := range r.notices {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// BusyMessages returns every busy message shown.
func (r *Recorder) BusyMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.busy...)
}

// Busy reports whether the indicator is currently shown.
func (r *Recorder) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busyOn
}
