package notify

import "sync"

// FlagStore records keys for the lifetime of a browsing session.
type FlagStore interface {
	// Once sets key and reports whether it was previously unset.
	Once(key string) (bool, error)
}

// MemoryFlags is an in-process FlagStore.
type MemoryFlags struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *MemoryFlags) Once(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

// Announce shows n the first time key is seen in flags. Flag store errors
// suppress the notice.
func Announce(flags FlagStore, key string, to Notifier, n Notice) bool {
	first, err := flags.Once(key)
	if err != nil || !first {
		return false
	}
	to.ShowNotice(n)
	return true
}
