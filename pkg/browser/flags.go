package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/autorecord/pkg/notify"
)

// SessionStorageFlags keeps flags in the page's sessionStorage, so they last
// as long as the tab.
type SessionStorageFlags struct {
	frame playwright.Frame
}

var _ notify.FlagStore = (*SessionStorageFlags)(nil)

// NewSessionStorageFlags creates a flag store over frame's sessionStorage.
func NewSessionStorageFlags(frame playwright.Frame) *SessionStorageFlags {
	return &SessionStorageFlags{frame: frame}
}

// Once implements notify.FlagStore.
func (f *SessionStorageFlags) Once(key string) (bool, error) {
	v, err := f.frame.Evaluate(`(k) => {
  if (sessionStorage.getItem(k)) return false;
  sessionStorage.setItem(k, 'true');
  return true;
}`, key)
	if err != nil {
		return false, fmt.Errorf("session storage: %w", err)
	}
	first, _ := v.(bool)
	return first, nil
}
