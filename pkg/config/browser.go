package config

import (
	"sync"
	"time"
)

// SectionIDBrowser is the identifier for the browser section.
const SectionIDBrowser = "browser"

// Browser controls the Chromium instance the engine drives.
type Browser struct {
	Headless bool   `mapstructure:"headless" yaml:"headless"`
	Channel  string `mapstructure:"channel" yaml:"channel" validate:"omitempty,oneof=chromium chrome chrome-beta msedge"`
	// ProfileDir keeps the signed-in Google session between runs.
	ProfileDir     string        `mapstructure:"profile_dir" yaml:"profile_dir"`
	StartURLs      []string      `mapstructure:"start_urls" yaml:"start_urls" validate:"dive,url"`
	SlowMo         time.Duration `mapstructure:"slow_mo" yaml:"slow_mo" validate:"gte=0"`
	ActionTimeout  time.Duration `mapstructure:"action_timeout" yaml:"action_timeout" validate:"gt=0"`
	ViewportWidth  int           `mapstructure:"viewport_width" yaml:"viewport_width" validate:"gte=320"`
	ViewportHeight int           `mapstructure:"viewport_height" yaml:"viewport_height" validate:"gte=240"`
}

// DefaultBrowser opens Calendar in a visible window.
func DefaultBrowser() Browser {
	return Browser{
		Headless:       false,
		Channel:        "chromium",
		StartURLs:      []string{"https://calendar.google.com/calendar/r"},
		ActionTimeout:  30 * time.Second,
		ViewportWidth:  1440,
		ViewportHeight: 900,
	}
}

// BrowserSection manages the browser settings.
type BrowserSection struct {
	settings Browser
	mu       sync.RWMutex
}

// NewBrowserSection creates the section with defaults.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{settings: DefaultBrowser()}
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Browser channel, profile directory and start pages."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := toMap(s.settings)
	if err != nil {
		return map[string]any{}
	}
	return data
}

// SetData overlays data onto the current settings.
func (s *BrowserSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var next Browser
	if err := apply(s.settings, data, &next); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// Validate checks the current settings.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return validateStruct(s.settings)
}

// Reset restores the defaults.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = DefaultBrowser()
}

// Settings returns a snapshot of the current settings.
func (s *BrowserSection) Settings() Browser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update mutates the settings in place.
func (s *BrowserSection) Update(fn func(*Browser)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
}
