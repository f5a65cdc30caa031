package config

import (
	"sync"

	"github.com/entrhq/autorecord/pkg/autorecord"
)

// SectionIDAutomation is the identifier for the automation section.
const SectionIDAutomation = "automation"

// Automation is the UI copy, selectors, page patterns and pacing the
// workflows run with.
type Automation struct {
	Labels    autorecord.Labels    `mapstructure:"labels" yaml:"labels"`
	Selectors autorecord.Selectors `mapstructure:"selectors" yaml:"selectors"`
	Pages     autorecord.Pages     `mapstructure:"pages" yaml:"pages"`
	Timings   autorecord.Timings   `mapstructure:"timings" yaml:"timings"`
}

// DefaultAutomation returns the built-in English Google Workspace setup.
func DefaultAutomation() Automation {
	return Automation{
		Labels:    autorecord.DefaultLabels(),
		Selectors: autorecord.DefaultSelectors(),
		Pages:     autorecord.DefaultPages(),
		Timings:   autorecord.DefaultTimings(),
	}
}

// AutomationSection manages the automation settings.
type AutomationSection struct {
	settings Automation
	mu       sync.RWMutex
}

// NewAutomationSection creates the section with defaults.
func NewAutomationSection() *AutomationSection {
	return &AutomationSection{settings: DefaultAutomation()}
}

// ID returns the section identifier.
func (s *AutomationSection) ID() string {
	return SectionIDAutomation
}

// Title returns the section title.
func (s *AutomationSection) Title() string {
	return "Automation"
}

// Description returns the section description.
func (s *AutomationSection) Description() string {
	return "UI labels, selectors, page patterns and timings used to configure meetings and start recordings."
}

// Data returns the current configuration data.
func (s *AutomationSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := toMap(s.settings)
	if err != nil {
		return map[string]any{}
	}
	return data
}

// SetData overlays data onto the current settings. Keys left out keep their
// values; lists are replaced whole.
func (s *AutomationSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var next Automation
	if err := apply(s.settings, data, &next); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// Validate checks the current settings.
func (s *AutomationSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return validateStruct(s.settings)
}

// Reset restores the defaults.
func (s *AutomationSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = DefaultAutomation()
}

// Settings returns a snapshot of the current settings.
func (s *AutomationSection) Settings() Automation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update mutates the settings in place.
func (s *AutomationSection) Update(fn func(*Automation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
}

// ApplyTo copies the settings into engine options.
func (s *AutomationSection) ApplyTo(opts *autorecord.Options) {
	a := s.Settings()
	opts.Labels = a.Labels
	opts.Selectors = a.Selectors
	opts.Pages = a.Pages
	opts.Timings = a.Timings
}
