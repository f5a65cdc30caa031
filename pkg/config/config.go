package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Load builds a manager over the file at configPath with the automation and
// browser sections registered and loaded. Environment overrides are applied
// last and the result is validated.
func Load(configPath string, overrides Overrides) (*Manager, error) {
	store, err := NewFileStore(configPath)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)
	if err := manager.RegisterSection(NewAutomationSection()); err != nil {
		return nil, err
	}
	if err := manager.RegisterSection(NewBrowserSection()); err != nil {
		return nil, err
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	overrides.Apply(manager)

	if err := manager.ValidateAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Initialize loads the configuration and installs it as the global manager.
// This should be called once at application startup.
func Initialize(configPath string, overrides Overrides) error {
	manager, err := Load(configPath, overrides)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetAutomation returns the automation section of m.
func GetAutomation(m *Manager) *AutomationSection {
	section, ok := m.GetSection(SectionIDAutomation)
	if !ok {
		return nil
	}
	automation, _ := section.(*AutomationSection)
	return automation
}

// GetBrowser returns the browser section of m.
func GetBrowser(m *Manager) *BrowserSection {
	section, ok := m.GetSection(SectionIDBrowser)
	if !ok {
		return nil
	}
	browser, _ := section.(*BrowserSection)
	return browser
}
