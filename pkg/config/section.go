package config

// Section is one named block of the configuration file.
type Section interface {
	// ID is the key the section is stored under
	ID() string

	// Title is a short human readable name
	Title() string

	// Description explains what the section controls
	Description() string

	// Data returns the section as plain values suitable for the store
	Data() map[string]any

	// SetData overlays the provided values onto the section
	SetData(data map[string]any) error

	// Validate checks the current values
	Validate() error

	// Reset restores the defaults
	Reset()
}
