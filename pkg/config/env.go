package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AUTORECORD_"

// Overrides are environment variables that win over the config file.
type Overrides struct {
	ConfigPath string  `env:"CONFIG"`
	LogLevel   *string `env:"LOG_LEVEL"`

	Language         *string        `env:"LANGUAGE"`
	LocateTimeout    *time.Duration `env:"LOCATE_TIMEOUT"`
	AutoStartDelay   *time.Duration `env:"AUTO_START_DELAY"`
	HandshakeTimeout *time.Duration `env:"HANDSHAKE_TIMEOUT"`

	Headless   *bool    `env:"HEADLESS"`
	Channel    *string  `env:"CHANNEL"`
	ProfileDir *string  `env:"PROFILE_DIR"`
	StartURLs  []string `env:"START_URLS" envSeparator:","`
}

// ParseOverrides reads overrides from the process environment.
func ParseOverrides() (Overrides, error) {
	return parseOverrides(env.Options{Prefix: EnvPrefix})
}

// ParseOverridesFrom reads overrides from the given variables instead of the
// process environment.
func ParseOverridesFrom(vars map[string]string) (Overrides, error) {
	return parseOverrides(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parseOverrides(opts env.Options) (Overrides, error) {
	var o Overrides
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return Overrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// Apply writes the set overrides into the manager's sections.
func (o Overrides) Apply(m *Manager) {
	if s, ok := m.GetSection(SectionIDAutomation); ok {
		if a, ok := s.(*AutomationSection); ok {
			a.Update(func(a *Automation) {
				if o.Language != nil {
					a.Labels.Language = *o.Language
				}
				if o.LocateTimeout != nil {
					a.Timings.LocateTimeout = *o.LocateTimeout
				}
				if o.AutoStartDelay != nil {
					a.Timings.AutoStartDelay = *o.AutoStartDelay
				}
				if o.HandshakeTimeout != nil {
					a.Timings.HandshakeTimeout = *o.HandshakeTimeout
				}
			})
		}
	}

	if s, ok := m.GetSection(SectionIDBrowser); ok {
		if b, ok := s.(*BrowserSection); ok {
			b.Update(func(b *Browser) {
				if o.Headless != nil {
					b.Headless = *o.Headless
				}
				if o.Channel != nil {
					b.Channel = *o.Channel
				}
				if o.ProfileDir != nil {
					b.ProfileDir = *o.ProfileDir
				}
				if len(o.StartURLs) > 0 {
					b.StartURLs = o.StartURLs
				}
			})
		}
	}
}
