package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	// DefaultTimeout is the default action timeout
	DefaultTimeout = 30 * time.Second

	// DefaultViewportWidth is the default viewport width
	DefaultViewportWidth = 1440

	// DefaultViewportHeight is the default viewport height
	DefaultViewportHeight = 900
)

// Session is a running browser context with its pages.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	// Browser is nil when the context was launched over a persistent profile
	Browser playwright.Browser

	// Context is the browser context every page of the session belongs to
	Context playwright.BrowserContext

	// Headless indicates if the browser is running without a window
	Headless bool

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Channel selects a branded build such as "chrome" or "msedge"
	Channel string

	// ProfileDir, when set, launches a persistent context over that user
	// data directory
	ProfileDir string

	// SlowMo slows every Playwright operation
	SlowMo time.Duration

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations
	Timeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.Viewport == nil {
		o.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Channel == "chromium" {
		o.Channel = ""
	}
	return o
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (o SessionOptions) launchOptions() playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(o.Headless),
	}
	if o.Channel != "" {
		opts.Channel = playwright.String(o.Channel)
	}
	if o.SlowMo > 0 {
		opts.SlowMo = playwright.Float(millis(o.SlowMo))
	}
	return opts
}

func (o SessionOptions) persistentOptions() playwright.BrowserTypeLaunchPersistentContextOptions {
	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(o.Headless),
		Viewport: &playwright.Size{Width: o.Viewport.Width, Height: o.Viewport.Height},
	}
	if o.Channel != "" {
		opts.Channel = playwright.String(o.Channel)
	}
	if o.SlowMo > 0 {
		opts.SlowMo = playwright.Float(millis(o.SlowMo))
	}
	return opts
}
