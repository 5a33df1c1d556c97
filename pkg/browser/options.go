package browser

import "time"

// Defaults for page operations and session lifecycle.
const (
	DefaultActionTimeout     = 5 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
	DefaultSettleDelay       = 500 * time.Millisecond
	DefaultCloseTimeout      = 5 * time.Second
	DefaultWait              = 1 * time.Second
	MaxWait                  = 30 * time.Second

	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720

	// readPreviewLength bounds the text logged for read steps.
	readPreviewLength = 100

	// snapshotMaxLength bounds the cleaned DOM snapshot.
	snapshotMaxLength = 200_000
)

// SessionOptions configures a browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the page size
	ViewportWidth  int
	ViewportHeight int

	// DefaultTimeout applies to page operations that set no timeout of their own
	DefaultTimeout time.Duration

	// CloseTimeout bounds Close when the caller's context has no deadline
	CloseTimeout time.Duration

	// SkipInstall skips the driver and browser download check
	SkipInstall bool
}

// DefaultSessionOptions returns headless options with default sizes and bounds.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Headless:       true,
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
		DefaultTimeout: DefaultActionTimeout,
		CloseTimeout:   DefaultCloseTimeout,
	}
}

func (o *SessionOptions) applyDefaults() {
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = DefaultViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = DefaultViewportHeight
	}
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = DefaultActionTimeout
	}
	if o.CloseTimeout <= 0 {
		o.CloseTimeout = DefaultCloseTimeout
	}
}

// ExecutorOptions configures plan execution.
type ExecutorOptions struct {
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	CloseTimeout      time.Duration

	// ArtifactDir receives <run-id>.png and <run-id>.html. Empty disables both.
	ArtifactDir string
	Screenshot  bool
	DOMSnapshot bool
}

// DefaultExecutorOptions returns the default timeouts with artifacts disabled.
func DefaultExecutorOptions() ExecutorOptions {
	return ExecutorOptions{
		ActionTimeout:     DefaultActionTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
		SettleDelay:       DefaultSettleDelay,
		CloseTimeout:      DefaultCloseTimeout,
	}
}

func (o *ExecutorOptions) applyDefaults() {
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = DefaultActionTimeout
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.CloseTimeout <= 0 {
		o.CloseTimeout = DefaultCloseTimeout
	}
}
