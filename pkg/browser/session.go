package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/entrhq/pagepilot/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// Driver brings up a page and releases it again. Session is the Playwright
// implementation.
type Driver interface {
	Initialize() error
	Page() (Page, error)
	Close(ctx context.Context) error
}

// Session owns one Playwright runtime, browser, context and page.
type Session struct {
	mu     sync.Mutex
	opts   SessionOptions
	logger *logging.Logger

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	closed bool
}

// NewSession creates an uninitialized session.
func NewSession(opts SessionOptions) *Session {
	opts.applyDefaults()
	return &Session{
		opts:   opts,
		logger: logging.Discard("session"),
	}
}

// SetLogger replaces the session's debug logger.
func (s *Session) SetLogger(l *logging.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Initialize installs and starts Playwright, launches Chromium and opens a
// page. It is a no-op when the session is already up.
func (s *Session) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.page != nil {
		return nil
	}

	// Discard driver output so it does not interleave with console output
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if !s.opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  s.opts.ViewportWidth,
			Height: s.opts.ViewportHeight,
		},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(s.opts.DefaultTimeout.Milliseconds()))

	s.pw, s.browser, s.context, s.page = pw, browser, bctx, page
	s.logger.Infof("Browser session started (headless=%v, viewport=%dx%d)",
		s.opts.Headless, s.opts.ViewportWidth, s.opts.ViewportHeight)
	return nil
}

// Page returns the session's page.
func (s *Session) Page() (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.page == nil {
		return nil, errors.New("browser session not initialized")
	}
	return newPlaywrightPage(s.page), nil
}

type closer struct {
	name string
	fn   func() error
}

// Close releases page, context, browser and runtime in that order. When ctx
// has no deadline the session's CloseTimeout applies. If the bound expires
// the references are dropped and a CleanupError with TimedOut set is
// returned. Close is idempotent and safe before Initialize.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.takeClosers()
	s.mu.Unlock()

	if len(closers) == 0 {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CloseTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		var errs []error
		for _, c := range closers {
			if err := c.fn(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Warnf("Browser cleanup finished with errors: %v", err)
			return &CleanupError{Err: err}
		}
		s.logger.Infof("Browser session closed")
		return nil
	case <-ctx.Done():
		s.logger.Errorf("Browser cleanup abandoned: %v", ctx.Err())
		return &CleanupError{Err: ctx.Err(), TimedOut: true}
	}
}

// takeClosers collects close functions for the live resources and drops the
// session's references to them. Callers hold s.mu.
func (s *Session) takeClosers() []closer {
	var closers []closer
	if page := s.page; page != nil {
		closers = append(closers, closer{"page", func() error { return page.Close() }})
	}
	if bctx := s.context; bctx != nil {
		closers = append(closers, closer{"context", func() error { return bctx.Close() }})
	}
	if browser := s.browser; browser != nil {
		closers = append(closers, closer{"browser", func() error { return browser.Close() }})
	}
	if pw := s.pw; pw != nil {
		closers = append(closers, closer{"playwright", pw.Stop})
	}
	s.page, s.context, s.browser, s.pw = nil, nil, nil, nil
	return closers
}
