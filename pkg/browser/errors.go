package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

var (
	// ErrElementNotResolved means no selector strategy matched a step's target.
	ErrElementNotResolved = errors.New("element not resolved")

	// ErrSessionClosed is returned for operations on a closed session or executor.
	ErrSessionClosed = errors.New("browser session closed")

	// ErrSession wraps failures to start the session or load the start URL.
	ErrSession = errors.New("browser session error")

	// ErrBusy is returned when Execute is called while another run is active.
	ErrBusy = errors.New("executor is already running a plan")
)

// ErrorKind classifies a failed step.
type ErrorKind string

const (
	KindTimeout  ErrorKind = "timeout"
	KindDetached ErrorKind = "detached"
	KindOther    ErrorKind = "other"
)

// StepError is a categorized step failure.
type StepError struct {
	Step int
	Kind ErrorKind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// CleanupError reports resources that could not be released. TimedOut is set
// when the close bound expired and references were dropped.
type CleanupError struct {
	Err      error
	TimedOut bool
}

func (e *CleanupError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("browser cleanup timed out: %v", e.Err)
	}
	return fmt.Sprintf("browser cleanup failed: %v", e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// Categorize maps a page operation error to an ErrorKind.
func Categorize(err error) ErrorKind {
	if err == nil {
		return KindOther
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return KindTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(msg, "detached"),
		strings.Contains(msg, "not attached"),
		strings.Contains(msg, "stale"),
		strings.Contains(msg, "target closed"),
		strings.Contains(msg, "execution context was destroyed"):
		return KindDetached
	default:
		return KindOther
	}
}
