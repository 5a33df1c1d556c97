package browser

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/entrhq/pagepilot/pkg/logging"
	"github.com/entrhq/pagepilot/pkg/security/urlguard"
	"github.com/entrhq/pagepilot/pkg/types"
	"github.com/google/uuid"
)

// State is the executor lifecycle position.
type State string

const (
	StateNotStarted    State = "not_started"
	StateSessionActive State = "session_active"
	StateStepRunning   State = "step_running"
	StateFinalizing    State = "finalizing"
	StateClosed        State = "closed"
)

// errStepSkipped marks a step that was not attempted, as opposed to one that
// failed while running.
var errStepSkipped = errors.New("step skipped")

// Executor runs plans against the page of one Driver. It is not meant to be
// shared: a second Execute while one is running returns an error result.
type Executor struct {
	driver   Driver
	guard    *urlguard.Guard
	resolver *Resolver
	opts     ExecutorOptions
	logger   *logging.Logger

	// sleep is time.Sleep outside tests
	sleep func(time.Duration)

	running sync.Mutex

	stateMu sync.Mutex
	state   State

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewExecutor creates an executor over driver. A nil guard rejects nothing
// but the built-in SSRF policy.
func NewExecutor(driver Driver, guard *urlguard.Guard, opts ExecutorOptions) *Executor {
	opts.applyDefaults()
	if guard == nil {
		guard, _ = urlguard.New()
	}
	return &Executor{
		driver:   driver,
		guard:    guard,
		resolver: NewResolver(),
		opts:     opts,
		logger:   logging.Discard("executor"),
		sleep:    time.Sleep,
		state:    StateNotStarted,
	}
}

// SetLogger replaces the executor's debug logger.
func (e *Executor) SetLogger(l *logging.Logger) {
	if l != nil {
		e.logger = l
	}
}

// SetResolver replaces the selector resolver.
func (e *Executor) SetResolver(r *Resolver) {
	if r != nil {
		e.resolver = r
	}
}

// State returns the current lifecycle state.
func (e *Executor) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

func (e *Executor) setState(s State) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == StateClosed {
		return
	}
	e.state = s
}

// Execute runs steps in order and returns a fully populated result.
//
// The start URL, when given, is validated and loaded before any step; a
// rejection or load failure ends the run with status error and no steps
// attempted. Cancellation of ctx, or Close, is honoured between steps.
func (e *Executor) Execute(ctx context.Context, steps []types.ActionStep, elements ElementLookup, startURL string) (result *types.ExecutionResult) {
	result = types.NewExecutionResult()
	result.StepsTotal = len(steps)

	if !e.running.TryLock() {
		result.Fail("Executor is busy", ErrBusy)
		result.AddLog("Execution refused: another plan is running on this executor")
		return result
	}
	defer e.running.Unlock()

	if e.closed.Load() {
		result.Fail("Executor is closed", ErrSessionClosed)
		result.AddLog("Execution refused: executor already closed")
		return result
	}

	runID := uuid.New().String()
	started := time.Now()
	e.logger.Infof("Run %s: %d steps, start URL %q", runID, len(steps), startURL)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", ErrSession, r)
			result.Fail("Execution aborted unexpectedly", err)
			result.Logf("Execution aborted: %v", r)
			e.logger.Errorf("Run %s panicked: %v", runID, r)
		}
	}()

	page, ok := e.setup(startURL, result)
	if !ok {
		e.logger.Warnf("Run %s: setup failed: %s", runID, result.Error)
		return result
	}

	e.runSteps(ctx, page, steps, elements, result)
	e.finalize(page, runID, result)

	e.logger.Infof("Run %s: %s in %s (%d ok, %d failed, %d skipped)", runID, result.Status,
		time.Since(started).Round(time.Millisecond), result.StepsSucceeded, result.StepsFailed, result.StepsSkipped)
	return result
}

func (e *Executor) setup(startURL string, result *types.ExecutionResult) (Page, bool) {
	startURL = strings.TrimSpace(startURL)
	if startURL != "" {
		if err := e.guard.Validate(startURL); err != nil {
			result.Fail("Start URL rejected", err)
			result.Logf("Start URL rejected: %v", err)
			return nil, false
		}
	}

	if err := e.driver.Initialize(); err != nil {
		result.Fail("Failed to start browser session", fmt.Errorf("%w: %v", ErrSession, err))
		result.Logf("Browser session failed to start: %v", err)
		return nil, false
	}
	page, err := e.driver.Page()
	if err != nil {
		result.Fail("Browser page unavailable", fmt.Errorf("%w: %v", ErrSession, err))
		result.Logf("Browser page unavailable: %v", err)
		return nil, false
	}
	e.setState(StateSessionActive)

	if startURL != "" {
		if err := page.Goto(startURL, e.opts.NavigationTimeout); err != nil {
			result.Fail("Failed to load start URL", fmt.Errorf("%w: %v", ErrSession, err))
			result.Logf("Navigation to %s failed: %v", startURL, err)
			return nil, false
		}
		result.Logf("Navigated to %s", startURL)
	}
	return page, true
}

func (e *Executor) runSteps(ctx context.Context, page Page, steps []types.ActionStep, elements ElementLookup, result *types.ExecutionResult) {
	for i, step := range steps {
		n := stepNumber(step, i)

		if reason := e.stopReason(ctx); reason != "" {
			result.Logf("Execution stopped before step %d (%s): %d steps not attempted", n, reason, len(steps)-i)
			for j, rest := range steps[i:] {
				result.Record(types.StepOutcome{
					Step:   stepNumber(rest, i+j),
					Action: rest.Action,
					Target: rest.Target,
					Status: types.StepSkipped,
					Reason: reason,
				})
			}
			return
		}

		e.setState(StateStepRunning)
		result.Record(e.runStep(page, n, step, elements, result))
	}
}

// stopReason reports why no further steps should start.
func (e *Executor) stopReason(ctx context.Context) string {
	if e.closed.Load() {
		return "executor closed"
	}
	if err := ctx.Err(); err != nil {
		return err.Error()
	}
	return ""
}

func stepNumber(step types.ActionStep, i int) int {
	if step.Index > 0 {
		return step.Index
	}
	return i + 1
}

func (e *Executor) runStep(page Page, n int, step types.ActionStep, elements ElementLookup, result *types.ExecutionResult) (outcome types.StepOutcome) {
	started := time.Now()
	outcome = types.StepOutcome{Step: n, Action: step.Action, Target: step.Target}
	label := fmt.Sprintf("Step %d (%s %s)", n, step.Action, step.Target)

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = types.StepFailed
			outcome.Reason = fmt.Sprintf("panic: %v", r)
			result.Logf("%s failed: %s", label, outcome.Reason)
		}
		outcome.Duration = time.Since(started)
	}()

	if step.Action.NeedsTarget() {
		sel, err := e.resolver.Resolve(step.Target, elements, page)
		if err != nil {
			outcome.Status = types.StepSkipped
			outcome.Reason = err.Error()
			result.Logf("%s skipped: %v", label, err)
			return outcome
		}
		outcome.Selector = sel
		if err := page.WaitVisible(sel, e.opts.ActionTimeout); err != nil {
			return e.failed(outcome, label, n, err, result)
		}
	}

	detail, err := e.dispatch(page, step, outcome.Selector)
	switch {
	case errors.Is(err, errStepSkipped):
		outcome.Status = types.StepSkipped
		outcome.Reason = detail
		result.Logf("%s skipped: %s", label, detail)
	case err != nil:
		return e.failed(outcome, label, n, err, result)
	default:
		outcome.Status = types.StepSucceeded
		if detail != "" {
			result.Logf("%s succeeded: %s", label, detail)
		} else {
			result.Logf("%s succeeded", label)
		}
	}
	return outcome
}

func (e *Executor) failed(outcome types.StepOutcome, label string, n int, err error, result *types.ExecutionResult) types.StepOutcome {
	serr := &StepError{Step: n, Kind: Categorize(err), Err: err}
	outcome.Status = types.StepFailed
	outcome.Reason = serr.Error()
	result.Logf("%s failed [%s]: %v", label, serr.Kind, err)
	e.logger.Warnf("%v", serr)
	return outcome
}

// dispatch performs one action. A returned errStepSkipped means the step was
// refused before touching the page; the string explains why.
func (e *Executor) dispatch(page Page, step types.ActionStep, selector string) (string, error) {
	switch step.Action {
	case types.ActionClick:
		if err := page.Click(selector, e.opts.ActionTimeout); err != nil {
			return "", err
		}
		if e.opts.SettleDelay > 0 {
			e.sleep(e.opts.SettleDelay)
		}
		return "", nil

	case types.ActionFill:
		if err := page.Fill(selector, step.Value, e.opts.ActionTimeout); err != nil {
			return "", err
		}
		return fmt.Sprintf("entered %d characters", len([]rune(step.Value))), nil

	case types.ActionSelect:
		if err := page.SelectOption(selector, step.Value, e.opts.ActionTimeout); err != nil {
			return "", err
		}
		return fmt.Sprintf("selected %q", step.Value), nil

	case types.ActionNavigate:
		if err := e.guard.Validate(step.Value); err != nil {
			return fmt.Sprintf("navigation refused: %v", err), errStepSkipped
		}
		if err := page.Goto(step.Value, e.opts.NavigationTimeout); err != nil {
			return "", err
		}
		return "now at " + page.URL(), nil

	case types.ActionWait:
		d := waitDuration(step.Value)
		e.sleep(d)
		return fmt.Sprintf("waited %s", d), nil

	case types.ActionRead:
		text, err := page.TextContent(selector, e.opts.ActionTimeout)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("read %q", preview(text)), nil

	default:
		return "", fmt.Errorf("unsupported action %q", step.Action)
	}
}

// waitDuration parses a wait value in seconds, defaulting to one second for
// unparsable or non-finite values and capping at MaxWait.
func waitDuration(value string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		return DefaultWait
	}
	if secs >= MaxWait.Seconds() {
		return MaxWait
	}
	return time.Duration(secs * float64(time.Second))
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= readPreviewLength {
		return text
	}
	return string(r[:readPreviewLength]) + "..."
}

func (e *Executor) finalize(page Page, runID string, result *types.ExecutionResult) {
	e.setState(StateFinalizing)

	result.Status = types.StatusFor(result.StepsSucceeded, result.StepsTotal)
	result.Message = fmt.Sprintf("%d of %d steps succeeded (%d failed, %d skipped)",
		result.StepsSucceeded, result.StepsTotal, result.StepsFailed, result.StepsSkipped)
	result.FinalURL = page.URL()

	if e.opts.ArtifactDir == "" || (!e.opts.Screenshot && !e.opts.DOMSnapshot) {
		return
	}
	if err := os.MkdirAll(e.opts.ArtifactDir, 0o755); err != nil {
		result.Logf("Artifacts skipped: %v", err)
		return
	}

	if e.opts.Screenshot {
		path := filepath.Join(e.opts.ArtifactDir, runID+".png")
		if err := page.Screenshot(path); err != nil {
			result.Logf("Screenshot failed: %v", err)
		} else {
			result.ScreenshotPath = path
		}
	}

	if e.opts.DOMSnapshot {
		path := filepath.Join(e.opts.ArtifactDir, runID+".html")
		if err := writeSnapshot(page, path); err != nil {
			result.Logf("DOM snapshot failed: %v", err)
		} else {
			result.DOMSnapshotPath = path
		}
	}
}

func writeSnapshot(page Page, path string) error {
	content, err := page.Content()
	if err != nil {
		return err
	}
	cleaned, truncated, err := cleanHTML(content, snapshotMaxLength)
	if err != nil {
		return err
	}
	header := fmt.Sprintf("<!-- %s captured %s", page.URL(), time.Now().UTC().Format(time.RFC3339))
	if truncated {
		header += " (truncated)"
	}
	return os.WriteFile(path, []byte(header+" -->\n"+cleaned+"\n"), 0o644)
}

// Close releases the session within the close bound and returns any
// cleanup error after logging it. Later calls return the same error.
// Closing while a plan runs stops it at the next step boundary.
func (e *Executor) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)

		ctx, cancel := context.WithTimeout(context.Background(), e.opts.CloseTimeout)
		defer cancel()

		e.closeErr = e.driver.Close(ctx)
		if e.closeErr != nil {
			e.logger.Warnf("Executor close: %v", e.closeErr)
		}

		e.stateMu.Lock()
		e.state = StateClosed
		e.stateMu.Unlock()
	})
	return e.closeErr
}
