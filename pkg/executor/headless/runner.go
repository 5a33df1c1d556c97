package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/pagepilot/pkg/browser"
	"github.com/entrhq/pagepilot/pkg/catalog"
	"github.com/entrhq/pagepilot/pkg/logging"
	"github.com/entrhq/pagepilot/pkg/plan"
	"github.com/entrhq/pagepilot/pkg/security/urlguard"
	"github.com/entrhq/pagepilot/pkg/types"
)

// StatusPlanned is reported by plan-mode runs that produced a plan.
const StatusPlanned types.ExecutionStatus = "planned"

// Process exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2
)

// PlanSynthesizer turns an intent and catalog into a plan. *plan.Synthesizer
// satisfies it.
type PlanSynthesizer interface {
	CreatePlan(ctx context.Context, intent string, elements []types.Element, planCtx map[string]interface{}) *types.ActionPlan
}

// PlanExecutor runs a plan against a live page. *browser.Executor satisfies it.
type PlanExecutor interface {
	Execute(ctx context.Context, steps []types.ActionStep, elements browser.ElementLookup, startURL string) *types.ExecutionResult
	Close() error
}

// ExecutorFactory builds the executor for one run.
type ExecutorFactory func(config *Config) (PlanExecutor, error)

// Runner drives one headless run: catalog, plan, execution, artifacts
type Runner struct {
	config      *Config
	synthesizer PlanSynthesizer
	newExecutor ExecutorFactory
	constraints *ConstraintManager
	console     *Logger
	log         *logging.Logger
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithExecutorFactory replaces the browser-backed executor
func WithExecutorFactory(f ExecutorFactory) RunnerOption {
	return func(r *Runner) {
		if f != nil {
			r.newExecutor = f
		}
	}
}

// WithConsole sets the console logger
func WithConsole(l *Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.console = l
		}
	}
}

// WithFileLogger sets the file logger
func WithFileLogger(l *logging.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner validates config and creates a runner
func NewRunner(config *Config, synthesizer PlanSynthesizer, opts ...RunnerOption) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if synthesizer == nil {
		synthesizer = plan.NewSynthesizer()
	}

	constraints, err := NewConstraintManager(config.Constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to create constraint manager: %w", err)
	}

	r := &Runner{
		config:      config,
		synthesizer: synthesizer,
		newExecutor: NewBrowserExecutor,
		constraints: constraints,
		console:     NewLogger(ParseLogLevel(config.Logging.Verbosity)),
		log:         logging.Discard("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewBrowserExecutor builds a Playwright-backed executor from config
func NewBrowserExecutor(config *Config) (PlanExecutor, error) {
	guard, err := urlguard.New(config.Security.AllowedDomains...)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed domains: %w", err)
	}

	session := browser.NewSession(browser.SessionOptions{
		Headless:       config.Browser.Headless,
		ViewportWidth:  config.Browser.ViewportWidth,
		ViewportHeight: config.Browser.ViewportHeight,
		DefaultTimeout: config.Browser.ActionTimeout,
		CloseTimeout:   config.Browser.CloseTimeout,
	})
	session.SetLogger(logging.MustLogger("session"))

	opts := browser.ExecutorOptions{
		ActionTimeout:     config.Browser.ActionTimeout,
		NavigationTimeout: config.Browser.NavigationTimeout,
		SettleDelay:       config.Browser.SettleDelay,
		CloseTimeout:      config.Browser.CloseTimeout,
	}
	if config.Artifacts.Enabled {
		opts.ArtifactDir = config.Artifacts.OutputDir
		opts.Screenshot = config.Artifacts.Screenshot
		opts.DOMSnapshot = config.Artifacts.DOMSnapshot
	}

	executor := browser.NewExecutor(session, guard, opts)
	executor.SetLogger(logging.MustLogger("executor"))
	return executor, nil
}

// Run executes the configured task. The returned summary is always
// populated; the error is non-nil only when no plan could be built or the
// executor could not be created.
func (r *Runner) Run(ctx context.Context) (*ExecutionSummary, error) {
	start := time.Now()
	summary := &ExecutionSummary{
		Task:      r.config.Task,
		Mode:      r.config.Mode,
		Status:    types.StatusError,
		StartTime: start,
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	r.console.Header("pagepilot: " + r.config.Task)
	r.log.Infof("Starting %s run: %s", r.config.Mode, r.config.Task)

	err := r.run(ctx, summary)
	if err != nil {
		summary.Status = types.StatusError
		summary.Error = err.Error()
		r.console.Errorf("%v", err)
		r.log.Errorf("Run failed: %v", err)
	}

	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(start)

	r.writeArtifacts(summary)
	r.console.Summary(summary)
	r.log.Infof("Run finished with status %s in %s", summary.Status, summary.Duration)

	return summary, err
}

func (r *Runner) run(ctx context.Context, summary *ExecutionSummary) error {
	r.console.Step("Loading element catalog")
	cat, err := catalog.Load(r.config.Catalog)
	if err != nil {
		return err
	}
	r.console.Verbosef("%d elements (%s)", cat.Len(), cat.PageType)

	r.console.Step("Building plan")
	actionPlan, err := r.buildPlan(ctx, cat)
	if err != nil {
		return err
	}
	summary.Plan = actionPlan
	if summary.Task == "" {
		summary.Task = actionPlan.Task
	}
	r.console.Plan(actionPlan)

	if err := r.constraints.ValidatePlan(actionPlan); err != nil {
		return err
	}

	if r.config.Mode == ModePlan {
		summary.Status = StatusPlanned
		summary.Message = fmt.Sprintf("Plan with %d steps created (%s)", len(actionPlan.Steps), actionPlan.Source)
		return nil
	}

	r.console.Step("Executing plan")
	executor, err := r.newExecutor(r.config)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}
	result, cleanupErr := r.execute(ctx, executor, actionPlan, cat)
	summary.Result = result
	summary.Status = result.Status
	summary.Message = result.Message
	if result.Error != "" && result.Status == types.StatusError {
		summary.Error = result.Error
	}
	if cleanupErr != nil {
		summary.CleanupError = cleanupErr.Error()
		r.console.Warningf("browser cleanup: %v", cleanupErr)
	}

	switch result.Status {
	case types.StatusSuccess:
		r.console.Successf("%s", result.Message)
	case types.StatusPartial:
		r.console.Warningf("%s", result.Message)
	default:
		r.console.Errorf("%s", result.Message)
	}
	return nil
}

func (r *Runner) buildPlan(ctx context.Context, cat *catalog.Catalog) (*types.ActionPlan, error) {
	if r.config.PlanFile != "" {
		p, err := plan.LoadFile(r.config.PlanFile)
		if err != nil {
			return nil, err
		}
		r.console.Infof("Loaded plan from %s", r.config.PlanFile)
		r.log.Infof("Using manual plan %s with %d steps", r.config.PlanFile, len(p.Steps))
		return p, nil
	}

	planCtx := map[string]interface{}{
		"page_type": cat.PageType,
	}
	if r.config.StartURL != "" {
		planCtx["start_url"] = r.config.StartURL
	}
	if cat.URLHint != "" {
		planCtx["url_hint"] = cat.URLHint
	}

	p := r.synthesizer.CreatePlan(ctx, r.config.Task, cat.Elements(), planCtx)
	if p == nil {
		return nil, fmt.Errorf("no plan produced for task %q", r.config.Task)
	}
	r.console.Infof("Plan synthesized via %s path", p.Source)
	r.log.Infof("Plan synthesized via %s path with %d steps", p.Source, len(p.Steps))
	return p, nil
}

// execute runs the plan and always closes the executor. The returned error
// is the close error, if any.
func (r *Runner) execute(ctx context.Context, executor PlanExecutor, p *types.ActionPlan, cat *catalog.Catalog) (*types.ExecutionResult, error) {
	result := executor.Execute(ctx, p.Steps, cat, r.config.StartURL)
	closeErr := executor.Close()
	if closeErr != nil {
		var cleanup *browser.CleanupError
		if errors.As(closeErr, &cleanup) && cleanup.TimedOut {
			r.log.Warnf("Browser close timed out: %v", closeErr)
		} else {
			r.log.Warnf("Browser close failed: %v", closeErr)
		}
	}
	if result == nil {
		result = types.NewExecutionResult()
		result.Fail("Executor returned no result", nil)
	}
	return result, closeErr
}

func (r *Runner) writeArtifacts(summary *ExecutionSummary) {
	if !r.config.Artifacts.Enabled {
		return
	}

	writer := NewArtifactWriter(r.config.Artifacts.OutputDir, r.config.Artifacts)
	paths, err := writer.WriteAll(summary)
	summary.Artifacts = append(summary.Artifacts, paths...)
	if res := summary.Result; res != nil {
		if res.ScreenshotPath != "" {
			summary.Artifacts = append(summary.Artifacts, res.ScreenshotPath)
		}
		if res.DOMSnapshotPath != "" {
			summary.Artifacts = append(summary.Artifacts, res.DOMSnapshotPath)
		}
	}
	if err != nil {
		r.console.Warningf("failed to write artifacts: %v", err)
		r.log.Warnf("Failed to write artifacts: %v", err)
	}
}

// ExitCode maps a run outcome to the process exit code
func ExitCode(summary *ExecutionSummary, err error) int {
	if err != nil || summary == nil {
		return ExitError
	}
	switch summary.Status {
	case types.StatusSuccess, StatusPlanned:
		return ExitSuccess
	case types.StatusPartial:
		return ExitPartial
	default:
		return ExitError
	}
}
