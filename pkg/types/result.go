package types

import (
	"fmt"
	"time"
)

// ExecutionStatus is the aggregate outcome of running a plan.
type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success" // StatusSuccess means every step succeeded.
	StatusPartial ExecutionStatus = "partial" // StatusPartial means some but not all steps succeeded.
	StatusError   ExecutionStatus = "error"   // StatusError means no step succeeded or setup failed.
)

// StatusFor derives the aggregate status from step counts. The success check
// runs first, so an empty plan is a success.
func StatusFor(succeeded, total int) ExecutionStatus {
	switch {
	case succeeded == total:
		return StatusSuccess
	case succeeded == 0:
		return StatusError
	default:
		return StatusPartial
	}
}

// StepStatus is the outcome of a single step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepOutcome records what happened to one step.
type StepOutcome struct {
	Step     int           `json:"step"`
	Action   Action        `json:"action"`
	Target   string        `json:"target,omitempty"`
	Status   StepStatus    `json:"status"`
	Selector string        `json:"selector,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// ExecutionResult is returned once per execution, fully populated even when
// the run failed.
type ExecutionResult struct {
	Status  ExecutionStatus `json:"status"`
	Message string          `json:"message"`

	FinalURL        string `json:"final_url,omitempty"`
	ScreenshotPath  string `json:"screenshot_path,omitempty"`
	DOMSnapshotPath string `json:"dom_snapshot_path,omitempty"`
	Error           string `json:"error,omitempty"`

	// Logs is the append-only, human-readable trace of the run.
	Logs []string `json:"logs"`

	Steps          []StepOutcome `json:"steps,omitempty"`
	StepsTotal     int           `json:"steps_total"`
	StepsSucceeded int           `json:"steps_succeeded"`
	StepsFailed    int           `json:"steps_failed"`
	StepsSkipped   int           `json:"steps_skipped"`
}

// NewExecutionResult creates a result in its initial state. The status stays
// error until the executor finalizes it.
func NewExecutionResult() *ExecutionResult {
	return &ExecutionResult{
		Status: StatusError,
		Logs:   make([]string, 0),
	}
}

// AddLog appends a log line.
func (r *ExecutionResult) AddLog(line string) {
	r.Logs = append(r.Logs, line)
}

// Logf appends a formatted log line.
func (r *ExecutionResult) Logf(format string, args ...interface{}) {
	r.AddLog(fmt.Sprintf(format, args...))
}

// Record appends a step outcome and updates the counters.
func (r *ExecutionResult) Record(outcome StepOutcome) {
	r.Steps = append(r.Steps, outcome)
	switch outcome.Status {
	case StepSucceeded:
		r.StepsSucceeded++
	case StepFailed:
		r.StepsFailed++
	case StepSkipped:
		r.StepsSkipped++
	}
}

// Fail marks the result as a hard error.
func (r *ExecutionResult) Fail(message string, err error) {
	r.Status = StatusError
	r.Message = message
	if err != nil {
		r.Error = err.Error()
	}
}
