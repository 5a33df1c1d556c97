package headless

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/entrhq/pagepilot/pkg/types"
)

// LogLevel represents the logging verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only critical information (errors, warnings, final summary)
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows standard execution progress (default)
	LogLevelNormal
	// LogLevelVerbose shows detailed execution information
	LogLevelVerbose
	// LogLevelDebug shows all internal details for debugging
	LogLevelDebug
)

var (
	salmonPink = lipgloss.Color("#FFB3BA")
	mintGreen  = lipgloss.Color("#A8E6CF")
	mutedGray  = lipgloss.Color("245")
	warnYellow = lipgloss.Color("220")
	errorRed   = lipgloss.Color("203")
	accentCyan = lipgloss.Color("87")
)

// styles are bound to one renderer so color detection follows the writer.
type styles struct {
	header  lipgloss.Style
	section lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:  r.NewStyle().Bold(true),
		section: r.NewStyle().Foreground(accentCyan),
		step:    r.NewStyle().Foreground(accentCyan),
		success: r.NewStyle().Bold(true).Foreground(mintGreen),
		info:    r.NewStyle().Foreground(salmonPink),
		warning: r.NewStyle().Foreground(warnYellow),
		err:     r.NewStyle().Bold(true).Foreground(errorRed),
		muted:   r.NewStyle().Foreground(mutedGray),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1),
	}
}

// Logger provides structured console output for headless execution
type Logger struct {
	level    LogLevel
	writer   io.Writer
	renderer *lipgloss.Renderer
	styles   styles

	// Execution state
	startTime time.Time
	stepCount int
}

// NewLogger creates a new logger with the specified level writing to stdout
func NewLogger(level LogLevel) *Logger {
	l := &Logger{
		level:     level,
		startTime: time.Now(),
	}
	l.SetOutput(os.Stdout)
	return l
}

// SetOutput redirects console output. Color support is detected from w.
func (l *Logger) SetOutput(w io.Writer) {
	l.writer = w
	l.renderer = lipgloss.NewRenderer(w)
	l.styles = newStyles(l.renderer)
}

// Level returns the configured verbosity
func (l *Logger) Level() LogLevel {
	return l.level
}

// Header prints a prominent header message
func (l *Logger) Header(message string) {
	if l.level >= LogLevelNormal {
		rule := strings.Repeat("=", 70)
		fmt.Fprintf(l.writer, "\n%s\n", l.styles.header.Render(rule))
		fmt.Fprintf(l.writer, "%s\n", l.styles.header.Render("  "+message))
		fmt.Fprintf(l.writer, "%s\n", l.styles.header.Render(rule))
	}
}

// Section prints a section divider
func (l *Logger) Section(title string) {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer)
		fmt.Fprintln(l.writer, l.styles.section.Render("▶ "+title))
		fmt.Fprintln(l.writer, l.styles.muted.Render(strings.Repeat("─", 50)))
	}
}

// Step prints a numbered phase of the run
func (l *Logger) Step(message string) {
	if l.level >= LogLevelNormal {
		l.stepCount++
		fmt.Fprintf(l.writer, "\n%s\n", l.styles.step.Render(fmt.Sprintf("[%d] %s", l.stepCount, message)))
	}
}

// Successf prints a success message with checkmark
func (l *Logger) Successf(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer, l.styles.success.Render("✓ "+fmt.Sprintf(format, args...)))
	}
}

// Infof prints an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer, l.styles.info.Render(fmt.Sprintf(format, args...)))
	}
}

// Warningf prints a warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	if l.level >= LogLevelQuiet {
		fmt.Fprintln(l.writer, l.styles.warning.Render("⚠ Warning: "+fmt.Sprintf(format, args...)))
	}
}

// Errorf prints an error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.level >= LogLevelQuiet {
		fmt.Fprintln(l.writer, l.styles.err.Render("✗ Error: "+fmt.Sprintf(format, args...)))
	}
}

// Verbosef prints detailed information (only in verbose mode)
func (l *Logger) Verbosef(format string, args ...interface{}) {
	if l.level >= LogLevelVerbose {
		fmt.Fprintln(l.writer, l.styles.muted.Render("→ "+fmt.Sprintf(format, args...)))
	}
}

// Debugf prints debug information (only in debug mode)
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		fmt.Fprintln(l.writer, l.styles.muted.Render("[DEBUG] "+fmt.Sprintf(format, args...)))
	}
}

// Plan prints the synthesized plan, one line per step
func (l *Logger) Plan(p *types.ActionPlan) {
	if l.level < LogLevelNormal || p == nil {
		return
	}

	fmt.Fprintln(l.writer, l.styles.muted.Render(fmt.Sprintf("  source: %s, %d steps, ~%ds", p.Source, len(p.Steps), p.EstimatedTime)))
	for _, step := range p.Steps {
		line := fmt.Sprintf("  %d. %s %s", step.Index, step.Action, step.Target)
		if step.Value != "" && step.Action != types.ActionFill {
			line += fmt.Sprintf(" (%s)", step.Value)
		}
		fmt.Fprintln(l.writer, line)
		if step.Description != "" && l.level >= LogLevelVerbose {
			fmt.Fprintln(l.writer, l.styles.muted.Render("     "+step.Description))
		}
	}
}

// Summary prints a final execution summary
func (l *Logger) Summary(summary *ExecutionSummary) {
	if l.level < LogLevelQuiet || summary == nil {
		return
	}

	var body strings.Builder
	body.WriteString(l.styles.header.Render("EXECUTION SUMMARY"))
	body.WriteString("\n\n")
	body.WriteString("Status: " + l.renderStatus(summary.Status) + "\n")
	fmt.Fprintf(&body, "Task: %s\n", summary.Task)
	fmt.Fprintf(&body, "Mode: %s\n", summary.Mode)
	fmt.Fprintf(&body, "Duration: %s\n", summary.Duration.Round(time.Millisecond))
	if summary.Plan != nil {
		fmt.Fprintf(&body, "Plan: %d steps (%s)\n", len(summary.Plan.Steps), summary.Plan.Source)
	}

	if r := summary.Result; r != nil {
		if r.Message != "" {
			fmt.Fprintf(&body, "Result: %s\n", r.Message)
		}
		if r.FinalURL != "" {
			fmt.Fprintf(&body, "Final URL: %s\n", r.FinalURL)
		}
		if len(r.Steps) > 0 {
			body.WriteString("\n")
			body.WriteString(l.stepTable(r.Steps))
			body.WriteString("\n")
		}
	}

	if len(summary.Artifacts) > 0 && l.level >= LogLevelNormal {
		body.WriteString("\nArtifacts:\n")
		for _, path := range summary.Artifacts {
			fmt.Fprintf(&body, "  • %s\n", path)
		}
	}

	if summary.Error != "" {
		body.WriteString("\n" + l.styles.err.Render("Error Details:") + "\n")
		body.WriteString("  " + summary.Error + "\n")
	}
	if summary.CleanupError != "" {
		body.WriteString(l.styles.warning.Render("Cleanup: "+summary.CleanupError) + "\n")
	}

	fmt.Fprintln(l.writer)
	fmt.Fprintln(l.writer, l.styles.box.Render(strings.TrimRight(body.String(), "\n")))

	if l.level >= LogLevelVerbose && summary.Result != nil && len(summary.Result.Logs) > 0 {
		l.Section("Execution Log")
		for _, line := range summary.Result.Logs {
			fmt.Fprintln(l.writer, l.styles.muted.Render("  "+line))
		}
	}
}

func (l *Logger) renderStatus(status types.ExecutionStatus) string {
	switch status {
	case types.StatusSuccess:
		return l.styles.success.Render("✓ SUCCESS")
	case StatusPlanned:
		return l.styles.success.Render("✓ PLANNED")
	case types.StatusPartial:
		return l.styles.warning.Render("⚠ PARTIAL SUCCESS")
	case types.StatusError:
		return l.styles.err.Render("✗ FAILED")
	default:
		return string(status)
	}
}

func (l *Logger) stepTable(outcomes []types.StepOutcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := o.Reason
		if detail == "" {
			detail = o.Selector
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", o.Step),
			string(o.Action),
			o.Target,
			string(o.Status),
			detail,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(l.styles.muted).
		Headers("STEP", "ACTION", "TARGET", "STATUS", "DETAIL").
		Rows(rows...)
	return t.String()
}

// Newline adds a blank line (respects log level)
func (l *Logger) Newline() {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer)
	}
}

// ParseLogLevel converts a string log level to LogLevel type
func ParseLogLevel(level string) LogLevel {
	switch level {
	case "quiet":
		return LogLevelQuiet
	case "normal":
		return LogLevelNormal
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}
