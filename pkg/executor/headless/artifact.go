package headless

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/pagepilot/pkg/types"
)

// Artifact file names written to the output directory
const (
	PlanArtifact    = "plan.json"
	ResultArtifact  = "result.json"
	SummaryArtifact = "summary.md"
)

// ArtifactWriter handles writing execution artifacts
type ArtifactWriter struct {
	outputDir string
	config    ArtifactConfig
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string, config ArtifactConfig) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
		config:    config,
	}
}

// WriteAll writes all configured artifact formats and returns their paths
func (w *ArtifactWriter) WriteAll(summary *ExecutionSummary) ([]string, error) {
	// Ensure output directory exists
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string

	if w.config.JSON {
		if summary.Plan != nil {
			path, err := w.WritePlanJSON(summary.Plan)
			if err != nil {
				return written, fmt.Errorf("failed to write plan JSON: %w", err)
			}
			written = append(written, path)
		}
		if summary.Result != nil {
			path, err := w.WriteResultJSON(summary.Result)
			if err != nil {
				return written, fmt.Errorf("failed to write result JSON: %w", err)
			}
			written = append(written, path)
		}
	}

	if w.config.Markdown {
		path, err := w.WriteSummaryMarkdown(summary)
		if err != nil {
			return written, fmt.Errorf("failed to write summary markdown: %w", err)
		}
		written = append(written, path)
	}

	return written, nil
}

// WritePlanJSON writes the plan in the same format LoadFile accepts
func (w *ArtifactWriter) WritePlanJSON(p *types.ActionPlan) (string, error) {
	return w.writeJSON(PlanArtifact, p)
}

// WriteResultJSON writes the full execution result as JSON
func (w *ArtifactWriter) WriteResultJSON(r *types.ExecutionResult) (string, error) {
	return w.writeJSON(ResultArtifact, r)
}

func (w *ArtifactWriter) writeJSON(name string, v interface{}) (string, error) {
	path := filepath.Join(w.outputDir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, writeErr)
	}

	return path, nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *ExecutionSummary) (string, error) {
	path := filepath.Join(w.outputDir, SummaryArtifact)

	var md strings.Builder

	// Header
	md.WriteString("# pagepilot Execution Summary\n\n")
	md.WriteString(fmt.Sprintf("**Task:** %s\n\n", summary.Task))
	md.WriteString(fmt.Sprintf("**Mode:** %s\n\n", summary.Mode))
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration))

	// Result
	md.WriteString("## Result\n\n")
	switch {
	case summary.Error != "":
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
	case summary.Status == types.StatusPartial:
		md.WriteString(fmt.Sprintf("⚠️ **Partial:** %s\n\n", summary.Message))
	default:
		md.WriteString("✅ **Success**")
		if summary.Message != "" {
			md.WriteString(": " + summary.Message)
		}
		md.WriteString("\n\n")
	}

	// Plan
	if p := summary.Plan; p != nil {
		md.WriteString(fmt.Sprintf("## Plan (%s)\n\n", p.Source))
		for _, step := range p.Steps {
			md.WriteString(fmt.Sprintf("%d. `%s` **%s**", step.Index, step.Action, step.Target))
			if step.Description != "" {
				md.WriteString(" - " + step.Description)
			}
			md.WriteString("\n")
		}
		md.WriteString("\n")
	}

	// Steps
	if r := summary.Result; r != nil && len(r.Steps) > 0 {
		md.WriteString("## Steps\n\n")
		md.WriteString("| Step | Action | Target | Status | Detail |\n")
		md.WriteString("|------|--------|--------|--------|--------|\n")
		for _, o := range r.Steps {
			detail := o.Reason
			if detail == "" {
				detail = o.Selector
			}
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				o.Step, o.Action, o.Target, o.Status, escapeCell(detail)))
		}
		md.WriteString("\n")

		md.WriteString("## Metrics\n\n")
		md.WriteString(fmt.Sprintf("- **Steps Total:** %d\n", r.StepsTotal))
		md.WriteString(fmt.Sprintf("- **Succeeded:** %d\n", r.StepsSucceeded))
		md.WriteString(fmt.Sprintf("- **Failed:** %d\n", r.StepsFailed))
		md.WriteString(fmt.Sprintf("- **Skipped:** %d\n", r.StepsSkipped))
		if r.FinalURL != "" {
			md.WriteString(fmt.Sprintf("- **Final URL:** %s\n", r.FinalURL))
		}
		if r.ScreenshotPath != "" {
			md.WriteString(fmt.Sprintf("- **Screenshot:** `%s`\n", r.ScreenshotPath))
		}
		if r.DOMSnapshotPath != "" {
			md.WriteString(fmt.Sprintf("- **DOM Snapshot:** `%s`\n", r.DOMSnapshotPath))
		}
	}

	// Write file
	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return "", fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return path, nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// ExecutionSummary contains a complete summary of a headless run
type ExecutionSummary struct {
	Task         string                 `json:"task"`
	Mode         Mode                   `json:"mode"`
	Status       types.ExecutionStatus  `json:"status"`
	Message      string                 `json:"message,omitempty"`
	Error        string                 `json:"error,omitempty"`
	CleanupError string                 `json:"cleanup_error,omitempty"`
	StartTime    time.Time              `json:"start_time"`
	EndTime      time.Time              `json:"end_time"`
	Duration     time.Duration          `json:"duration"`
	Plan         *types.ActionPlan      `json:"plan,omitempty"`
	Result       *types.ExecutionResult `json:"result,omitempty"`
	Artifacts    []string               `json:"artifacts,omitempty"`
}
