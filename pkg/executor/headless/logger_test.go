package headless

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/pagepilot/pkg/types"
)

func bufferedLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(level)
	l.SetOutput(&buf)
	return l, &buf
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := bufferedLogger(LogLevelQuiet)
	l.Infof("hidden info")
	l.Verbosef("hidden detail")
	l.Warningf("shown warning")
	l.Errorf("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Warning: shown warning")
	assert.Contains(t, out, "Error: shown error")
}

func TestLogger_StepNumbers(t *testing.T) {
	l, buf := bufferedLogger(LogLevelNormal)
	l.Step("Loading element catalog")
	l.Step("Building plan")

	assert.Contains(t, buf.String(), "[1] Loading element catalog")
	assert.Contains(t, buf.String(), "[2] Building plan")
}

func TestLogger_Plan(t *testing.T) {
	l, buf := bufferedLogger(LogLevelVerbose)
	l.Plan(&types.ActionPlan{
		Steps: []types.ActionStep{
			{Index: 1, Action: types.ActionFill, Target: "search", Value: "secret", Description: "Fill Search"},
			{Index: 2, Action: types.ActionWait, Target: "page", Value: "2"},
		},
		EstimatedTime: 4,
		Source:        types.PlanSourceFallback,
	})

	out := buf.String()
	assert.Contains(t, out, "source: fallback, 2 steps")
	assert.Contains(t, out, "1. fill search")
	assert.NotContains(t, out, "secret", "fill values are not echoed")
	assert.Contains(t, out, "2. wait page (2)")
	assert.Contains(t, out, "Fill Search")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelQuiet, ParseLogLevel("quiet"))
	assert.Equal(t, LogLevelVerbose, ParseLogLevel("verbose"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelNormal, ParseLogLevel("unknown"))
}
