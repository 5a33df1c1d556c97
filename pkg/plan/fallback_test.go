package plan

import (
	"fmt"
	"testing"

	"github.com/entrhq/pagepilot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func el(id, typ, label string, conf float64) types.Element {
	return types.Element{ID: id, Type: typ, Label: label, Confidence: types.Float64Ptr(conf)}
}

func TestFallbackEmptyInput(t *testing.T) {
	p := FallbackPlan("fill the form", nil)
	assert.Equal(t, "No elements available for: fill the form", p.Task)
	assert.Empty(t, p.Steps)
	assert.Equal(t, 0, p.EstimatedTime)
	assert.Equal(t, types.PlanSourceFallback, p.Source)
}

func TestFallbackAlwaysHasStepForNonEmptyInput(t *testing.T) {
	inputs := [][]types.Element{
		{el("a", "widget", "x", 0)},
		{el("a", "text", "x", 0.1), el("b", "text", "y", 0.2)},
		{el("a", "button", "Go", 0.55)},
		{el("a", "button", "Go", 0.95)},
		{{ID: "a", Type: "unknown"}},
	}
	for i, elements := range inputs {
		for _, intent := range []string{"fill", "click", "go to", "read", ""} {
			p := FallbackPlan(intent, elements)
			assert.NotEmpty(t, p.Steps, "case %d intent %q", i, intent)
			require.NoError(t, p.Validate())
		}
	}
}

func TestFallbackFillIntent(t *testing.T) {
	elements := []types.Element{
		{ID: "dose", Type: "dosage", Label: "Dosage", Value: types.StringPtr("10mg"), Confidence: types.Float64Ptr(0.9)},
		el("submit", "button", "Submit", 0.9),
		el("notes", "textarea", "Notes", 0.5),
		el("footer", "text", "Footer", 0.1),
	}

	p := FallbackPlan("Fill in the dosage", elements)
	require.Len(t, p.Steps, 3)

	assert.Equal(t, types.ActionFill, p.Steps[0].Action)
	assert.Equal(t, "dose", p.Steps[0].Target)
	assert.Equal(t, "10mg", p.Steps[0].Value)
	assert.Equal(t, "Fill Dosage (confidence 0.90)", p.Steps[0].Description)

	// button is not an entry type
	assert.Equal(t, types.ActionRead, p.Steps[1].Action)

	// medium entry element becomes a verification read
	assert.Equal(t, types.ActionRead, p.Steps[2].Action)
	assert.Equal(t, "Verify Notes before filling", p.Steps[2].Description)

	// three steps already, so the low band is not consulted
	for _, s := range p.Steps {
		assert.NotEqual(t, "footer", s.Target)
	}

	for i, s := range p.Steps {
		assert.Equal(t, i+1, s.Index)
	}
	assert.Equal(t, 6, p.EstimatedTime)
}

func TestFallbackLowBandOnlyWhenShort(t *testing.T) {
	elements := []types.Element{
		el("a", "button", "A", 0.9),
		el("b", "button", "B", 0.9),
		el("c", "button", "C", 0.9),
		el("low", "text", "Low", 0.1),
	}
	p := FallbackPlan("click", elements)
	require.Len(t, p.Steps, 3)
	for _, s := range p.Steps {
		assert.Equal(t, types.ActionClick, s.Action)
		assert.NotEqual(t, "low", s.Target)
	}
}

func TestFallbackClickIntentMediumVerify(t *testing.T) {
	elements := []types.Element{
		el("go", "link", "Continue", 0.6),
		el("h", "heading", "Title", 0.6),
	}
	p := FallbackPlan("press continue", elements)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, types.ActionRead, p.Steps[0].Action)
	assert.Equal(t, "Verify Continue before clicking", p.Steps[0].Description)
	assert.Equal(t, "Read Title (confidence 0.60)", p.Steps[1].Description)
}

func TestFallbackNavigateIntentReadsOnly(t *testing.T) {
	p := FallbackPlan("navigate to the pharmacy", []types.Element{el("l", "link", "Refills", 0.9)})
	require.Len(t, p.Steps, 1)
	assert.Equal(t, types.ActionRead, p.Steps[0].Action)
}

func TestFallbackCaps(t *testing.T) {
	var elements []types.Element
	for i := 0; i < 15; i++ {
		elements = append(elements, el(fmt.Sprintf("h%d", i), "button", "High", 0.9))
	}
	for i := 0; i < 8; i++ {
		elements = append(elements, el(fmt.Sprintf("m%d", i), "text", "Mid", 0.5))
	}
	for i := 0; i < 6; i++ {
		elements = append(elements, el(fmt.Sprintf("l%d", i), "text", "Low", 0.1))
	}

	p := FallbackPlan("click", elements)
	require.Len(t, p.Steps, 15)
	assert.Equal(t, "h0", p.Steps[0].Target)
	assert.Equal(t, "h9", p.Steps[9].Target)
	assert.Equal(t, "m0", p.Steps[10].Target)
	assert.Equal(t, "m4", p.Steps[14].Target)
	assert.Equal(t, 30, p.EstimatedTime)
}

func TestFallbackLowOnlyAddsUpToThree(t *testing.T) {
	elements := []types.Element{
		el("a", "x", "A", 0.1),
		el("b", "x", "B", 0.3),
		el("c", "x", "C", 0.2),
		el("d", "x", "D", 0.35),
	}
	p := FallbackPlan("read", elements)
	require.Len(t, p.Steps, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{p.Steps[0].Target, p.Steps[1].Target, p.Steps[2].Target})
}
