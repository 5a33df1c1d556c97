package plan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/entrhq/pagepilot/pkg/llm"
	"github.com/entrhq/pagepilot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider returns a canned reply, an error, or blocks for delay.
type mockProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	delay    time.Duration
	calls    int
	messages []*types.Message
}

func (m *mockProvider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProvider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	m.mu.Lock()
	m.calls++
	m.messages = messages
	m.mu.Unlock()

	if m.delay > 0 {
		// ignores ctx on purpose: the synthesizer must not wait for it
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return types.NewAssistantMessage(m.reply), nil
}

func (m *mockProvider) GetModelInfo() *types.ModelInfo { return &types.ModelInfo{Name: "mock"} }
func (m *mockProvider) GetModel() string               { return "mock" }

func catalogElements() []types.Element {
	return []types.Element{
		{ID: "med", Type: "medication", Label: "Medication", Value: types.StringPtr("Amoxicillin")},
		{ID: "dose", Type: "dosage", Label: "Dosage"},
		{ID: "submit", Type: "button", Label: "Submit"},
	}
}

func TestCreatePlanWithoutProviderUsesFallback(t *testing.T) {
	s := NewSynthesizer()
	p := s.CreatePlan(context.Background(), "fill the form", catalogElements(), nil)
	assert.Equal(t, types.PlanSourceFallback, p.Source)
	assert.NotEmpty(t, p.Steps)
}

func TestCreatePlanReasoningAccepted(t *testing.T) {
	provider := &mockProvider{reply: "<thinking>the dose goes first</thinking>\n```json\n" +
		`{"task":"Fill dosage","steps":[` +
		`{"step":3,"action":"fill","target":"dose","value":"10mg","description":"Enter dose"},` +
		`{"step":7,"action":"wait","target":"dose","value":2},` +
		`{"step":9,"action":"click","target":"submit"}],"estimated_time":12}` + "\n```"}

	s := NewSynthesizer(WithProvider(provider))
	p := s.CreatePlan(context.Background(), "fill dosage", catalogElements(), map[string]interface{}{"patient": "p-1"})

	require.Equal(t, types.PlanSourceReasoning, p.Source)
	require.Len(t, p.Steps, 3)
	assert.Equal(t, "Fill dosage", p.Task)
	assert.Equal(t, 12, p.EstimatedTime)
	assert.Equal(t, "10mg", p.Steps[0].Value)
	assert.Equal(t, "2", p.Steps[1].Value)
	for i, step := range p.Steps {
		assert.Equal(t, i+1, step.Index)
	}

	require.Len(t, provider.messages, 2)
	user := provider.messages[1].Content
	assert.Contains(t, user, "Intent: fill dosage")
	assert.Contains(t, user, `"id":"med"`)
	assert.Contains(t, user, `"patient": "p-1"`)
}

func TestCreatePlanInvalidRepliesFallBack(t *testing.T) {
	replies := map[string]string{
		"no json":        "I cannot help with that.",
		"bad json":       `{"task": "x", "steps": [}`,
		"no steps":       `{"task":"x","steps":[]}`,
		"unknown action": `{"task":"x","steps":[{"step":1,"action":"hover","target":"dose"}]}`,
		"unknown target": `{"task":"x","steps":[{"step":1,"action":"click","target":"ghost"}]}`,
		"missing target": `{"task":"x","steps":[{"step":1,"action":"fill","value":"10mg"}]}`,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			s := NewSynthesizer(WithProvider(&mockProvider{reply: reply}))
			p := s.CreatePlan(context.Background(), "read the page", catalogElements(), nil)
			assert.Equal(t, types.PlanSourceFallback, p.Source)
			assert.NotEmpty(t, p.Steps)
		})
	}
}

func TestCreatePlanProviderErrorFallsBack(t *testing.T) {
	provider := &mockProvider{err: errors.New("upstream unavailable")}
	s := NewSynthesizer(WithProvider(provider))
	p := s.CreatePlan(context.Background(), "click submit", catalogElements(), nil)
	assert.Equal(t, types.PlanSourceFallback, p.Source)
	assert.Equal(t, 1, provider.calls)
}

func TestCreatePlanDeadlineFallsBack(t *testing.T) {
	provider := &mockProvider{delay: 2 * time.Second, reply: `{"task":"x","steps":[{"step":1,"action":"read","target":"med"}]}`}
	s := NewSynthesizer(WithProvider(provider), WithReasoningTimeout(50*time.Millisecond))

	start := time.Now()
	p := s.CreatePlan(context.Background(), "read", catalogElements(), nil)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, types.PlanSourceFallback, p.Source)
}

func TestCreatePlanEmptyCatalogSkipsProvider(t *testing.T) {
	provider := &mockProvider{reply: `{}`}
	s := NewSynthesizer(WithProvider(provider))
	p := s.CreatePlan(context.Background(), "fill", nil, nil)
	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, "No elements available for: fill", p.Task)
}

func TestParseReplyNavigateTargetNeedNotBeCataloged(t *testing.T) {
	reply := `{"steps":[{"step":1,"action":"navigate","target":"page","value":"https://example.com/next"}]}`
	p, err := ParseReply(reply, "go to next", catalogElements())
	require.NoError(t, err)
	assert.Equal(t, "go to next", p.Task)
	assert.Equal(t, types.ActionNavigate, p.Steps[0].Action)
}

func TestParseReplyNavigateWithoutTarget(t *testing.T) {
	reply := `{"steps":[{"action":"navigate","value":"https://example.com/next"},{"action":"wait","value":"1"}]}`
	p, err := ParseReply(reply, "go to next", catalogElements())
	require.NoError(t, err)
	require.Len(t, p.Steps, 2)
	assert.Empty(t, p.Steps[0].Target)
	assert.NoError(t, p.Validate())
}

func TestParseReplyDefaultsEstimatedTime(t *testing.T) {
	reply := `{"steps":[{"action":"fill","target":"dose","value":"10mg"},{"action":"click","target":"submit"},{"action":"read","target":"med"}]}`
	p, err := ParseReply(reply, "fill dosage", catalogElements())
	require.NoError(t, err)
	assert.Equal(t, 6, p.EstimatedTime)
}

func TestPromptBudgetKeepsHighestConfidence(t *testing.T) {
	elements := []types.Element{
		{ID: "low", Type: "image", Label: strings.Repeat("x", 200)},
		{ID: "high", Type: "medication", Label: "Medication"},
	}
	b := promptBuilder{maxTokens: 30}
	prompt, omitted, err := b.build("read", Classify(elements), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, omitted)
	assert.Contains(t, prompt, `"id":"high"`)
	assert.NotContains(t, prompt, `"id":"low"`)
	assert.Contains(t, prompt, "1 lower-confidence elements omitted")
}
