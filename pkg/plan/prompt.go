package plan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/entrhq/pagepilot/pkg/llm/tokenizer"
	"github.com/entrhq/pagepilot/pkg/types"
)

// DefaultMaxPromptTokens bounds the element catalog section of the prompt.
const DefaultMaxPromptTokens = 6000

const systemPrompt = `You plan browser interactions for a page that has already been analysed.

You receive a user intent and a catalog of page elements. Reply with a single JSON object and nothing else:

{
  "task": "<short restatement of the intent>",
  "steps": [
    {"step": 1, "action": "<click|fill|select|navigate|wait|read>", "target": "<element id>", "value": "<optional>", "description": "<optional>"}
  ],
  "estimated_time": <optional seconds>
}

Rules:
- Use only element ids from the catalog as targets.
- fill needs the text to enter as value; select needs the option as value.
- navigate needs an absolute http(s) URL as value; wait needs a number of seconds as value.
- Steps run strictly in order. Prefer reading an element over acting on it when its confidence is below 0.7.
- Do not invent elements, actions or fields.`

// promptElement is the catalog entry shape sent to the reasoning provider.
type promptElement struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Label      string  `json:"label"`
	Value      *string `json:"value,omitempty"`
	Confidence float64 `json:"confidence"`
}

// promptBuilder renders the user prompt within a token budget.
type promptBuilder struct {
	tokenizer *tokenizer.Tokenizer
	maxTokens int
}

// build returns the user prompt and how many elements were left out to fit
// the budget. The highest-confidence elements are kept; kept elements stay
// in catalog order.
func (b promptBuilder) build(intent string, scored []Scored, planCtx map[string]interface{}) (string, int, error) {
	lines := make([]string, len(scored))
	for i, s := range scored {
		line, err := json.Marshal(promptElement{
			ID:         s.Element.ID,
			Type:       s.Element.Type,
			Label:      s.Element.Label,
			Value:      s.Element.Value,
			Confidence: roundScore(s.Confidence),
		})
		if err != nil {
			return "", 0, fmt.Errorf("failed to encode element %s: %w", s.Element.ID, err)
		}
		lines[i] = string(line)
	}

	order := make([]int, len(scored))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scored[order[a]].Confidence > scored[order[b]].Confidence
	})

	keep := make([]bool, len(scored))
	used, kept := 0, 0
	for _, idx := range order {
		cost := b.tokenizer.CountTokens(lines[idx]) + 1
		if b.maxTokens > 0 && used+cost > b.maxTokens {
			continue
		}
		used += cost
		keep[idx] = true
		kept++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Intent: %s\n\n", intent)
	sb.WriteString("Elements (one JSON object per line):\n")
	for i, line := range lines {
		if keep[i] {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	omitted := len(scored) - kept
	if omitted > 0 {
		fmt.Fprintf(&sb, "(%d lower-confidence elements omitted)\n", omitted)
	}

	if len(planCtx) > 0 {
		ctxJSON, err := json.MarshalIndent(planCtx, "", "  ")
		if err != nil {
			return "", 0, fmt.Errorf("failed to encode context: %w", err)
		}
		fmt.Fprintf(&sb, "\nContext:\n%s\n", ctxJSON)
	}

	return sb.String(), omitted, nil
}

func roundScore(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// messages assembles the conversation for one planning call.
func (b promptBuilder) messages(intent string, scored []Scored, planCtx map[string]interface{}) ([]*types.Message, int, error) {
	user, omitted, err := b.build(intent, scored, planCtx)
	if err != nil {
		return nil, 0, err
	}
	return []*types.Message{
		types.NewSystemMessage(systemPrompt),
		types.NewUserMessage(user),
	}, omitted, nil
}
