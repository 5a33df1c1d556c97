// Package plan turns a user intent and an element catalog into an ordered
// action plan.
//
// The Synthesizer asks a reasoning provider for a plan and validates the
// reply. Any provider failure, deadline overrun or structurally invalid reply
// is logged and replaced by FallbackPlan, so CreatePlan always returns a
// usable plan.
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/pagepilot/pkg/llm"
	"github.com/entrhq/pagepilot/pkg/llm/parser"
	"github.com/entrhq/pagepilot/pkg/llm/tokenizer"
	"github.com/entrhq/pagepilot/pkg/logging"
	"github.com/entrhq/pagepilot/pkg/types"
)

// DefaultReasoningTimeout bounds one reasoning call.
const DefaultReasoningTimeout = 20 * time.Second

// ErrSynthesis marks a failed reasoning attempt. It is never returned by
// CreatePlan; it is logged and the fallback plan is used instead.
var ErrSynthesis = errors.New("plan synthesis failed")

// Synthesizer builds action plans.
type Synthesizer struct {
	provider         llm.Provider
	tokenizer        *tokenizer.Tokenizer
	logger           *logging.Logger
	reasoningTimeout time.Duration
	maxPromptTokens  int
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithProvider sets the reasoning provider. Without one, every plan comes
// from the fallback.
func WithProvider(p llm.Provider) Option {
	return func(s *Synthesizer) {
		s.provider = p
	}
}

// WithTokenizer sets the tokenizer used to budget the prompt.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(s *Synthesizer) {
		s.tokenizer = t
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReasoningTimeout sets the deadline for one reasoning call.
func WithReasoningTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d > 0 {
			s.reasoningTimeout = d
		}
	}
}

// WithMaxPromptTokens caps the tokens spent on the element catalog.
func WithMaxPromptTokens(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxPromptTokens = n
		}
	}
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		logger:           logging.Discard("synthesizer"),
		reasoningTimeout: DefaultReasoningTimeout,
		maxPromptTokens:  DefaultMaxPromptTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePlan returns a plan for intent over elements. planCtx is optional
// structured context passed through to the reasoning provider.
func (s *Synthesizer) CreatePlan(ctx context.Context, intent string, elements []types.Element, planCtx map[string]interface{}) *types.ActionPlan {
	if s.provider != nil && len(elements) > 0 {
		start := time.Now()
		p, err := s.reason(ctx, intent, elements, planCtx)
		if err == nil {
			s.logger.Infof("Reasoning plan accepted: %d steps in %s", len(p.Steps), time.Since(start).Round(time.Millisecond))
			return p
		}
		s.logger.Warnf("Falling back to deterministic plan: %v", err)
	}

	p := FallbackPlan(intent, elements)
	s.logger.Infof("Fallback plan built: %d steps from %d elements", len(p.Steps), len(elements))
	return p
}

func (s *Synthesizer) reason(ctx context.Context, intent string, elements []types.Element, planCtx map[string]interface{}) (*types.ActionPlan, error) {
	builder := promptBuilder{tokenizer: s.tokenizer, maxTokens: s.maxPromptTokens}
	messages, omitted, err := builder.messages(intent, Classify(elements), planCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	if omitted > 0 {
		s.logger.Debugf("Prompt budget of %d tokens left out %d elements", s.maxPromptTokens, omitted)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.reasoningTimeout)
	defer cancel()

	reply, err := s.complete(callCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	p, err := ParseReply(reply, intent, elements)
	if err != nil {
		s.logger.Debugf("Rejected reply: %s", truncate(reply, 500))
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	return p, nil
}

// complete runs the provider call but returns as soon as ctx is done, even if
// the provider does not honour cancellation.
func (s *Synthesizer) complete(ctx context.Context, messages []*types.Message) (string, error) {
	type result struct {
		msg *types.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := s.provider.Complete(ctx, messages)
		done <- result{msg, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("reasoning call: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("reasoning call: %w", r.err)
		}
		if r.msg == nil {
			return "", errors.New("reasoning call returned no message")
		}
		return r.msg.Content, nil
	}
}

// ParseReply decodes a provider reply into a plan and checks its structure:
// at least one step, known actions, and targets that exist in elements.
// Navigate and wait steps may omit the target or name an uncataloged one.
// Steps are renumbered in reply order and a missing estimated_time is
// derived from the step count.
func ParseReply(reply, intent string, elements []types.Element) (*types.ActionPlan, error) {
	raw := parser.ExtractJSONObject(parser.StripThinking(reply))
	if raw == "" {
		return nil, errors.New("reply contains no JSON object")
	}

	var p types.ActionPlan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("invalid plan JSON: %w", err)
	}
	if len(p.Steps) == 0 {
		return nil, errors.New("plan has no steps")
	}

	known := make(map[string]struct{}, len(elements))
	for _, e := range elements {
		known[e.ID] = struct{}{}
	}

	for i, step := range p.Steps {
		if !step.Action.Valid() {
			return nil, fmt.Errorf("step %d: missing or unknown action", i+1)
		}
		if !step.Action.NeedsTarget() {
			continue
		}
		if strings.TrimSpace(step.Target) == "" {
			return nil, fmt.Errorf("step %d: %s has no target", i+1, step.Action)
		}
		if _, ok := known[step.Target]; !ok {
			return nil, fmt.Errorf("step %d: target %q is not in the catalog", i+1, step.Target)
		}
	}

	p.Renumber()
	if p.EstimatedTime <= 0 {
		p.EstimatedTime = len(p.Steps) * secondsPerStep
	}
	if strings.TrimSpace(p.Task) == "" {
		p.Task = intent
	}
	p.Source = types.PlanSourceReasoning
	return &p, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
