package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Action is the operation an ActionStep performs. The set is closed: any
// value outside it is rejected at decode time.
type Action string

const (
	ActionClick    Action = "click"    // ActionClick clicks the target element.
	ActionFill     Action = "fill"     // ActionFill replaces the target's content with the step value.
	ActionSelect   Action = "select"   // ActionSelect chooses the option named by the step value.
	ActionNavigate Action = "navigate" // ActionNavigate loads the URL in the step value.
	ActionWait     Action = "wait"     // ActionWait pauses for the number of seconds in the step value.
	ActionRead     Action = "read"     // ActionRead reads the target's visible text.
)

// Actions lists every supported action in a stable order.
var Actions = []Action{ActionClick, ActionFill, ActionSelect, ActionNavigate, ActionWait, ActionRead}

// ParseAction converts a case-insensitive action name into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// Valid reports whether a is one of the supported actions.
func (a Action) Valid() bool {
	switch a {
	case ActionClick, ActionFill, ActionSelect, ActionNavigate, ActionWait, ActionRead:
		return true
	}
	return false
}

// NeedsTarget reports whether the action operates on a resolved page element.
// Navigate and wait act on the page as a whole.
func (a Action) NeedsTarget() bool {
	return a != ActionNavigate && a != ActionWait
}

// UnmarshalJSON decodes an action name, rejecting unknown values.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("action must be a string: %w", err)
	}
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// UnmarshalYAML decodes an action name from YAML, rejecting unknown values.
func (a *Action) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ActionStep is one atomic operation against one element.
type ActionStep struct {
	// Index is the 1-based position of the step in its plan.
	Index int `json:"step" yaml:"step"`

	Action Action `json:"action" yaml:"action"`

	// Target is the Element.ID the step operates on.
	Target string `json:"target" yaml:"target"`

	// Value is the fill text, option, URL or wait duration depending on Action.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// UnmarshalJSON accepts numeric values as well as strings for the value
// field, since reasoning providers often emit `"value": 2` for waits.
func (s *ActionStep) UnmarshalJSON(data []byte) error {
	type alias ActionStep
	var raw struct {
		alias
		Value json.RawMessage `json:"value,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ActionStep(raw.alias)
	s.Value = ""

	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(raw.Value, &str); err == nil {
		s.Value = str
		return nil
	}
	var num float64
	if err := json.Unmarshal(raw.Value, &num); err != nil {
		return fmt.Errorf("step %d: value must be a string or number", s.Index)
	}
	s.Value = strconv.FormatFloat(num, 'f', -1, 64)
	return nil
}

// PlanSource records which synthesis path produced a plan.
type PlanSource string

const (
	PlanSourceReasoning PlanSource = "reasoning" // PlanSourceReasoning marks plans produced by the reasoning provider.
	PlanSourceFallback  PlanSource = "fallback"  // PlanSourceFallback marks plans produced by the deterministic fallback.
	PlanSourceManual    PlanSource = "manual"    // PlanSourceManual marks plans loaded from a human-edited file.
)

// ActionPlan is an ordered list of steps plus metadata. Steps always run in
// order; later steps may depend on page state produced by earlier ones.
type ActionPlan struct {
	Task  string       `json:"task" yaml:"task"`
	Steps []ActionStep `json:"steps" yaml:"steps"`

	// EstimatedTime is the expected run time in seconds.
	EstimatedTime int `json:"estimated_time,omitempty" yaml:"estimated_time,omitempty"`

	Source PlanSource `json:"source,omitempty" yaml:"source,omitempty"`
}

// Renumber rewrites step indices to 1..n in slice order.
func (p *ActionPlan) Renumber() {
	for i := range p.Steps {
		p.Steps[i].Index = i + 1
	}
}

// Validate checks that step indices are sequential and every action is known.
func (p *ActionPlan) Validate() error {
	for i, step := range p.Steps {
		if step.Index != i+1 {
			return fmt.Errorf("step %d has index %d, want %d", i+1, step.Index, i+1)
		}
		if !step.Action.Valid() {
			return fmt.Errorf("step %d: unknown action %q", step.Index, step.Action)
		}
		if strings.TrimSpace(step.Target) == "" && step.Action.NeedsTarget() {
			return fmt.Errorf("step %d: %s requires a target", step.Index, step.Action)
		}
	}
	return nil
}
