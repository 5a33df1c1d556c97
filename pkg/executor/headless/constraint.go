package headless

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/pagepilot/pkg/types"
)

// ConstraintConfig defines safety limits applied to a plan before it runs
type ConstraintConfig struct {
	// MaxSteps caps the plan length. Zero means no limit.
	MaxSteps int `yaml:"max_steps" json:"max_steps"`

	// AllowedActions restricts the actions a plan may use. Empty allows all.
	AllowedActions []string `yaml:"allowed_actions" json:"allowed_actions"`

	// Target id patterns (glob syntax). Denied patterns take precedence.
	AllowedTargets []string `yaml:"allowed_targets" json:"allowed_targets"`
	DeniedTargets  []string `yaml:"denied_targets" json:"denied_targets"`
}

// ConstraintManager checks plans against the configured limits
type ConstraintManager struct {
	config  *ConstraintConfig
	actions map[types.Action]bool

	// Pattern matching
	patternMatcher *PatternMatcher
}

// ConstraintViolation represents a constraint violation error
type ConstraintViolation struct {
	Type    ViolationType
	Message string
	Details map[string]interface{}
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation (%s): %s", e.Type, e.Message)
}

// ViolationType identifies the type of constraint that was violated
type ViolationType string

const (
	ViolationStepCount         ViolationType = "step_count"
	ViolationActionRestriction ViolationType = "action_restriction"
	ViolationTargetPattern     ViolationType = "target_pattern"
)

// NewConstraintManager creates a new constraint manager
func NewConstraintManager(config ConstraintConfig) (*ConstraintManager, error) {
	patternMatcher, err := NewPatternMatcher(config.AllowedTargets, config.DeniedTargets)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern matcher: %w", err)
	}

	var actions map[types.Action]bool
	if len(config.AllowedActions) > 0 {
		actions = make(map[types.Action]bool, len(config.AllowedActions))
		for _, name := range config.AllowedActions {
			a, err := types.ParseAction(name)
			if err != nil {
				return nil, fmt.Errorf("invalid allowed action: %w", err)
			}
			actions[a] = true
		}
	}

	return &ConstraintManager{
		config:         &config,
		actions:        actions,
		patternMatcher: patternMatcher,
	}, nil
}

// ValidatePlan returns the first violation in p, or nil
func (cm *ConstraintManager) ValidatePlan(p *types.ActionPlan) error {
	if cm.config.MaxSteps > 0 && len(p.Steps) > cm.config.MaxSteps {
		return &ConstraintViolation{
			Type:    ViolationStepCount,
			Message: fmt.Sprintf("plan has %d steps, limit is %d", len(p.Steps), cm.config.MaxSteps),
			Details: map[string]interface{}{
				"steps":     len(p.Steps),
				"max_steps": cm.config.MaxSteps,
			},
		}
	}

	for _, step := range p.Steps {
		if err := cm.ValidateStep(step); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStep validates a single step against action and target rules
func (cm *ConstraintManager) ValidateStep(step types.ActionStep) error {
	if cm.actions != nil && !cm.actions[step.Action] {
		return &ConstraintViolation{
			Type:    ViolationActionRestriction,
			Message: fmt.Sprintf("step %d: action '%s' is not in allowed actions list", step.Index, step.Action),
			Details: map[string]interface{}{
				"step":            step.Index,
				"action":          string(step.Action),
				"allowed_actions": cm.config.AllowedActions,
			},
		}
	}

	// Navigate and wait targets are not page elements.
	if step.Action.NeedsTarget() && !cm.patternMatcher.IsAllowed(step.Target) {
		return &ConstraintViolation{
			Type:    ViolationTargetPattern,
			Message: fmt.Sprintf("step %d: target '%s' does not match allowed patterns", step.Index, step.Target),
			Details: map[string]interface{}{
				"step":            step.Index,
				"target":          step.Target,
				"allowed_targets": cm.config.AllowedTargets,
				"denied_targets":  cm.config.DeniedTargets,
			},
		}
	}

	return nil
}

// PatternMatcher handles glob pattern matching for element ids
type PatternMatcher struct {
	allowedPatterns []glob.Glob
	deniedPatterns  []glob.Glob
}

// NewPatternMatcher creates a new pattern matcher
func NewPatternMatcher(allowed, denied []string) (*PatternMatcher, error) {
	pm := &PatternMatcher{}

	// Compile allowed patterns
	for _, pattern := range allowed {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern '%s': %w", pattern, err)
		}
		pm.allowedPatterns = append(pm.allowedPatterns, g)
	}

	// Compile denied patterns
	for _, pattern := range denied {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid denied pattern '%s': %w", pattern, err)
		}
		pm.deniedPatterns = append(pm.deniedPatterns, g)
	}

	return pm, nil
}

// IsAllowed returns true if the id is allowed by the pattern rules
func (pm *PatternMatcher) IsAllowed(id string) bool {
	id = strings.TrimSpace(id)

	// Denied patterns take precedence
	for _, pattern := range pm.deniedPatterns {
		if pattern.Match(id) {
			return false
		}
	}

	// If no allowed patterns specified, allow all (except denied)
	if len(pm.allowedPatterns) == 0 {
		return true
	}

	for _, pattern := range pm.allowedPatterns {
		if pattern.Match(id) {
			return true
		}
	}

	return false
}
