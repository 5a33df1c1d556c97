package plan

import (
	"fmt"

	"github.com/entrhq/pagepilot/pkg/types"
)

const (
	maxHighSteps   = 10
	maxMediumSteps = 5
	maxLowSteps    = 3

	// minSteps is the plan length below which low-confidence reads are added.
	minSteps = 3

	// secondsPerStep feeds the estimated_time of fallback plans.
	secondsPerStep = 2
)

// FallbackPlan builds a plan without the reasoning provider.
//
// High-confidence elements get the action the intent asks for when their
// type allows it, medium-confidence elements are only read (with a verify
// note where the intent would have acted on them), and low-confidence
// elements pad short plans. The result has at least one step whenever
// elements is non-empty.
func FallbackPlan(intent string, elements []types.Element) *types.ActionPlan {
	if len(elements) == 0 {
		return &types.ActionPlan{
			Task:   fmt.Sprintf("No elements available for: %s", intent),
			Steps:  []types.ActionStep{},
			Source: types.PlanSourceFallback,
		}
	}

	scored := Classify(elements)
	class := ClassifyIntent(intent)
	b := &stepBuilder{}

	high, medium, low := 0, 0, 0
	for _, s := range scored {
		if s.Band != BandHigh || high >= maxHighSteps {
			continue
		}
		high++
		b.add(highConfidenceStep(class, s))
	}

	for _, s := range scored {
		if s.Band != BandMedium || medium >= maxMediumSteps {
			continue
		}
		medium++
		b.add(mediumConfidenceStep(class, s))
	}

	if len(b.steps) < minSteps {
		for _, s := range scored {
			if s.Band != BandLow || low >= maxLowSteps {
				continue
			}
			low++
			b.add(readStep(s))
		}
	}

	if len(b.steps) == 0 {
		best := scored[0]
		for _, s := range scored[1:] {
			if s.Confidence > best.Confidence {
				best = s
			}
		}
		b.add(readStep(best))
	}

	return &types.ActionPlan{
		Task:          intent,
		Steps:         b.steps,
		EstimatedTime: len(b.steps) * secondsPerStep,
		Source:        types.PlanSourceFallback,
	}
}

type stepBuilder struct {
	steps []types.ActionStep
}

func (b *stepBuilder) add(step types.ActionStep) {
	step.Index = len(b.steps) + 1
	b.steps = append(b.steps, step)
}

func highConfidenceStep(class Intent, s Scored) types.ActionStep {
	e := s.Element
	switch {
	case class == IntentFill && IsEntryType(e.Type):
		return types.ActionStep{
			Action:      types.ActionFill,
			Target:      e.ID,
			Value:       e.ValueOr(""),
			Description: fmt.Sprintf("Fill %s (confidence %.2f)", e.Label, s.Confidence),
		}
	case class == IntentClick && IsActivationType(e.Type):
		return types.ActionStep{
			Action:      types.ActionClick,
			Target:      e.ID,
			Description: fmt.Sprintf("Click %s (confidence %.2f)", e.Label, s.Confidence),
		}
	default:
		return readStep(s)
	}
}

// mediumConfidenceStep never acts on the page. Where the intent would have
// filled or clicked, the read is phrased as a verification for the operator.
func mediumConfidenceStep(class Intent, s Scored) types.ActionStep {
	e := s.Element
	switch {
	case class == IntentFill && IsEntryType(e.Type):
		return types.ActionStep{
			Action:      types.ActionRead,
			Target:      e.ID,
			Description: fmt.Sprintf("Verify %s before filling", e.Label),
		}
	case class == IntentClick && IsActivationType(e.Type):
		return types.ActionStep{
			Action:      types.ActionRead,
			Target:      e.ID,
			Description: fmt.Sprintf("Verify %s before clicking", e.Label),
		}
	default:
		return readStep(s)
	}
}

func readStep(s Scored) types.ActionStep {
	return types.ActionStep{
		Action:      types.ActionRead,
		Target:      s.Element.ID,
		Description: fmt.Sprintf("Read %s (confidence %.2f)", s.Element.Label, s.Confidence),
	}
}
