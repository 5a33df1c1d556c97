package plan

import "github.com/entrhq/pagepilot/pkg/types"

// DefaultTypeScore is the base score for element types with no entry in the
// type table.
const DefaultTypeScore = 0.3

const (
	valueBonus    = 0.1
	positionBonus = 0.1
	labelBonus    = 0.05

	// labelBonusMinLen is the label length that must be exceeded to earn
	// labelBonus.
	labelBonusMinLen = 3
)

// typeScores holds the base reliability of each known element type.
// Domain-specific roles score highest, generic text lowest.
var typeScores = map[string]float64{
	"medication":   0.9,
	"dosage":       0.9,
	"frequency":    0.85,
	"patient_name": 0.85,
	"date":         0.8,
	"button":       0.8,
	"input":        0.75,
	"select":       0.75,
	"checkbox":     0.7,
	"link":         0.7,
	"textarea":     0.7,
	"radio":        0.7,
	"heading":      0.6,
	"label":        0.6,
	"text":         0.5,
	"image":        0.4,
}

// TypeScore returns the base score for an element type. Lookup is
// case-insensitive; unknown types get DefaultTypeScore.
func TypeScore(elementType string) float64 {
	e := types.Element{Type: elementType}
	if score, ok := typeScores[e.NormalizedType()]; ok {
		return score
	}
	return DefaultTypeScore
}

// Confidence scores how trustworthy an element's identity is, in [0, 1].
//
// An explicit Element.Confidence is returned unchanged. Otherwise the type's
// base score is raised by bonuses for a value, a position and a descriptive
// label, and capped at 1.
func Confidence(e types.Element) float64 {
	if e.Confidence != nil {
		return *e.Confidence
	}

	score := TypeScore(e.Type)
	if e.HasValue() {
		score += valueBonus
	}
	if e.Position != nil {
		score += positionBonus
	}
	if len([]rune(e.Label)) > labelBonusMinLen {
		score += labelBonus
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Band classifies a confidence score.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

const (
	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// BandOf maps a score to its band: high >= 0.7, medium >= 0.4, low otherwise.
func BandOf(score float64) Band {
	switch {
	case score >= highThreshold:
		return BandHigh
	case score >= mediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// Scored pairs an element with its computed confidence.
type Scored struct {
	Element    types.Element
	Confidence float64
	Band       Band
}

// Classify scores every element, preserving input order.
func Classify(elements []types.Element) []Scored {
	out := make([]Scored, len(elements))
	for i, e := range elements {
		c := Confidence(e)
		out[i] = Scored{Element: e, Confidence: c, Band: BandOf(c)}
	}
	return out
}
