package types

import (
	"sort"
	"strings"
)

// Element is a named, typed unit extracted by the upstream page analysis.
// Elements are addressed by ID and never modified by the planner or executor.
type Element struct {
	// ID is the stable identifier steps use to target this element.
	ID string `json:"id" yaml:"id"`

	// Type is the element kind reported by the analysis (button, input, dosage, ...).
	Type string `json:"type" yaml:"type"`

	// Label is the human-readable text associated with the element.
	Label string `json:"label" yaml:"label"`

	// Value is the current or extracted value, if the analysis found one.
	Value *string `json:"value,omitempty" yaml:"value,omitempty"`

	// Position is the element's bounding box on the analysed page.
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`

	// Confidence is the analysis' own reliability score. When set it
	// overrides the heuristic score.
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Position is a bounding box in page coordinates.
type Position struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Page   int     `json:"page,omitempty" yaml:"page,omitempty"`
}

// HasValue reports whether the element carries a non-empty value.
func (e Element) HasValue() bool {
	return e.Value != nil && strings.TrimSpace(*e.Value) != ""
}

// ValueOr returns the element value or def when none is present.
func (e Element) ValueOr(def string) string {
	if e.Value == nil {
		return def
	}
	return *e.Value
}

// NormalizedType returns the lower-cased, trimmed element type.
func (e Element) NormalizedType() string {
	return strings.ToLower(strings.TrimSpace(e.Type))
}

var (
	// entryTypes accept typed input.
	entryTypes = setOf("input", "textarea", "text_field", "field", "email", "password",
		"number", "date", "dosage", "medication", "frequency")

	// activationTypes respond to a click.
	activationTypes = setOf("button", "link", "submit", "checkbox", "radio", "tab", "menu_item")
)

// IsEntryType reports whether elements of this type can be filled.
func IsEntryType(elementType string) bool {
	_, ok := entryTypes[strings.ToLower(strings.TrimSpace(elementType))]
	return ok
}

// IsActivationType reports whether elements of this type can be clicked.
func IsActivationType(elementType string) bool {
	_, ok := activationTypes[strings.ToLower(strings.TrimSpace(elementType))]
	return ok
}

// EntryTypes returns the fillable element types in sorted order.
func EntryTypes() []string {
	return sortedKeys(entryTypes)
}

// ActivationTypes returns the clickable element types in sorted order.
func ActivationTypes() []string {
	return sortedKeys(activationTypes)
}

func setOf(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 {
	return &f
}
