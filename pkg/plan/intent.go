package plan

import (
	"strings"

	"github.com/entrhq/pagepilot/pkg/types"
)

// Intent is the action class inferred from a free-text user intent.
type Intent string

const (
	IntentFill     Intent = "fill"
	IntentClick    Intent = "click"
	IntentNavigate Intent = "navigate"
	IntentRead     Intent = "read"
)

var (
	fillKeywords     = []string{"fill", "enter", "type", "input", "complete", "write", "submit form"}
	clickKeywords    = []string{"click", "press", "tap", "submit", "select button", "choose"}
	navigateKeywords = []string{"go to", "navigate", "open", "visit"}
)

// ClassifyIntent infers the action class from intent keywords. Classes are
// checked in the order fill, click, navigate; anything else reads.
func ClassifyIntent(intent string) Intent {
	lower := strings.ToLower(intent)
	switch {
	case containsAny(lower, fillKeywords):
		return IntentFill
	case containsAny(lower, clickKeywords):
		return IntentClick
	case containsAny(lower, navigateKeywords):
		return IntentNavigate
	default:
		return IntentRead
	}
}

// IsEntryType reports whether elements of this type can be filled. The
// resolver builds input selectors for the same set.
func IsEntryType(elementType string) bool {
	return types.IsEntryType(elementType)
}

// IsActivationType reports whether elements of this type can be clicked.
func IsActivationType(elementType string) bool {
	return types.IsActivationType(elementType)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
