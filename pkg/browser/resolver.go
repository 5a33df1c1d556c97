package browser

import (
	"fmt"
	"strings"

	"github.com/entrhq/pagepilot/pkg/types"
)

// Strategy derives one candidate selector from an element. An empty string
// means the strategy does not apply.
type Strategy func(types.Element) string

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote escapes s for use inside a double-quoted selector string.
func quote(s string) string {
	return quoteEscaper.Replace(strings.TrimSpace(s))
}

// labelKey turns a label into the name/id form pages commonly use for it.
func labelKey(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

// withLabel builds a strategy from a format taking the quoted label.
func withLabel(format string) Strategy {
	return func(e types.Element) string {
		if strings.TrimSpace(e.Label) == "" {
			return ""
		}
		return strings.ReplaceAll(format, "%L", quote(e.Label))
	}
}

// withKey builds a strategy from a format taking the quoted label key.
func withKey(format string) Strategy {
	return func(e types.Element) string {
		key := labelKey(e.Label)
		if key == "" {
			return ""
		}
		return strings.ReplaceAll(format, "%K", quote(key))
	}
}

func fixed(selector string) Strategy {
	return func(types.Element) string { return selector }
}

var (
	buttonStrategies = []Strategy{
		withLabel(`text="%L"`),
		withLabel(`[aria-label*="%L" i]`),
		withLabel(`input[type="button"][value*="%L"], input[type="submit"][value*="%L"]`),
		withLabel(`role=button[name="%L"]`),
	}

	inputStrategies = []Strategy{
		withLabel(`[placeholder*="%L" i]`),
		withKey(`[name="%K"], [id="%K"]`),
		withLabel(`label:has-text("%L") + input, label:has-text("%L") + textarea`),
	}

	linkStrategies = []Strategy{
		withLabel(`a:has-text("%L")`),
		withKey(`a[href*="%K"]`),
	}

	selectStrategies = []Strategy{
		withKey(`select[name="%K"], select[id="%K"]`),
		withLabel(`label:has-text("%L") + select`),
	}
)

// StrategiesFor returns the ordered strategies for an element type. Entry
// types share the input cascade and clickable types the button cascade.
// Types without a dedicated cascade get one generic selector that matches
// the smallest element carrying the label, never its ancestors.
func StrategiesFor(elementType string) []Strategy {
	t := strings.ToLower(strings.TrimSpace(elementType))
	switch t {
	case "button", "submit", "tab", "menu_item":
		return buttonStrategies
	case "link":
		return linkStrategies
	case "select":
		return selectStrategies
	case "checkbox":
		return []Strategy{fixed(`input[type="checkbox"]`)}
	case "radio":
		return []Strategy{fixed(`input[type="radio"]`)}
	case "image":
		return []Strategy{fixed("img")}
	case "heading":
		return []Strategy{fixed("h1, h2, h3, h4, h5, h6")}
	}

	if types.IsEntryType(t) {
		if _, ok := htmlInputTypes[t]; ok {
			return append(inputStrategies[:len(inputStrategies):len(inputStrategies)],
				fixed(`input[type="`+t+`"]`))
		}
		return inputStrategies
	}
	return []Strategy{withLabel(`:text("%L")`)}
}

// htmlInputTypes are entry types that double as an <input> type attribute.
var htmlInputTypes = map[string]struct{}{
	"email":    {},
	"password": {},
	"number":   {},
	"date":     {},
}

// Candidates applies the strategies for e's type, dropping empty results.
func Candidates(e types.Element) []string {
	return candidatesFrom(StrategiesFor(e.Type), e)
}

func candidatesFrom(strategies []Strategy, e types.Element) []string {
	out := make([]string, 0, len(strategies))
	for _, s := range strategies {
		if sel := s(e); sel != "" {
			out = append(out, sel)
		}
	}
	return out
}

// LastResort is the exact text match tried after every strategy failed.
func LastResort(e types.Element) string {
	return withLabel(`text="%L"`)(e)
}

// FirstMatch returns the first candidate with at least one live match.
// Count errors are treated as no match.
func FirstMatch(page Counter, candidates []string) (string, bool) {
	for _, sel := range candidates {
		if sel == "" {
			continue
		}
		if n, err := page.Count(sel); err == nil && n >= 1 {
			return sel, true
		}
	}
	return "", false
}

// ElementLookup finds cataloged elements by id. *catalog.Catalog satisfies it.
type ElementLookup interface {
	Lookup(id string) (types.Element, bool)
}

// Resolver maps step targets to live selectors.
type Resolver struct {
	strategies func(elementType string) []Strategy
}

// NewResolver creates a Resolver using StrategiesFor.
func NewResolver() *Resolver {
	return &Resolver{strategies: StrategiesFor}
}

// WithStrategies returns a resolver that builds candidates with fn.
func (r *Resolver) WithStrategies(fn func(elementType string) []Strategy) *Resolver {
	return &Resolver{strategies: fn}
}

func (r *Resolver) candidates(e types.Element) []string {
	if r == nil || r.strategies == nil {
		return Candidates(e)
	}
	return candidatesFrom(r.strategies(e.Type), e)
}

// Find resolves targetID through its type's strategy cascade. It returns
// false when the id is not cataloged or no candidate matches.
func (r *Resolver) Find(targetID string, elements ElementLookup, page Counter) (string, bool) {
	e, ok := lookup(elements, targetID)
	if !ok {
		return "", false
	}
	return FirstMatch(page, r.candidates(e))
}

// Resolve runs Find and then the last-resort text match, returning an
// ErrElementNotResolved error describing why nothing matched.
func (r *Resolver) Resolve(targetID string, elements ElementLookup, page Counter) (string, error) {
	e, ok := lookup(elements, targetID)
	if !ok {
		return "", fmt.Errorf("%w: target %q is not in the catalog", ErrElementNotResolved, targetID)
	}
	if sel, ok := FirstMatch(page, r.candidates(e)); ok {
		return sel, nil
	}
	if sel, ok := FirstMatch(page, []string{LastResort(e)}); ok {
		return sel, nil
	}
	return "", fmt.Errorf("%w: no selector matched %s %q", ErrElementNotResolved, e.NormalizedType(), e.Label)
}

func lookup(elements ElementLookup, id string) (types.Element, bool) {
	if elements == nil {
		return types.Element{}, false
	}
	return elements.Lookup(id)
}
