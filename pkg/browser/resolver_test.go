package browser

import (
	"errors"
	"testing"

	"github.com/entrhq/pagepilot/pkg/catalog"
	"github.com/entrhq/pagepilot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatesByType(t *testing.T) {
	tests := []struct {
		name string
		el   types.Element
		want []string
	}{
		{
			name: "button",
			el:   types.Element{Type: "Button", Label: "Submit"},
			want: []string{
				`text="Submit"`,
				`[aria-label*="Submit" i]`,
				`input[type="button"][value*="Submit"], input[type="submit"][value*="Submit"]`,
				`role=button[name="Submit"]`,
			},
		},
		{
			name: "input",
			el:   types.Element{Type: "input", Label: "First Name"},
			want: []string{
				`[placeholder*="First Name" i]`,
				`[name="first_name"], [id="first_name"]`,
				`label:has-text("First Name") + input, label:has-text("First Name") + textarea`,
			},
		},
		{
			name: "link",
			el:   types.Element{Type: "link", Label: "Refill Rx"},
			want: []string{`a:has-text("Refill Rx")`, `a[href*="refill_rx"]`},
		},
		{
			name: "select",
			el:   types.Element{Type: "select", Label: "Pharmacy"},
			want: []string{`select[name="pharmacy"], select[id="pharmacy"]`, `label:has-text("Pharmacy") + select`},
		},
		{"checkbox", types.Element{Type: "checkbox", Label: "Agree"}, []string{`input[type="checkbox"]`}},
		{"radio", types.Element{Type: "radio", Label: "Yes"}, []string{`input[type="radio"]`}},
		{"image", types.Element{Type: "image", Label: "Logo"}, []string{"img"}},
		{"heading", types.Element{Type: "heading", Label: "Title"}, []string{"h1, h2, h3, h4, h5, h6"}},
		{
			name: "email input",
			el:   types.Element{Type: "email", Label: "Email"},
			want: []string{
				`[placeholder*="Email" i]`,
				`[name="email"], [id="email"]`,
				`label:has-text("Email") + input, label:has-text("Email") + textarea`,
				`input[type="email"]`,
			},
		},
		{"submit", types.Element{Type: "submit", Label: "Send"}, []string{
			`text="Send"`,
			`[aria-label*="Send" i]`,
			`input[type="button"][value*="Send"], input[type="submit"][value*="Send"]`,
			`role=button[name="Send"]`,
		}},
		{"unmapped", types.Element{Type: "text", Label: "Total"}, []string{`:text("Total")`}},
		{"empty label", types.Element{Type: "button", Label: "  "}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(tt.el))
		})
	}
}

func TestCandidatesForEntryTypes(t *testing.T) {
	input := Candidates(types.Element{Type: "input", Label: "Dosage"})

	for _, typ := range types.EntryTypes() {
		t.Run(typ, func(t *testing.T) {
			got := Candidates(types.Element{Type: typ, Label: "Dosage"})
			require.GreaterOrEqual(t, len(got), len(input))
			assert.Equal(t, input, got[:len(input)], "entry types use the input cascade")
		})
	}
}

func TestCandidatesForActivationTypes(t *testing.T) {
	for _, typ := range types.ActivationTypes() {
		t.Run(typ, func(t *testing.T) {
			got := Candidates(types.Element{Type: typ, Label: "Continue"})
			assert.NotEmpty(t, got)
			assert.NotEqual(t, Candidates(types.Element{Type: "unknown_kind", Label: "Continue"}), got)
		})
	}
}

func TestCandidatesNeverMatchAncestors(t *testing.T) {
	kinds := append(types.EntryTypes(), types.ActivationTypes()...)
	kinds = append(kinds, "text", "medication_label", "")

	for _, typ := range kinds {
		for _, sel := range Candidates(types.Element{Type: typ, Label: "Refill"}) {
			assert.NotContains(t, sel, "*:has-text", "type %q", typ)
		}
	}
}

func TestResolveDosageFillUsesInputSelector(t *testing.T) {
	cat := catalog.New("form", []types.Element{{ID: "d1", Type: "dosage", Label: "Dosage"}})
	page := newFakePage()
	page.counts[`[name="dosage"], [id="dosage"]`] = 1
	page.counts[`text="Dosage"`] = 1

	sel, err := NewResolver().Resolve("d1", cat, page)
	require.NoError(t, err)
	assert.Equal(t, `[name="dosage"], [id="dosage"]`, sel)
}

func TestLabelEscaping(t *testing.T) {
	e := types.Element{Type: "button", Label: `Say "hi" \ now`}
	assert.Equal(t, `text="Say \"hi\" \\ now"`, Candidates(e)[0])
	assert.Equal(t, `text="Say \"hi\" \\ now"`, LastResort(e))
}

func TestFirstMatch(t *testing.T) {
	page := newFakePage()
	page.counts["b"] = 2
	page.counts["c"] = 1
	page.countErr["a"] = errors.New("malformed selector")

	sel, ok := FirstMatch(page, []string{"", "a", "b", "c"})
	assert.True(t, ok)
	assert.Equal(t, "b", sel)

	_, ok = FirstMatch(page, []string{"x", "y"})
	assert.False(t, ok)

	_, ok = FirstMatch(page, nil)
	assert.False(t, ok)
}

func TestFindMissingTarget(t *testing.T) {
	cat := catalog.New("form", []types.Element{{ID: "a", Type: "button", Label: "Go"}})
	page := newFakePage()
	page.counts[`text="Go"`] = 1

	sel, ok := NewResolver().Find("missing", cat, page)
	assert.False(t, ok)
	assert.Empty(t, sel)

	sel, ok = NewResolver().Find("missing", nil, page)
	assert.False(t, ok)
	assert.Empty(t, sel)

	sel, ok = NewResolver().Find("a", cat, page)
	assert.True(t, ok)
	assert.Equal(t, `text="Go"`, sel)
}

func TestResolveFallsBackToLastResort(t *testing.T) {
	cat := catalog.New("form", []types.Element{{ID: "dose", Type: "input", Label: "Dose"}})
	page := newFakePage()
	page.counts[`text="Dose"`] = 1

	_, ok := NewResolver().Find("dose", cat, page)
	assert.False(t, ok)

	sel, err := NewResolver().Resolve("dose", cat, page)
	require.NoError(t, err)
	assert.Equal(t, `text="Dose"`, sel)
}

func TestResolveUnresolved(t *testing.T) {
	cat := catalog.New("form", []types.Element{{ID: "dose", Type: "input", Label: "Dose"}})

	_, err := NewResolver().Resolve("dose", cat, newFakePage())
	assert.True(t, errors.Is(err, ErrElementNotResolved))

	_, err = NewResolver().Resolve("ghost", cat, newFakePage())
	assert.True(t, errors.Is(err, ErrElementNotResolved))
	assert.Contains(t, err.Error(), "not in the catalog")
}

func TestResolverCustomStrategies(t *testing.T) {
	cat := catalog.New("form", []types.Element{{ID: "a", Type: "button", Label: "Go"}})
	page := newFakePage()
	page.counts["#go"] = 1

	r := NewResolver().WithStrategies(func(string) []Strategy {
		return []Strategy{func(types.Element) string { return "#go" }}
	})
	sel, ok := r.Find("a", cat, page)
	assert.True(t, ok)
	assert.Equal(t, "#go", sel)
}
