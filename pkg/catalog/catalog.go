// Package catalog loads and validates the element catalog produced by the
// upstream page analysis.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/entrhq/pagepilot/pkg/types"
	"gopkg.in/yaml.v3"
)

// Catalog is an ordered set of elements extracted from one page.
type Catalog struct {
	PageType string          `json:"page_type" yaml:"page_type"`
	URLHint  string          `json:"url_hint,omitempty" yaml:"url_hint,omitempty"`
	Items    []types.Element `json:"elements" yaml:"elements"`

	index map[string]int
}

// New builds a catalog from elements. Later duplicates do not replace earlier
// ones in the lookup index; call Validate to reject them.
func New(pageType string, elements []types.Element) *Catalog {
	c := &Catalog{
		PageType: pageType,
		Items:    elements,
	}
	c.reindex()
	return c
}

// Load reads a catalog from a JSON or YAML file, chosen by extension.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Format selects the catalog encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Parse decodes and validates a catalog.
func Parse(data []byte, format Format) (*Catalog, error) {
	var c Catalog
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.reindex()
	return &c, nil
}

// Validate rejects elements without an id and duplicate ids.
func (c *Catalog) Validate() error {
	seen := make(map[string]int, len(c.Items))
	for i, e := range c.Items {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return fmt.Errorf("element %d has an empty id", i)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("duplicate element id %q at positions %d and %d", id, prev, i)
		}
		seen[id] = i
	}
	return nil
}

// Lookup returns the element with the given id.
func (c *Catalog) Lookup(id string) (types.Element, bool) {
	if c == nil {
		return types.Element{}, false
	}
	if c.index == nil {
		c.reindex()
	}
	i, ok := c.index[id]
	if !ok {
		return types.Element{}, false
	}
	return c.Items[i], true
}

// Elements returns the elements in catalog order.
func (c *Catalog) Elements() []types.Element {
	if c == nil {
		return nil
	}
	return c.Items
}

// Len returns the number of elements.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

func (c *Catalog) reindex() {
	c.index = make(map[string]int, len(c.Items))
	for i, e := range c.Items {
		if _, exists := c.index[e.ID]; !exists {
			c.index[e.ID] = i
		}
	}
}
