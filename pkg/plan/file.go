package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/entrhq/pagepilot/pkg/types"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a human-edited plan from a JSON or YAML file. Steps are
// renumbered in file order and the plan is marked as manual.
func LoadFile(path string) (*types.ActionPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p types.ActionPlan
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}

	p.Renumber()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan file %s: %w", path, err)
	}
	p.Source = types.PlanSourceManual
	return &p, nil
}

// WriteFile writes p as indented JSON so it can be edited and loaded back
// with LoadFile.
func WriteFile(path string, p *types.ActionPlan) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	return nil
}
