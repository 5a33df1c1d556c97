package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/entrhq/pagepilot/pkg/types"
)

// printPlan writes p as indented JSON, syntax-highlighted when color is set.
func printPlan(w io.Writer, p *types.ActionPlan, color bool) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	if color {
		if err := quick.Highlight(w, string(data)+"\n", "json", "terminal256", "monokai"); err == nil {
			return nil
		}
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
