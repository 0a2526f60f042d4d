package config

import (
	"fmt"
	"strings"
)

// Validate checks config values for life correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Tools validation
	if c.Tools.MaxFileSize < 1 {
		errs = append(errs, "tools.max_file_size must be >= 1")
	}
	if c.Tools.SearchPreviewLength < 1 {
		errs = append(errs, "tools.search_preview_length must be >= 1")
	}

	// Tree validation
	if c.Tree.MaxEntries < 1 {
		errs = append(errs, "tree.max_entries must be >= 1")
	}
	if c.Tree.MaxDepth < 0 {
		errs = append(errs, "tree.max_depth must be >= 0")
	}
	if c.Tree.TimeoutMs < 1 {
		errs = append(errs, "tree.timeout_ms must be >= 1")
	}

	// Workspace validation
	seen := make(map[string]bool)
	for i, r := range c.Workspace.Roots {
		if strings.TrimSpace(r.Name) == "" {
			errs = append(errs, fmt.Sprintf("workspace.roots[%d].name must not be empty", i))
		}
		if strings.TrimSpace(r.Path) == "" {
			errs = append(errs, fmt.Sprintf("workspace.roots[%d].path must not be empty", i))
		}
		if seen[r.Name] {
			errs = append(errs, fmt.Sprintf("workspace.roots[%d].name %q is duplicated", i, r.Name))
		}
		seen[r.Name] = true
	}

	// Output validation
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		errs = append(errs, fmt.Sprintf("output.format must be one of text, json, yaml (got %q)", c.Output.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
