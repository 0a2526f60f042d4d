package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AllDefaults_Pass(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestValidate_Tools(t *testing.T) {
	t.Run("Zero File Size Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.MaxFileSize = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_file_size")
	})

	t.Run("Zero Preview Length Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.SearchPreviewLength = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "search_preview_length")
	})
}

func TestValidate_Tree(t *testing.T) {
	t.Run("Negative Depth Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tree.MaxDepth = -1
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_depth")
	})

	t.Run("Zero Timeout Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tree.TimeoutMs = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "timeout_ms")
	})
}

func TestValidate_Workspace(t *testing.T) {
	t.Run("Duplicate Root Names Fail", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Workspace.Roots = []RootConfig{{Name: "a", Path: "/x"}, {Name: "a", Path: "/y"}}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "duplicated")
	})

	t.Run("Empty Path Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Workspace.Roots = []RootConfig{{Name: "a"}}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "roots[0].path")
	})
}

func TestValidate_Output(t *testing.T) {
	for _, format := range []string{FormatText, FormatJSON, FormatYAML} {
		cfg := DefaultConfig()
		cfg.Output.Format = format
		assert.NoError(t, cfg.Validate(), format)
	}

	cfg := DefaultConfig()
	cfg.Output.Format = "toml"
	assert.Error(t, cfg.Validate())
}
