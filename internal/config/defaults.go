package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Tools     ToolsConfig     `json:"tools"`
	Tree      TreeConfig      `json:"tree"`
	Workspace WorkspaceConfig `json:"workspace"`
	Output    OutputConfig    `json:"output"`
}

type ToolsConfig struct {
	// File Operations
	MaxFileSize int64 `json:"max_file_size"` // Default: 20 * 1024 * 1024 (20MB)

	// Reporting
	SearchPreviewLength int `json:"search_preview_length"` // Default: 20 (chars of search text quoted in failures)
}

type TreeConfig struct {
	MaxEntries     int  `json:"max_entries"`     // Default: 50000
	MaxDepth       int  `json:"max_depth"`       // Default: 0 (unlimited)
	TimeoutMs      int  `json:"timeout_ms"`      // Default: 10000
	IncludeIgnored bool `json:"include_ignored"` // Default: false
}

// RootConfig is one named workspace folder.
type RootConfig struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type WorkspaceConfig struct {
	// Roots in priority order; the first is the default for unqualified paths.
	// Empty means the current working directory.
	Roots []RootConfig `json:"roots"`
}

type OutputConfig struct {
	Format string `json:"format"` // Default: "text" (text|json|yaml)
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			MaxFileSize:         20 * 1024 * 1024,
			SearchPreviewLength: 20,
		},
		Tree: TreeConfig{
			MaxEntries: 50000,
			MaxDepth:   0,
			TimeoutMs:  10000,
		},
		Output: OutputConfig{
			Format: FormatText,
		},
	}
}
