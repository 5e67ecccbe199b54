// Package am loads the jcore configuration ("am" as in "I am configured
// like this") from defaults, TOML files and JCORE_* environment variables.
package am

// Config represents the jcore configuration
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database" toml:"database"`
	Embeddings  EmbeddingsConfig  `mapstructure:"embeddings" toml:"embeddings"`
	FeaturePath FeaturePathConfig `mapstructure:"featurepath" toml:"featurepath"`
	Condense    CondenseConfig    `mapstructure:"condense" toml:"condense"`
	Log         LogConfig         `mapstructure:"log" toml:"log"`
}

// DatabaseConfig configures the SQLite embedding store
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// EmbeddingsConfig configures decoding and merging of embedding streams
type EmbeddingsConfig struct {
	BufferSize  int  `mapstructure:"buffer_size" toml:"buffer_size"`     // Per-stream read buffer in bytes (default: 8192)
	GroupByText bool `mapstructure:"group_by_text" toml:"group_by_text"` // Merge into per-text centroids (default: true)
}

// FeaturePathConfig configures value replacement for feature paths
type FeaturePathConfig struct {
	ReplacementsFile   string `mapstructure:"replacements_file" toml:"replacements_file"`     // key=value file, empty = no replacement
	ReplaceUnmapped    bool   `mapstructure:"replace_unmapped" toml:"replace_unmapped"`       // Replace values missing from the file
	DefaultReplacement string `mapstructure:"default_replacement" toml:"default_replacement"` // Used for unmapped values when enabled
}

// CondenseConfig configures text condensation
type CondenseConfig struct {
	MarkerTypes        []string `mapstructure:"marker_types" toml:"marker_types"`               // Annotation types cut from the text
	CutCharacters      string   `mapstructure:"cut_characters" toml:"cut_characters"`           // Characters removed next to a cut, e.g. ",;"
	CollapseWhitespace bool     `mapstructure:"collapse_whitespace" toml:"collapse_whitespace"` // Remove one whitespace next to a cut (default: true)
}

// LogConfig configures logging
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json"` // Structured JSON output instead of console
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// CutRunes returns the configured cut characters as runes.
func (c CondenseConfig) CutRunes() []rune {
	return []rune(c.CutCharacters)
}
