package am

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/julielab/jcore/embedding"
)

// Default values shared by SetDefaults and the zero-value fallbacks.
const (
	DefaultDatabasePath = "jcore.db"
	DefaultMarkerType   = "de.julielab.jcore.types.InternalReference"
	DefaultCutCharacters = ",;"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("embeddings.buffer_size", embedding.DefaultBufferSize)
	v.SetDefault("embeddings.group_by_text", true)

	v.SetDefault("featurepath.replacements_file", "")
	v.SetDefault("featurepath.replace_unmapped", false)
	v.SetDefault("featurepath.default_replacement", "")

	v.SetDefault("condense.marker_types", []string{DefaultMarkerType})
	v.SetDefault("condense.cut_characters", DefaultCutCharacters)
	v.SetDefault("condense.collapse_whitespace", true)

	v.SetDefault("log.json", false)
}

// BindEnvVars explicitly binds settings commonly overridden per invocation
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "JCORE_DATABASE_PATH")
	v.BindEnv("featurepath.replacements_file", "JCORE_FEATUREPATH_REPLACEMENTS_FILE")
	v.BindEnv("log.json", "JCORE_LOG_JSON")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// GetBufferSize returns the embedding buffer size (default: 8192)
func (c *Config) GetBufferSize() int {
	if c.Embeddings.BufferSize == 0 {
		return embedding.DefaultBufferSize
	}
	return c.Embeddings.BufferSize
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Embeddings: {BufferSize: %d, GroupByText: %t}, Condense: {MarkerTypes: %v}}",
		c.Database.Path, c.Embeddings.BufferSize, c.Embeddings.GroupByText, c.Condense.MarkerTypes)
}
