package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/julielab/jcore/errors"
)

// EnvPrefix prefixes every environment override, e.g. JCORE_DATABASE_PATH.
const EnvPrefix = "JCORE"

var globalConfig *Config
var viperInstance *viper.Viper

// ConfigSources records, per flattened key, which source set the value
// during the last load.
var ConfigSources = map[string]SourceInfo{}

// Load reads the jcore configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Defaults only; no environment binding for an explicit file
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)
	sources := map[string]SourceInfo{}
	for _, key := range v.AllKeys() {
		sources[key] = SourceInfo{Source: SourceDefault}
	}

	// system -> user -> project, env vars on top
	mergeConfigFiles(v, sources)

	ConfigSources = sources
	viperInstance = v
	return v
}

// findProjectConfig searches for am.toml or config.toml by walking up the directory tree
// Returns the path to the first config file found, or empty string if none found
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range []string{"am.toml", "config.toml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// configFile is one candidate file and the source it counts as.
type configFile struct {
	path   string
	source ConfigSource
}

// configFiles lists candidate files from lowest to highest precedence.
func configFiles() []configFile {
	files := []configFile{
		{"/etc/jcore/config.toml", SourceSystem},
	}
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".jcore")
		files = append(files,
			configFile{filepath.Join(dir, "config.toml"), SourceUser},
			configFile{filepath.Join(dir, "am.toml"), SourceUser},
		)
	}
	if project := findProjectConfig(); project != "" {
		files = append(files, configFile{project, SourceProject})
	}
	return files
}

// mergeConfigFiles merges existing config files into v in precedence order
// and records where each key came from.
func mergeConfigFiles(v *viper.Viper, sources map[string]SourceInfo) {
	for _, f := range configFiles() {
		if _, err := os.Stat(f.path); err != nil {
			continue
		}
		fileViper := viper.New()
		fileViper.SetConfigFile(f.path)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			continue
		}
		// merged as config, so environment variables still win
		if err := v.MergeConfigMap(fileViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range fileViper.AllKeys() {
			sources[key] = SourceInfo{Source: f.source, Path: f.path}
		}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return initViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return initViper().GetString(key)
}

// GetBool returns a configuration value as bool using dot notation
func GetBool(key string) bool {
	return initViper().GetBool(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return initViper().GetInt(key)
}

// GetDatabasePath returns the configured database path
func GetDatabasePath() (string, error) {
	config, err := Load()
	if err != nil {
		return "", err
	}
	return config.GetDatabasePath(), nil
}
