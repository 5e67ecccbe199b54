package am

import (
	"os"
	"sort"
	"strings"

	"github.com/julielab/jcore/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/jcore/config.toml
	SourceUser        ConfigSource = "user"        // ~/.jcore/am.toml or ~/.jcore/config.toml
	SourceProject     ConfigSource = "project"     // am.toml or config.toml found upward from the working directory
	SourceEnvironment ConfigSource = "environment" // JCORE_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // file path or environment variable name, empty for defaults
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	Settings []SettingInfo `json:"settings"`
}

// GetConfigIntrospection returns every effective setting with its source,
// sorted by key.
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}
	v := GetViper()

	keys := v.AllKeys()
	sort.Strings(keys)

	intro := &ConfigIntrospection{Settings: make([]SettingInfo, 0, len(keys))}
	for _, key := range keys {
		info, ok := ConfigSources[key]
		if !ok {
			info = SourceInfo{Source: SourceDefault}
		}
		envKey := EnvVarName(key)
		if _, set := os.LookupEnv(envKey); set {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}
		intro.Settings = append(intro.Settings, SettingInfo{
			Key:        key,
			Value:      v.Get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return intro, nil
}

// EnvVarName returns the environment variable overriding key.
func EnvVarName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// GetConfigSummary counts effective settings per source
func GetConfigSummary() (map[ConfigSource]int, error) {
	intro, err := GetConfigIntrospection()
	if err != nil {
		return nil, err
	}
	summary := make(map[ConfigSource]int)
	for _, s := range intro.Settings {
		summary[s.Source]++
	}
	return summary, nil
}
