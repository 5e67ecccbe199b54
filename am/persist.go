package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/julielab/jcore/errors"
)

// Render returns the configuration as TOML.
func Render(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// Save writes cfg as TOML to configPath, rotating up to three backups
// (.back1 newest) of an existing file first.
func Save(cfg *Config, configPath string) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "refusing to save invalid config")
	}
	data, err := Render(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", configPath)
	}
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}
	return nil
}

// createBackup rotates .back2 -> .back3, .back1 -> .back2 and copies the
// current file to .back1. A missing file needs no backup.
func createBackup(configPath string) error {
	content, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	backup := func(n int) string { return configPath + ".back" + string(rune('0'+n)) }
	if err := os.Remove(backup(3)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete %s", backup(3))
	}
	for n := 2; n >= 1; n-- {
		if _, err := os.Stat(backup(n)); err == nil {
			if err := os.Rename(backup(n), backup(n+1)); err != nil {
				return errors.Wrapf(err, "failed to rotate %s", backup(n))
			}
		}
	}
	if err := os.WriteFile(backup(1), content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}
