package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SaveView stores view as the startup view in the config file the viewer
// reads, leaving every other setting of that file as it is. Flags given on
// this run are not persisted.
func SaveView(view ViewConfig) (string, error) {
	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		path = filepath.Join(ConfigDir(), "config.yaml")
	}
	return path, SaveViewTo(path, view)
}

// SaveViewTo replaces the view section of the config file at path, creating
// the file from defaults if it does not exist.
func SaveViewTo(path string, view ViewConfig) error {
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	cfg.View = view
	return cfg.SaveTo(path)
}
