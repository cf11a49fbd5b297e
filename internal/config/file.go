package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// mergeFile overlays a YAML file onto c. Keys absent from the file keep
// their current values.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// LoadFromPath loads only the YAML file on top of defaults, without
// consulting the environment.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
