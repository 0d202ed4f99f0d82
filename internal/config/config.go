package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads a YAML file into the given structure.
func LoadConfig(path string, config interface{}) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	return nil
}

// SaveConfig serializes the given structure to a YAML file with the given
// permissions. The chroot payload carries credentials, so that caller
// passes 0600.
func SaveConfig(path string, config interface{}, perm os.FileMode) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error serializing config: %w", err)
	}

	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
