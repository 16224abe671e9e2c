package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Settings are the user-tunable defaults applied when create flags are
// omitted, loaded from settings.toml under the root directory.
type Settings struct {
	Defaults DefaultSettings `toml:"defaults"`
}

// DefaultSettings mirror the create command's flags.
type DefaultSettings struct {
	Backend string `toml:"backend"`
	RAM     string `toml:"ram"`
	Storage string `toml:"storage"`
	CPU     string `toml:"cpu"`
	Image   string `toml:"image"`
}

// DefaultSettings returns the built-in defaults.
func defaultSettings() Settings {
	return Settings{
		Defaults: DefaultSettings{
			Backend: "local",
			RAM:     "512m",
			Storage: "1024m",
			CPU:     "100",
			Image:   "python:3.11-slim",
		},
	}
}

// LoadSettings reads settings.toml, filling any missing field from the
// built-in defaults. A missing file yields the defaults without error.
func LoadSettings(path string) (Settings, error) {
	settings := defaultSettings()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err == nil {
		var loaded Settings
		if err := toml.Unmarshal(data, &loaded); err != nil {
			return settings, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		if loaded.Defaults.Backend != "" {
			settings.Defaults.Backend = loaded.Defaults.Backend
		}
		if loaded.Defaults.RAM != "" {
			settings.Defaults.RAM = loaded.Defaults.RAM
		}
		if loaded.Defaults.Storage != "" {
			settings.Defaults.Storage = loaded.Defaults.Storage
		}
		if loaded.Defaults.CPU != "" {
			settings.Defaults.CPU = loaded.Defaults.CPU
		}
		if loaded.Defaults.Image != "" {
			settings.Defaults.Image = loaded.Defaults.Image
		}
	}

	// Environment variable wins over the settings file for the image,
	// matching the root directory override behavior.
	if img := os.Getenv(ImageEnvVar); img != "" {
		settings.Defaults.Image = img
	}

	return settings, nil
}
