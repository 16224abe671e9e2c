package cmd

import (
	"github.com/containify/containify/internal/config"
	"github.com/containify/containify/internal/manager"
)

// resolvePaths builds the directory layout from the --root flag, the
// CONTAINIFY_ROOT environment variable, or the default root.
func resolvePaths() *config.Paths {
	return config.NewPaths(config.ResolveRoot(rootDir))
}

// newManager constructs the manager for the resolved root and surfaces any
// reconciliation warnings to the user.
func newManager() (*manager.Manager, error) {
	m, warnings, err := manager.New(resolvePaths())
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logWarning("%s", w)
	}
	return m, nil
}

// loadSettings reads the user settings file under the resolved root.
func loadSettings() (config.Settings, error) {
	return config.LoadSettings(resolvePaths().SettingsPath)
}
