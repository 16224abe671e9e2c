package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	securejoin "github.com/cyphar/filepath-securejoin"
)

const (
	// DefaultRootDir is where container state lives unless overridden by the
	// --root flag or the CONTAINIFY_ROOT environment variable.
	DefaultRootDir = "/containify"

	// RootEnvVar overrides the default root directory.
	RootEnvVar = "CONTAINIFY_ROOT"

	// ImageEnvVar overrides the default docker image.
	ImageEnvVar = "CONTAINIFY_DOCKER_IMAGE"

	// ContainerPrefix is prepended to container names to form docker
	// instance names.
	ContainerPrefix = "containify-"
)

// containerNameRegex validates container names.
// Names must start with an alphanumeric character, followed by alphanumerics,
// underscores, or hyphens. Maximum length is 63 characters so names stay
// usable as docker names and directory names.
var containerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,62}$`)

// ValidateName checks if a container name is valid.
// Valid names:
//   - Start with a letter or digit
//   - Contain only letters, digits, underscores, or hyphens
//   - Are between 1 and 63 characters long
//   - Do not contain path separators or special characters
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("container name cannot be empty")
	}

	if !containerNameRegex.MatchString(name) {
		return fmt.Errorf("invalid container name %q: must start with a letter or digit, contain only letters, digits, underscores, or hyphens, and be at most 63 characters", name)
	}

	return nil
}

// Paths holds the directory layout under the root directory.
type Paths struct {
	// RootDir is the resolved root directory.
	RootDir string

	// ContainersDir holds one workspace directory per container.
	ContainersDir string

	// RegistryPath is the durable registry state file.
	RegistryPath string

	// SettingsPath is the user settings file.
	SettingsPath string
}

// ResolveRoot determines the root directory: an explicit override wins, then
// the CONTAINIFY_ROOT environment variable, then the platform default.
func ResolveRoot(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(RootEnvVar); env != "" {
		return env
	}
	return DefaultRootDir
}

// NewPaths builds the directory layout for a root directory.
func NewPaths(rootDir string) *Paths {
	return &Paths{
		RootDir:       rootDir,
		ContainersDir: filepath.Join(rootDir, "containers"),
		RegistryPath:  filepath.Join(rootDir, "registry.json"),
		SettingsPath:  filepath.Join(rootDir, "settings.toml"),
	}
}

// EnsureLayout creates the root and containers directories.
func (p *Paths) EnsureLayout() error {
	for _, dir := range []string{p.RootDir, p.ContainersDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// WorkspacePath derives the workspace directory for a container name,
// guaranteed to stay inside the containers directory even for hostile names.
func (p *Paths) WorkspacePath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	path, err := securejoin.SecureJoin(p.ContainersDir, name)
	if err != nil {
		return "", fmt.Errorf("invalid container path for %q: %w", name, err)
	}
	return path, nil
}
