// Package testutil provides test fixtures shared across packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/containify/containify/internal/backend"
	"github.com/containify/containify/internal/config"
	"github.com/containify/containify/internal/registry"
	"github.com/containify/containify/internal/resource"
)

// TestEnv holds a temporary root directory layout plus a mock backend.
type TestEnv struct {
	T       *testing.T
	Paths   *config.Paths
	Store   *registry.Store
	Backend *backend.MockBackend
}

// NewTestEnv creates a fresh root layout under t.TempDir with a mock local
// backend.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	if err := paths.EnsureLayout(); err != nil {
		t.Fatalf("failed to create root layout: %v", err)
	}

	return &TestEnv{
		T:       t,
		Paths:   paths,
		Store:   registry.Open(paths.RegistryPath),
		Backend: backend.NewMockBackend(registry.KindLocal),
	}
}

// DefaultSpec is a bounded resource spec for tests.
func DefaultSpec() resource.Spec {
	return resource.Spec{RAMMB: 512, StorageMB: 1024, CPUPercent: 50}
}

// CreateWorkspace materializes the backend-side workspace directory for a
// name, as a successful provision would.
func (env *TestEnv) CreateWorkspace(name string) string {
	env.T.Helper()

	path := filepath.Join(env.Paths.ContainersDir, name)
	if err := os.MkdirAll(filepath.Join(path, "workspace"), 0o755); err != nil {
		env.T.Fatalf("failed to create workspace: %v", err)
	}
	return path
}

// RemoveWorkspace deletes the backend-side workspace for a name, simulating
// external tampering.
func (env *TestEnv) RemoveWorkspace(name string) {
	env.T.Helper()

	if err := os.RemoveAll(filepath.Join(env.Paths.ContainersDir, name)); err != nil {
		env.T.Fatalf("failed to remove workspace: %v", err)
	}
}
