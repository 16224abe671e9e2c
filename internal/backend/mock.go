package backend

import (
	"context"
	"os"
	"sync"

	"github.com/containify/containify/internal/errors"
	"github.com/containify/containify/internal/registry"
	"github.com/containify/containify/internal/resource"
)

// MockBackend is a Backend implementation for testing.
type MockBackend struct {
	mu sync.RWMutex

	// BackendKind is the kind this mock reports.
	BackendKind registry.Kind

	// Provisioned tracks container names this mock has provisioned.
	Provisioned map[string]bool

	// Errors allows injecting errors for specific operations
	// ("provision", "destroy", "shell", "run", "install").
	Errors map[string]error

	// ExitCodes maps container names to the exit code Run and OpenShell
	// return. Unset names return 0.
	ExitCodes map[string]int

	// Enforcement is reported from Provision. Defaults to advisory.
	Enforcement resource.Enforcement

	// ProvisionWarnings are reported from Provision.
	ProvisionWarnings []string

	// CallLog records all method calls for verification.
	CallLog []MockCall
}

// MockCall represents a recorded method call
type MockCall struct {
	Method string
	Args   []interface{}
}

// NewMockBackend creates a new mock backend reporting the given kind.
func NewMockBackend(kind registry.Kind) *MockBackend {
	return &MockBackend{
		BackendKind: kind,
		Provisioned: make(map[string]bool),
		Errors:      make(map[string]error),
		ExitCodes:   make(map[string]int),
		Enforcement: resource.EnforcementAdvisory,
	}
}

func (m *MockBackend) record(method string, args ...interface{}) {
	m.CallLog = append(m.CallLog, MockCall{Method: method, Args: args})
}

// SetError sets an error to be returned for a specific operation
func (m *MockBackend) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[operation] = err
}

// GetCallsFor returns all calls for a specific method
func (m *MockBackend) GetCallsFor(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, call := range m.CallLog {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// Kind returns the configured kind.
func (m *MockBackend) Kind() registry.Kind {
	return m.BackendKind
}

// Provision records the call and marks the name provisioned.
func (m *MockBackend) Provision(ctx context.Context, rec registry.Record) (*ProvisionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Provision", rec.Name)

	if err := m.Errors["provision"]; err != nil {
		return nil, err
	}

	// Materialize the workspace like a real backend so reconciliation
	// sees a live artifact.
	if rec.Workspace != "" {
		if err := os.MkdirAll(workspaceDir(rec), 0o755); err != nil {
			return nil, errors.ProvisionFailed(rec.Name, err)
		}
	}

	m.Provisioned[rec.Name] = true
	return &ProvisionResult{
		Enforcement: m.Enforcement,
		Warnings:    m.ProvisionWarnings,
	}, nil
}

// Destroy records the call and forgets the name. Destroying an
// unprovisioned name succeeds, matching backend idempotence.
func (m *MockBackend) Destroy(ctx context.Context, rec registry.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Destroy", rec.Name)

	if err := m.Errors["destroy"]; err != nil {
		return err
	}

	if rec.Workspace != "" {
		_ = os.RemoveAll(rec.Workspace)
	}

	delete(m.Provisioned, rec.Name)
	return nil
}

// OpenShell records the call and returns the configured exit code.
func (m *MockBackend) OpenShell(ctx context.Context, rec registry.Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("OpenShell", rec.Name)

	if err := m.Errors["shell"]; err != nil {
		return 0, err
	}
	return m.ExitCodes[rec.Name], nil
}

// Run records the call and returns the configured exit code.
func (m *MockBackend) Run(ctx context.Context, rec registry.Record, argv []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Run", rec.Name, argv)

	if err := m.Errors["run"]; err != nil {
		return 0, err
	}
	return m.ExitCodes[rec.Name], nil
}

// Install records the call.
func (m *MockBackend) Install(ctx context.Context, rec registry.Record, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Install", rec.Name, names)

	if err := m.Errors["install"]; err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.ValidationError("no packages to install")
	}
	return nil
}

// ArtifactExists mirrors the real backends' host-side check.
func (m *MockBackend) ArtifactExists(ctx context.Context, rec registry.Record) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ArtifactExists", rec.Name)

	info, err := os.Stat(rec.Workspace)
	return err == nil && info.IsDir()
}

var (
	_ Backend         = (*MockBackend)(nil)
	_ ArtifactChecker = (*MockBackend)(nil)
)
