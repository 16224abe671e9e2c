package manager_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/containify/containify/internal/backend"
	"github.com/containify/containify/internal/errors"
	"github.com/containify/containify/internal/manager"
	"github.com/containify/containify/internal/registry"
	"github.com/containify/containify/internal/resource"
	"github.com/containify/containify/internal/testutil"
)

func newManager(t *testing.T, env *testutil.TestEnv) *manager.Manager {
	t.Helper()

	m, warnings, err := manager.New(env.Paths, manager.WithBackend(env.Backend))
	if err != nil {
		t.Fatalf("manager.New() failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected reconcile warnings: %v", warnings)
	}
	return m
}

func createOpts(name string) manager.CreateOptions {
	return manager.CreateOptions{
		Name: name,
		Spec: testutil.DefaultSpec(),
		Kind: registry.KindLocal,
	}
}

func TestManager_CreateThenGet(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	rec, _, err := m.Create(context.Background(), createOpts("myapp"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if rec.Status != registry.StatusReady {
		t.Errorf("Status = %q, want ready", rec.Status)
	}

	got, err := m.Get("myapp")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Resources != testutil.DefaultSpec() {
		t.Errorf("Resources = %+v, want the exact spec supplied", got.Resources)
	}
	if got.Status != registry.StatusReady {
		t.Errorf("Status = %q, want ready", got.Status)
	}
	if got.Enforcement != resource.EnforcementAdvisory.String() {
		t.Errorf("Enforcement = %q, want advisory", got.Enforcement)
	}
}

func TestManager_CreateDuplicate(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	if _, _, err := m.Create(context.Background(), createOpts("myapp")); err != nil {
		t.Fatal(err)
	}

	_, _, err := m.Create(context.Background(), createOpts("myapp"))
	if errors.GetExitCode(err) != errors.ExitDuplicateName {
		t.Fatalf("second Create() = %v, want DuplicateName", err)
	}

	// The duplicate was rejected before any backend work.
	if calls := env.Backend.GetCallsFor("Provision"); len(calls) != 1 {
		t.Errorf("Provision called %d times, want 1", len(calls))
	}

	records, _ := m.List()
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want exactly one Ready record", len(records))
	}
}

func TestManager_CreateInvalidName(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	for _, name := range []string{"", "../escape", "has spaces", "-leading"} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			_, _, err := m.Create(context.Background(), createOpts(name))
			if errors.GetExitCode(err) != errors.ExitValidation {
				t.Errorf("Create(%q) = %v, want validation error", name, err)
			}
		})
	}

	if calls := env.Backend.GetCallsFor("Provision"); len(calls) != 0 {
		t.Errorf("invalid names must be rejected before any backend call, got %d calls", len(calls))
	}
}

func TestManager_CreateProvisionFailure(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	env.Backend.SetError("provision", errors.ProvisionFailed("myapp", fmt.Errorf("disk full")))

	_, _, err := m.Create(context.Background(), createOpts("myapp"))
	if errors.GetExitCode(err) != errors.ExitProvisionFailed {
		t.Fatalf("Create() = %v, want ProvisionFailed", err)
	}

	// The failed record was never persisted.
	if _, err := m.Get("myapp"); errors.GetExitCode(err) != errors.ExitNotFound {
		t.Error("failed create must not leave a registry record")
	}
}

func TestManager_CreateBackendUnavailable(t *testing.T) {
	env := testutil.NewTestEnv(t)

	m, _, err := manager.New(env.Paths, manager.WithResolver(
		func(ctx context.Context, kind registry.Kind) (backend.Backend, error) {
			return nil, errors.BackendUnavailable("docker", fmt.Errorf("socket missing"))
		}))
	if err != nil {
		t.Fatal(err)
	}

	opts := createOpts("svc")
	opts.Kind = registry.KindDocker

	_, _, err = m.Create(context.Background(), opts)
	if errors.GetExitCode(err) != errors.ExitBackendUnavailable {
		t.Fatalf("Create() = %v, want BackendUnavailable", err)
	}

	if _, err := m.Get("svc"); errors.GetExitCode(err) != errors.ExitNotFound {
		t.Error("no registry entry may be created when the backend is unreachable")
	}
}

func TestManager_CreateSurfacesProvisionWarnings(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.Backend.ProvisionWarnings = []string{"cpu limit is advisory"}
	m := newManager(t, env)

	_, warnings, err := m.Create(context.Background(), createOpts("myapp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || warnings[0] != "cpu limit is advisory" {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestManager_DestroyThenGet(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	if _, _, err := m.Create(context.Background(), createOpts("myapp")); err != nil {
		t.Fatal(err)
	}

	warnings, err := m.Destroy(context.Background(), "myapp")
	if err != nil {
		t.Fatalf("Destroy() failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}

	if _, err := m.Get("myapp"); errors.GetExitCode(err) != errors.ExitNotFound {
		t.Error("Get() after Destroy() should report NotFound")
	}

	// Destroying again succeeds: destroy is idempotent and the record is
	// gone, not tombstoned.
	if _, err := m.Destroy(context.Background(), "myapp"); err != nil {
		t.Errorf("Destroy() on an absent name should succeed, got %v", err)
	}
}

func TestManager_DestroyAbsentName(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	// A name that never existed destroys cleanly without touching a backend.
	warnings, err := m.Destroy(context.Background(), "never-created")
	if err != nil {
		t.Fatalf("Destroy() on an absent name should succeed, got %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if calls := env.Backend.GetCallsFor("Destroy"); len(calls) != 0 {
		t.Errorf("absent name must not reach the backend, got %d calls", len(calls))
	}
}

func TestManager_DestroyPartial(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	if _, _, err := m.Create(context.Background(), createOpts("myapp")); err != nil {
		t.Fatal(err)
	}

	env.Backend.SetError("destroy", &errors.PartialDestroy{
		Name:    "myapp",
		Residue: "/containify/containers/myapp",
	})

	warnings, err := m.Destroy(context.Background(), "myapp")
	if err != nil {
		t.Fatalf("Destroy() with residue should still succeed: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want the residue warning", warnings)
	}

	// The record is removed so the name is reusable.
	if _, _, err := m.Create(context.Background(), createOpts("myapp")); err != nil {
		t.Errorf("name should be reusable after partial destroy: %v", err)
	}
}

func TestManager_RunPassesExitCodeThrough(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	if _, _, err := m.Create(context.Background(), createOpts("myapp")); err != nil {
		t.Fatal(err)
	}
	env.Backend.ExitCodes["myapp"] = 7

	code, err := m.Run(context.Background(), "myapp", []string{"false"})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}

	// The record is untouched after a run.
	rec, _ := m.Get("myapp")
	if rec.Status != registry.StatusReady {
		t.Errorf("Status = %q, want ready", rec.Status)
	}
}

func TestManager_OperationsOnUnknownName(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	if _, err := m.Run(context.Background(), "ghost", []string{"true"}); errors.GetExitCode(err) != errors.ExitNotFound {
		t.Error("Run on unknown name should report NotFound")
	}
	if _, err := m.Shell(context.Background(), "ghost"); errors.GetExitCode(err) != errors.ExitNotFound {
		t.Error("Shell on unknown name should report NotFound")
	}
	if err := m.Install(context.Background(), "ghost", []string{"requests"}); errors.GetExitCode(err) != errors.ExitNotFound {
		t.Error("Install on unknown name should report NotFound")
	}
}

func TestManager_InstallRequiresPackages(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	if _, _, err := m.Create(context.Background(), createOpts("myapp")); err != nil {
		t.Fatal(err)
	}

	if err := m.Install(context.Background(), "myapp", nil); errors.GetExitCode(err) != errors.ExitValidation {
		t.Error("Install with no packages should be a validation error")
	}

	if calls := env.Backend.GetCallsFor("Install"); len(calls) != 0 {
		t.Error("empty install must not reach the backend")
	}
}

func TestManager_InstallFailureKeepsStatus(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	if _, _, err := m.Create(context.Background(), createOpts("myapp")); err != nil {
		t.Fatal(err)
	}
	env.Backend.SetError("install", errors.InstallFailed("myapp", fmt.Errorf("no matching distribution")))

	if err := m.Install(context.Background(), "myapp", []string{"nosuchpkg"}); errors.GetExitCode(err) != errors.ExitInstallFailed {
		t.Fatal("Install should surface the backend failure")
	}

	rec, _ := m.Get("myapp")
	if rec.Status != registry.StatusReady {
		t.Errorf("install failure must not change status, got %q", rec.Status)
	}
}

func TestManager_ReconcileMarksStale(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	if _, _, err := m.Create(context.Background(), createOpts("myapp")); err != nil {
		t.Fatal(err)
	}

	// Externally delete the backend artifact, then restart the manager.
	env.RemoveWorkspace("myapp")

	m2, warnings, err := manager.New(env.Paths, manager.WithBackend(env.Backend))
	if err != nil {
		t.Fatalf("manager.New() failed: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one stale warning", warnings)
	}

	// The stale record is retained, not silently deleted...
	rec, err := m2.Get("myapp")
	if err != nil {
		t.Fatalf("stale record should still exist: %v", err)
	}
	if rec.Status != registry.StatusStale {
		t.Errorf("Status = %q, want stale", rec.Status)
	}

	// ...but is no longer usable for run/shell/install.
	if _, err := m2.Run(context.Background(), "myapp", []string{"true"}); err == nil {
		t.Error("Run on a stale record should fail")
	}
}

// instancelessBackend simulates a backend whose runtime-side instance was
// removed externally while the host workspace survived.
type instancelessBackend struct {
	*backend.MockBackend
}

func (b *instancelessBackend) ArtifactExists(ctx context.Context, rec registry.Record) bool {
	return false
}

func TestManager_ReconcileConsultsBackend(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	if _, _, err := m.Create(context.Background(), createOpts("myapp")); err != nil {
		t.Fatal(err)
	}

	// The workspace directory is intact, so a filesystem-only check would
	// miss the loss; the backend's own artifact check must decide.
	m2, warnings, err := manager.New(env.Paths,
		manager.WithBackend(&instancelessBackend{MockBackend: env.Backend}))
	if err != nil {
		t.Fatalf("manager.New() failed: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one stale warning", warnings)
	}

	rec, err := m2.Get("myapp")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != registry.StatusStale {
		t.Errorf("Status = %q, want stale", rec.Status)
	}
}

func TestManager_ConcurrentCreateSameName(t *testing.T) {
	env := testutil.NewTestEnv(t)
	m := newManager(t, env)

	outcomes := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, _, err := m.Create(context.Background(), createOpts("x"))
			outcomes <- err
		}()
	}

	var ok, dup int
	for i := 0; i < 2; i++ {
		err := <-outcomes
		switch {
		case err == nil:
			ok++
		case errors.GetExitCode(err) == errors.ExitDuplicateName:
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if ok != 1 || dup != 1 {
		t.Errorf("ok = %d, dup = %d; want exactly one winner", ok, dup)
	}
}
