package backend

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/containify/containify/internal/errors"
	"github.com/containify/containify/internal/registry"
	"github.com/containify/containify/internal/resource"
)

func localRecord(t *testing.T, name string) registry.Record {
	t.Helper()
	return registry.Record{
		Name:      name,
		Backend:   registry.KindLocal,
		Resources: resource.Spec{RAMMB: 512, StorageMB: 1024, CPUPercent: 50},
		Workspace: filepath.Join(t.TempDir(), name),
		CreatedAt: time.Now().UTC(),
		Status:    registry.StatusReady,
	}
}

// provisionedRecord builds the directory layout without a venv, enough for
// Run/Destroy tests that don't need pip.
func provisionedRecord(t *testing.T, name string) registry.Record {
	t.Helper()
	rec := localRecord(t, name)
	for _, dir := range []string{workspaceDir(rec), filepath.Join(envDir(rec), "bin")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return rec
}

func TestLocal_Provision(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}

	local := NewLocal()
	rec := localRecord(t, "myapp")

	result, err := local.Provision(context.Background(), rec)
	if err != nil {
		t.Fatalf("Provision() failed: %v", err)
	}

	if result.Enforcement != resource.EnforcementAdvisory {
		t.Errorf("Enforcement = %v, want advisory", result.Enforcement)
	}
	if len(result.Warnings) == 0 {
		t.Error("bounded limits on the local backend must produce advisory warnings")
	}

	for _, path := range []string{workspaceDir(rec), envPython(rec)} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected artifact %s: %v", path, err)
		}
	}
}

func TestLocal_Provision_UnboundedSpecHasNoWarnings(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}

	local := NewLocal()
	rec := localRecord(t, "nolimits")
	rec.Resources = resource.Spec{}

	result, err := local.Provision(context.Background(), rec)
	if err != nil {
		t.Fatalf("Provision() failed: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none for an unbounded spec", result.Warnings)
	}
}

func TestLocal_Provision_ExistingWorkspace(t *testing.T) {
	local := NewLocal()
	rec := localRecord(t, "taken")
	if err := os.MkdirAll(rec.Workspace, 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := local.Provision(context.Background(), rec)
	if err == nil {
		t.Fatal("Provision() should fail when the workspace already exists")
	}
	if errors.GetExitCode(err) != errors.ExitProvisionFailed {
		t.Errorf("exit code = %d, want %d", errors.GetExitCode(err), errors.ExitProvisionFailed)
	}
}

func TestLocal_Destroy(t *testing.T) {
	local := NewLocal()
	rec := provisionedRecord(t, "doomed")

	if err := local.Destroy(context.Background(), rec); err != nil {
		t.Fatalf("Destroy() failed: %v", err)
	}
	if _, err := os.Stat(rec.Workspace); !os.IsNotExist(err) {
		t.Error("workspace should be removed")
	}

	// Destroying an already-absent workspace is a success.
	if err := local.Destroy(context.Background(), rec); err != nil {
		t.Errorf("second Destroy() failed: %v", err)
	}
}

func TestLocal_Run_ExitCodePassthrough(t *testing.T) {
	local := NewLocal()
	rec := provisionedRecord(t, "runner")

	code, err := local.Run(context.Background(), rec, []string{"/bin/sh", "-c", "exit 0"})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	// A non-zero child exit code is not an error of the operation.
	code, err = local.Run(context.Background(), rec, []string{"/bin/sh", "-c", "exit 7"})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
}

func TestLocal_Run_TransportFailure(t *testing.T) {
	local := NewLocal()
	rec := provisionedRecord(t, "runner")

	_, err := local.Run(context.Background(), rec, []string{"/no/such/binary"})
	if err == nil {
		t.Fatal("Run() should fail when the process cannot be started")
	}
	if errors.GetExitCode(err) != errors.ExitRunFailed {
		t.Errorf("exit code = %d, want %d", errors.GetExitCode(err), errors.ExitRunFailed)
	}
}

func TestLocal_Run_Cancellation(t *testing.T) {
	local := NewLocal()
	rec := provisionedRecord(t, "runner")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, _ = local.Run(ctx, rec, []string{"/bin/sh", "-c", "sleep 30"})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v, child was not interrupted", elapsed)
	}
}

func TestChildEnv_Restricted(t *testing.T) {
	t.Setenv("SECRET_TOKEN", "hunter2")
	t.Setenv("HOME", "/home/tester")

	rec := registry.Record{Name: "myapp", Workspace: "/containify/containers/myapp"}
	env := childEnv(rec)

	joined := strings.Join(env, "\n")
	if strings.Contains(joined, "SECRET_TOKEN") {
		t.Error("child environment must not inherit arbitrary host variables")
	}
	if !strings.Contains(joined, "HOME=/home/tester") {
		t.Error("child environment should keep allowlisted variables")
	}
	if !strings.Contains(joined, "VIRTUAL_ENV="+envDir(rec)) {
		t.Error("child environment should activate the venv")
	}
	if !strings.Contains(joined, "CONTAINIFY_CONTAINER=myapp") {
		t.Error("child environment should name the container")
	}

	// The venv bin dir leads PATH so its interpreter wins.
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			if !strings.HasPrefix(kv, "PATH="+filepath.Join(envDir(rec), "bin")+":") {
				t.Errorf("venv bin should lead PATH, got %q", kv)
			}
		}
	}
}

func TestLocal_ArtifactExists(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	rec := localRecord(t, "absent")
	if l.ArtifactExists(ctx, rec) {
		t.Error("missing workspace should not count as an artifact")
	}

	rec = provisionedRecord(t, "present")
	if !l.ArtifactExists(ctx, rec) {
		t.Error("existing workspace should count as an artifact")
	}

	// A plain file in place of the directory is not a valid artifact.
	broken := localRecord(t, "file-not-dir")
	if err := os.WriteFile(broken.Workspace, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if l.ArtifactExists(ctx, broken) {
		t.Error("a file where the workspace dir should be is not an artifact")
	}
}

func TestLastLine(t *testing.T) {
	in := "Collecting nosuchpkg\nERROR: No matching distribution found for nosuchpkg\n"
	if got := lastLine(in); got != "ERROR: No matching distribution found for nosuchpkg" {
		t.Errorf("lastLine() = %q", got)
	}
}
