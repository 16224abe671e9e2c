package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/containify/containify/internal/errors"
	"github.com/containify/containify/internal/logging"
	"github.com/containify/containify/internal/registry"
	"github.com/containify/containify/internal/resource"
)

// Local isolates a container as a dedicated directory tree with its own
// python venv and a restricted environment for spawned children. Resource
// limits are advisory: RAM and storage are applied to children via rlimits
// where the OS exposes them, the CPU share is recorded only.
type Local struct{}

// NewLocal returns the local backend.
func NewLocal() *Local {
	return &Local{}
}

// Kind returns the backend identifier.
func (l *Local) Kind() registry.Kind {
	return registry.KindLocal
}

// workspaceDir is the working directory for sessions and commands.
func workspaceDir(rec registry.Record) string {
	return filepath.Join(rec.Workspace, "workspace")
}

// envDir is the container's venv.
func envDir(rec registry.Record) string {
	return filepath.Join(rec.Workspace, "env")
}

func envPython(rec registry.Record) string {
	return filepath.Join(envDir(rec), "bin", "python")
}

// Provision creates the container directory, its workspace subdirectory and
// a python venv as the dependency environment. Partial artifacts are removed
// before any error is returned.
func (l *Local) Provision(ctx context.Context, rec registry.Record) (*ProvisionResult, error) {
	logging.Debug("provisioning local container", "name", rec.Name, "workspace", rec.Workspace)

	if _, err := os.Stat(rec.Workspace); err == nil {
		return nil, errors.ProvisionFailed(rec.Name, fmt.Errorf("workspace %s already exists", rec.Workspace))
	}

	rollback := func() {
		if err := os.RemoveAll(rec.Workspace); err != nil {
			logging.Warn("failed to roll back workspace", "path", rec.Workspace, "error", err)
		}
	}

	if err := os.MkdirAll(workspaceDir(rec), 0o755); err != nil {
		rollback()
		return nil, errors.ProvisionFailed(rec.Name, err)
	}

	python, err := exec.LookPath("python3")
	if err != nil {
		rollback()
		return nil, errors.ProvisionFailed(rec.Name, fmt.Errorf("python3 not found: %w", err))
	}

	cmd := exec.CommandContext(ctx, python, "-m", "venv", envDir(rec))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		rollback()
		return nil, errors.ProvisionFailed(rec.Name, fmt.Errorf("venv creation failed: %s: %w", strings.TrimSpace(stderr.String()), err))
	}

	result := &ProvisionResult{Enforcement: resource.EnforcementAdvisory}
	if rec.Resources.RAMMB != resource.Unbounded {
		result.Warnings = append(result.Warnings, "ram limit is advisory: applied per-process via rlimit, not enforced for the workspace as a whole")
	}
	if rec.Resources.StorageMB != resource.Unbounded {
		result.Warnings = append(result.Warnings, "storage limit is advisory: caps single-file size via rlimit, not total workspace usage")
	}
	if rec.Resources.CPUPercent != resource.Unbounded {
		result.Warnings = append(result.Warnings, "cpu limit is advisory: recorded but not enforced on the local backend")
	}

	return result, nil
}

// Destroy removes the container directory tree. A missing tree is a success.
func (l *Local) Destroy(ctx context.Context, rec registry.Record) error {
	logging.Debug("destroying local container", "name", rec.Name)

	if _, err := os.Stat(rec.Workspace); os.IsNotExist(err) {
		return nil
	}

	if err := os.RemoveAll(rec.Workspace); err != nil {
		return &errors.PartialDestroy{Name: rec.Name, Residue: rec.Workspace, Cause: err}
	}
	return nil
}

// childEnv builds the restricted environment for spawned children: the venv
// on PATH plus a small allowlist of host variables.
func childEnv(rec registry.Record) []string {
	binDir := filepath.Join(envDir(rec), "bin")
	env := []string{
		"PATH=" + binDir + ":/usr/local/bin:/usr/bin:/bin",
		"VIRTUAL_ENV=" + envDir(rec),
		"PIP_USER=0",
		"CONTAINIFY_CONTAINER=" + rec.Name,
	}
	for _, key := range []string{"HOME", "TERM", "LANG", "LC_ALL", "USER"} {
		if v, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+v)
		}
	}
	return env
}

// applyLimits applies the record's limits to a started child, best-effort.
// Failures are logged, not fatal: absent OS support means degraded
// enforcement, which was already surfaced at provision time.
func applyLimits(pid int, spec resource.Spec) {
	set := func(res int, bytes int64, what string) {
		if bytes == 0 {
			return
		}
		lim := &unix.Rlimit{Cur: uint64(bytes), Max: uint64(bytes)}
		if err := unix.Prlimit(pid, res, lim, nil); err != nil {
			logging.Debug("failed to apply rlimit", "limit", what, "pid", pid, "error", err)
		}
	}
	set(unix.RLIMIT_AS, spec.RAMBytes(), "ram")
	set(unix.RLIMIT_FSIZE, spec.StorageBytes(), "storage")
}

// exitCode extracts a child's exit code after Wait.
func exitCode(err error) (int, bool) {
	if err == nil {
		return 0, true
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// Run executes argv in the workspace with the venv active, forwarding
// stdout/stderr and returning the child's exit code unchanged.
func (l *Local) Run(ctx context.Context, rec registry.Record, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, errors.RunFailed(rec.Name, fmt.Errorf("empty command"))
	}

	logging.Debug("running command in local container", "name", rec.Name, "argv", argv)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workspaceDir(rec)
	cmd.Env = childEnv(rec)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, errors.RunFailed(rec.Name, err)
	}
	applyLimits(cmd.Process.Pid, rec.Resources)

	err := cmd.Wait()
	if code, ok := exitCode(err); ok {
		return code, nil
	}
	return 0, errors.RunFailed(rec.Name, err)
}

// OpenShell starts an interactive shell in the workspace and blocks until it
// exits, returning the shell's exit code.
func (l *Local) OpenShell(ctx context.Context, rec registry.Record) (int, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}

	logging.Debug("opening shell in local container", "name", rec.Name, "shell", shell)

	cmd := exec.CommandContext(ctx, shell)
	cmd.Dir = workspaceDir(rec)
	cmd.Env = childEnv(rec)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, errors.RunFailed(rec.Name, err)
	}
	applyLimits(cmd.Process.Pid, rec.Resources)

	err := cmd.Wait()
	if code, ok := exitCode(err); ok {
		return code, nil
	}
	return 0, errors.RunFailed(rec.Name, err)
}

// Install installs packages into the venv with pip, carrying pip's own
// message on failure.
func (l *Local) Install(ctx context.Context, rec registry.Record, names []string) error {
	if len(names) == 0 {
		return errors.ValidationError("no packages to install")
	}

	logging.Debug("installing packages in local container", "name", rec.Name, "packages", names)

	args := append([]string{"-m", "pip", "install"}, names...)
	cmd := exec.CommandContext(ctx, envPython(rec), args...)
	cmd.Dir = rec.Workspace
	cmd.Env = childEnv(rec)
	cmd.Stdout = os.Stdout

	var stderr bytes.Buffer
	cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return errors.InstallFailed(rec.Name, err)
		}
		return errors.InstallFailed(rec.Name, fmt.Errorf("%s", lastLine(msg)))
	}
	return nil
}

// lastLine keeps the installer's final message, which is where pip puts the
// actionable error.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// ArtifactExists reports whether the backend-side directory for a record is
// still present, used by registry reconciliation.
func (l *Local) ArtifactExists(ctx context.Context, rec registry.Record) bool {
	info, err := os.Stat(rec.Workspace)
	return err == nil && info.IsDir()
}

var (
	_ Backend         = (*Local)(nil)
	_ ArtifactChecker = (*Local)(nil)
)
