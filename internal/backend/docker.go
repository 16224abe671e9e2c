package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/containify/containify/internal/config"
	"github.com/containify/containify/internal/errors"
	"github.com/containify/containify/internal/logging"
	"github.com/containify/containify/internal/registry"
	"github.com/containify/containify/internal/resource"
)

const (
	// DefaultImage is the base image when neither the record, settings nor
	// environment select one.
	DefaultImage = "python:3.11-slim"

	// labelManagedBy marks instances created by containify so externally
	// created instances are never touched.
	labelManagedBy = "containify.managed-by"

	pingTimeout = 5 * time.Second
)

// Docker realizes a container as a named runtime instance with resource
// limits delegated to the daemon's cgroup enforcement. The workspace
// directory is bind-mounted at /workspace inside the instance, which is kept
// alive with a sleep command so exec sessions have a target.
type Docker struct {
	cli *client.Client
}

// NewDocker connects to the docker daemon. An unreachable daemon yields
// BackendUnavailable, distinct from resource failures, so callers can start
// the daemon or fall back to the local backend.
func NewDocker(ctx context.Context) (*Docker, error) {
	cli, err := connect(ctx)
	if err != nil {
		return nil, errors.BackendUnavailable("docker", err)
	}
	return &Docker{cli: cli}, nil
}

// connect creates a docker client, trying the environment configuration
// first and then common socket locations.
func connect(ctx context.Context) (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if _, err := cli.Ping(pingCtx); err == nil {
			return cli, nil
		}
		cli.Close()
	}

	socketPaths := []string{
		"unix:///var/run/docker.sock",
		"unix://" + os.Getenv("HOME") + "/.docker/run/docker.sock",
	}

	for _, socketPath := range socketPaths {
		cli, err := client.NewClientWithOpts(
			client.WithHost(socketPath),
			client.WithAPIVersionNegotiation(),
		)
		if err != nil {
			continue
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		_, err = cli.Ping(pingCtx)
		cancel()

		if err == nil {
			return cli, nil
		}
		cli.Close()
	}

	return nil, fmt.Errorf("could not connect to docker daemon")
}

// Close closes the daemon connection.
func (d *Docker) Close() error {
	if d.cli != nil {
		return d.cli.Close()
	}
	return nil
}

// Kind returns the backend identifier.
func (d *Docker) Kind() registry.Kind {
	return registry.KindDocker
}

// instanceName derives the one-to-one docker name for a record.
func instanceName(rec registry.Record) string {
	return config.ContainerPrefix + rec.Name
}

// hostResources translates a resource spec into the daemon's limit fields.
// Unbounded fields are left zero so no limit flag is passed.
func hostResources(spec resource.Spec) container.Resources {
	res := container.Resources{
		Memory: spec.RAMBytes(),
	}
	if spec.CPUPercent != resource.Unbounded {
		// CPUPercent is a share of one logical CPU.
		res.NanoCPUs = int64(spec.CPUPercent) * 1e9 / 100
	}
	return res
}

// Provision pulls the base image and creates a named, running instance with
// the record's limits. Any partially created artifact is removed before an
// error is returned.
func (d *Docker) Provision(ctx context.Context, rec registry.Record) (*ProvisionResult, error) {
	name := instanceName(rec)
	logging.Debug("provisioning docker container", "name", rec.Name, "instance", name)

	if err := os.MkdirAll(workspaceDir(rec), 0o755); err != nil {
		return nil, errors.ProvisionFailed(rec.Name, err)
	}

	rollback := func(removeInstance bool) {
		if removeInstance {
			_ = d.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
		}
		if err := os.RemoveAll(rec.Workspace); err != nil {
			logging.Warn("failed to roll back workspace", "path", rec.Workspace, "error", err)
		}
	}

	img := rec.Image
	if img == "" {
		img = DefaultImage
	}

	if err := d.ensureImage(ctx, img); err != nil {
		rollback(false)
		return nil, errors.ProvisionFailed(rec.Name, fmt.Errorf("failed to pull image %s: %w", img, err))
	}

	cfg := &container.Config{
		Image:      img,
		WorkingDir: "/workspace",
		Tty:        true,
		OpenStdin:  true,
		Cmd:        []string{"sleep", "infinity"},
		Labels: map[string]string{
			labelManagedBy: "containify",
		},
	}

	hostCfg := &container.HostConfig{
		Resources: hostResources(rec.Resources),
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: workspaceDir(rec),
				Target: "/workspace",
			},
		},
	}
	if rec.Resources.StorageMB != resource.Unbounded {
		// Writable-layer size cap; requires daemon storage driver support.
		hostCfg.StorageOpt = map[string]string{
			"size": fmt.Sprintf("%dm", rec.Resources.StorageMB),
		}
	}

	resp, err := d.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		rollback(false)
		return nil, errors.ProvisionFailed(rec.Name, err)
	}

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		rollback(true)
		return nil, errors.ProvisionFailed(rec.Name, err)
	}

	return &ProvisionResult{Enforcement: resource.EnforcementExact}, nil
}

// ensureImage pulls an image unless it is already present.
func (d *Docker) ensureImage(ctx context.Context, imageName string) error {
	if _, _, err := d.cli.ImageInspectWithRaw(ctx, imageName); err == nil {
		return nil
	}

	logging.UserInfo("Pulling image %s...", imageName)
	reader, err := d.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()

	// The pull completes when the progress stream is drained.
	_, err = io.Copy(io.Discard, reader)
	return err
}

// Destroy force-removes the instance and the host-side workspace. An
// externally removed instance is a success; residue that could not be
// removed is reported as PartialDestroy.
func (d *Docker) Destroy(ctx context.Context, rec registry.Record) error {
	name := instanceName(rec)
	logging.Debug("destroying docker container", "name", rec.Name, "instance", name)

	err := d.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil && !errdefs.IsNotFound(err) {
		// Still reclaim the host side so the name becomes reusable.
		_ = os.RemoveAll(rec.Workspace)
		return &errors.PartialDestroy{Name: rec.Name, Residue: "docker instance " + name, Cause: err}
	}

	if _, statErr := os.Stat(rec.Workspace); os.IsNotExist(statErr) {
		return nil
	}
	if err := os.RemoveAll(rec.Workspace); err != nil {
		return &errors.PartialDestroy{Name: rec.Name, Residue: rec.Workspace, Cause: err}
	}
	return nil
}

// ensureRunning starts the instance if it is stopped.
func (d *Docker) ensureRunning(ctx context.Context, name string) error {
	inspect, err := d.cli.ContainerInspect(ctx, name)
	if err != nil {
		return err
	}
	if inspect.State != nil && inspect.State.Running {
		return nil
	}
	return d.cli.ContainerStart(ctx, name, container.StartOptions{})
}

// Run executes argv through the daemon's exec primitive, streaming output
// and returning the exec's exit code unchanged. The instance's limits were
// set at create time, so the daemon re-applies them to every exec.
func (d *Docker) Run(ctx context.Context, rec registry.Record, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, errors.RunFailed(rec.Name, fmt.Errorf("empty command"))
	}

	name := instanceName(rec)
	logging.Debug("running command in docker container", "name", rec.Name, "argv", argv)

	if err := d.ensureRunning(ctx, name); err != nil {
		return 0, errors.RunFailed(rec.Name, err)
	}

	execResp, err := d.cli.ContainerExecCreate(ctx, name, container.ExecOptions{
		Cmd:          argv,
		WorkingDir:   "/workspace",
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 0, errors.RunFailed(rec.Name, err)
	}

	attach, err := d.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return 0, errors.RunFailed(rec.Name, err)
	}
	defer attach.Close()

	if _, err := stdcopy.StdCopy(os.Stdout, os.Stderr, attach.Reader); err != nil && err != io.EOF {
		return 0, errors.RunFailed(rec.Name, err)
	}

	inspect, err := d.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return 0, errors.RunFailed(rec.Name, err)
	}
	return inspect.ExitCode, nil
}

// OpenShell attaches an interactive shell through the docker CLI, which owns
// the TTY plumbing, and returns the session's exit code.
func (d *Docker) OpenShell(ctx context.Context, rec registry.Record) (int, error) {
	name := instanceName(rec)
	logging.Debug("opening shell in docker container", "name", rec.Name, "instance", name)

	if err := d.ensureRunning(ctx, name); err != nil {
		return 0, errors.RunFailed(rec.Name, err)
	}

	dockerCLI, err := exec.LookPath("docker")
	if err != nil {
		return 0, errors.RunFailed(rec.Name, fmt.Errorf("docker CLI not found for interactive session: %w", err))
	}

	cmd := exec.CommandContext(ctx, dockerCLI, "exec", "-it", name, "/bin/bash")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Run()
	if code, ok := exitCode(err); ok {
		return code, nil
	}
	return 0, errors.RunFailed(rec.Name, err)
}

// Install installs packages with pip inside the instance.
func (d *Docker) Install(ctx context.Context, rec registry.Record, names []string) error {
	if len(names) == 0 {
		return errors.ValidationError("no packages to install")
	}

	logging.Debug("installing packages in docker container", "name", rec.Name, "packages", names)

	argv := append([]string{"python", "-m", "pip", "install"}, names...)
	code, err := d.Run(ctx, rec, argv)
	if err != nil {
		return errors.InstallFailed(rec.Name, err)
	}
	if code != 0 {
		return errors.InstallFailed(rec.Name, fmt.Errorf("pip exited with code %d", code))
	}
	return nil
}

// ListInstances returns the names of containify-managed instances known to
// the daemon.
func (d *Docker) ListInstances(ctx context.Context) ([]string, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", labelManagedBy+"=containify"),
		),
	})
	if err != nil {
		return nil, err
	}

	var names []string
	for _, c := range containers {
		for _, n := range c.Names {
			// The API reports names with a leading slash.
			names = append(names, strings.TrimPrefix(n, "/"))
		}
	}
	return names, nil
}

// ArtifactExists verifies both the host-side workspace and the daemon-side
// instance. An unreachable daemon degrades to the workspace check alone, so
// a stopped daemon never marks records stale.
func (d *Docker) ArtifactExists(ctx context.Context, rec registry.Record) bool {
	info, err := os.Stat(rec.Workspace)
	if err != nil || !info.IsDir() {
		return false
	}

	instances, err := d.ListInstances(ctx)
	if err != nil {
		logging.Debug("skipping daemon-side artifact check", "name", rec.Name, "error", err)
		return true
	}
	for _, n := range instances {
		if n == instanceName(rec) {
			return true
		}
	}
	return false
}

var (
	_ Backend         = (*Docker)(nil)
	_ ArtifactChecker = (*Docker)(nil)
	_ InstanceLister  = (*Docker)(nil)
)
