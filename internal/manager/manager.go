// Package manager orchestrates the registry and the isolation backends
// behind the container lifecycle: create, run, shell, install, destroy,
// list. The registry is the single source of truth for existence; backends
// only execute.
package manager

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/containify/containify/internal/backend"
	"github.com/containify/containify/internal/config"
	"github.com/containify/containify/internal/errors"
	"github.com/containify/containify/internal/logging"
	"github.com/containify/containify/internal/registry"
	"github.com/containify/containify/internal/resource"
)

// Resolver produces the backend implementation for a kind. The docker
// backend connects lazily so a stopped daemon only matters for docker-backed
// operations.
type Resolver func(ctx context.Context, kind registry.Kind) (backend.Backend, error)

// Manager implements the container lifecycle over a registry store and a
// set of backends.
type Manager struct {
	paths   *config.Paths
	store   *registry.Store
	resolve Resolver
}

// Option configures a Manager.
type Option func(*Manager)

// WithResolver sets a custom backend resolver. Tests use this to inject
// mock backends.
func WithResolver(r Resolver) Option {
	return func(m *Manager) {
		m.resolve = r
	}
}

// WithBackend routes every kind to one fixed backend.
func WithBackend(b backend.Backend) Option {
	return func(m *Manager) {
		m.resolve = func(ctx context.Context, kind registry.Kind) (backend.Backend, error) {
			return b, nil
		}
	}
}

func defaultResolver(ctx context.Context, kind registry.Kind) (backend.Backend, error) {
	switch kind {
	case registry.KindLocal:
		return backend.NewLocal(), nil
	case registry.KindDocker:
		return backend.NewDocker(ctx)
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown backend %q", kind))
	}
}

// New builds a Manager for a root directory layout, creates the layout if
// needed, and reconciles the registry against on-disk state. The returned
// warnings describe records marked stale during reconciliation.
func New(paths *config.Paths, opts ...Option) (*Manager, []string, error) {
	if err := paths.EnsureLayout(); err != nil {
		return nil, nil, err
	}

	m := &Manager{
		paths:   paths,
		store:   registry.Open(paths.RegistryPath),
		resolve: defaultResolver,
	}
	for _, opt := range opts {
		opt(m)
	}

	// Repair step: runs once at start-up. The record's backend verifies its
	// own artifact (the docker backend also consults the daemon's instance
	// list); an unreachable backend degrades to the host-side check, since
	// both backends keep a workspace directory.
	warnings, err := m.store.Reconcile(m.artifactCheck(context.Background()))
	if err != nil {
		return nil, nil, err
	}

	return m, warnings, nil
}

// artifactCheck builds the reconcile callback. Backends resolve lazily and
// once per kind, so a registry without docker records never dials the daemon.
func (m *Manager) artifactCheck(ctx context.Context) func(registry.Record) bool {
	backends := make(map[registry.Kind]backend.Backend)

	return func(rec registry.Record) bool {
		b, seen := backends[rec.Backend]
		if !seen {
			var err error
			b, err = m.resolve(ctx, rec.Backend)
			if err != nil {
				logging.Debug("backend unavailable during reconcile", "backend", rec.Backend, "error", err)
				b = nil
			}
			backends[rec.Backend] = b
		}

		if c, ok := b.(backend.ArtifactChecker); ok {
			return c.ArtifactExists(ctx, rec)
		}

		info, statErr := os.Stat(rec.Workspace)
		return statErr == nil && info.IsDir()
	}
}

// Store exposes the registry store for read paths in the CLI.
func (m *Manager) Store() *registry.Store {
	return m.store
}

// CreateOptions are the inputs to Create.
type CreateOptions struct {
	Name  string
	Spec  resource.Spec
	Kind  registry.Kind
	Image string
}

// Create provisions a new container and registers it. It is synchronous:
// it returns only after the record is Ready or the attempt failed with all
// backend artifacts rolled back. The registry's exclusive lock is held for
// the whole duplicate-check, provision, insert sequence, so concurrent
// creates for one name cannot both succeed.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (registry.Record, []string, error) {
	if err := config.ValidateName(opts.Name); err != nil {
		return registry.Record{}, nil, errors.ValidationError(err.Error())
	}
	if !opts.Kind.Valid() {
		return registry.Record{}, nil, errors.ValidationError(fmt.Sprintf("unknown backend %q", opts.Kind))
	}

	workspace, err := m.paths.WorkspacePath(opts.Name)
	if err != nil {
		return registry.Record{}, nil, errors.ValidationError(err.Error())
	}

	var (
		rec      registry.Record
		warnings []string
	)

	err = m.store.Mutate(func(tx *registry.Tx) error {
		// Duplicate check happens before any backend work.
		if tx.Exists(opts.Name) {
			return errors.DuplicateName(opts.Name)
		}

		b, err := m.resolve(ctx, opts.Kind)
		if err != nil {
			return err
		}

		rec = registry.Record{
			Name:      opts.Name,
			Backend:   opts.Kind,
			Resources: opts.Spec,
			Workspace: workspace,
			Image:     opts.Image,
			CreatedAt: time.Now().UTC(),
			Status:    registry.StatusProvisioning,
		}

		result, err := b.Provision(ctx, rec)
		if err != nil {
			// The backend rolled back its artifacts; the record is
			// discarded, never persisted.
			return err
		}

		rec.Status = registry.StatusReady
		rec.Enforcement = result.Enforcement.String()
		warnings = result.Warnings

		logging.Debug("container provisioned",
			"name", rec.Name, "backend", rec.Backend, "enforcement", rec.Enforcement)

		return tx.Insert(rec)
	})
	if err != nil {
		return registry.Record{}, nil, err
	}

	return rec, warnings, nil
}

// Destroy tears down a container and removes its record. Destroying an
// absent name succeeds, so destroy can be retried safely. The record is
// removed even on PartialDestroy so the name becomes reusable; the residue
// is returned as a warning.
func (m *Manager) Destroy(ctx context.Context, name string) ([]string, error) {
	var warnings []string

	err := m.store.Mutate(func(tx *registry.Tx) error {
		rec, err := tx.Get(name)
		if err != nil {
			if errors.GetExitCode(err) == errors.ExitNotFound {
				logging.Debug("container already absent", "name", name)
				return nil
			}
			return err
		}

		b, err := m.resolve(ctx, rec.Backend)
		if err != nil {
			return err
		}

		if err := b.Destroy(ctx, rec); err != nil {
			var pd *errors.PartialDestroy
			if errors.As(err, &pd) {
				warnings = append(warnings, pd.Error())
			} else {
				return errors.DestroyFailed(name, err)
			}
		}

		return tx.Remove(name)
	})
	if err != nil {
		return nil, err
	}

	return warnings, nil
}

// ready loads a record and checks it is usable for shell/run/install.
func (m *Manager) ready(name string) (registry.Record, error) {
	rec, err := m.store.Get(name)
	if err != nil {
		return registry.Record{}, err
	}
	if rec.Status != registry.StatusReady {
		return registry.Record{}, errors.New(errors.ExitGeneralError,
			fmt.Sprintf("container %s is not ready (status %s); destroy and recreate it", name, rec.Status))
	}
	return rec, nil
}

// Run executes argv inside a container and returns the child's exit code.
// An interrupted run leaves the record untouched: the container stays Ready.
func (m *Manager) Run(ctx context.Context, name string, argv []string) (int, error) {
	rec, err := m.ready(name)
	if err != nil {
		return 0, err
	}

	b, err := m.resolve(ctx, rec.Backend)
	if err != nil {
		return 0, err
	}
	return b.Run(ctx, rec, argv)
}

// Shell opens an interactive session in a container and returns the
// session's exit code.
func (m *Manager) Shell(ctx context.Context, name string) (int, error) {
	rec, err := m.ready(name)
	if err != nil {
		return 0, err
	}

	b, err := m.resolve(ctx, rec.Backend)
	if err != nil {
		return 0, err
	}
	return b.OpenShell(ctx, rec)
}

// Install installs packages into a container's dependency environment.
// Install failures never change the record's status.
func (m *Manager) Install(ctx context.Context, name string, pkgs []string) error {
	if len(pkgs) == 0 {
		return errors.ValidationError("at least one package name is required")
	}

	rec, err := m.ready(name)
	if err != nil {
		return err
	}

	b, err := m.resolve(ctx, rec.Backend)
	if err != nil {
		return err
	}
	return b.Install(ctx, rec, pkgs)
}

// Get returns the record for a name.
func (m *Manager) Get(name string) (registry.Record, error) {
	return m.store.Get(name)
}

// List returns all records ordered by creation time.
func (m *Manager) List() ([]registry.Record, error) {
	return m.store.List()
}
