// Package backend defines the isolation backends for containify.
// Each backend realizes a container as a workspace with its own dependency
// environment: the local backend with a directory and a python venv, the
// docker backend with a runtime instance managed by the docker daemon.
package backend

import (
	"context"

	"github.com/containify/containify/internal/registry"
	"github.com/containify/containify/internal/resource"
)

// ProvisionResult reports what a successful provision actually achieved.
type ProvisionResult struct {
	// Enforcement is the guarantee level for the record's resource limits:
	// exact when delegated to the docker daemon, advisory for the local
	// backend.
	Enforcement resource.Enforcement

	// Warnings describe limits that could only be partially applied. They
	// are surfaced to the caller, never silently dropped.
	Warnings []string
}

// Backend is the capability set every isolation backend implements. The
// manager dispatches on a record's backend kind and never branches on the
// kind itself, so adding a backend is additive.
//
// All operations honor context cancellation by propagating it to spawned
// sessions and processes; cancellation never mutates registry state.
type Backend interface {
	// Kind returns the backend identifier.
	Kind() registry.Kind

	// Provision creates the isolation unit for a record. If any step fails,
	// artifacts already created for this record are rolled back before the
	// error is returned, so the registry is never left pointing at a
	// half-built container.
	Provision(ctx context.Context, rec registry.Record) (*ProvisionResult, error)

	// Destroy tears down all backend-side artifacts. Destroy is idempotent:
	// an already-absent artifact is a success. Residue that could not be
	// removed is reported as *errors.PartialDestroy.
	Destroy(ctx context.Context, rec registry.Record) error

	// OpenShell attaches an interactive session scoped to the record's
	// workspace, blocking until the session ends, and returns the session's
	// exit code.
	OpenShell(ctx context.Context, rec registry.Record) (int, error)

	// Run executes argv non-interactively inside the isolation unit,
	// re-applying the record's resource limits at execution time. The
	// child's exit code is returned unchanged; only a transport failure
	// (the process could not be started) is an error.
	Run(ctx context.Context, rec registry.Record, argv []string) (int, error)

	// Install installs packages into the record's isolated dependency
	// environment. The names list must be non-empty.
	Install(ctx context.Context, rec registry.Record, names []string) error
}

// ArtifactChecker is implemented by backends that can report whether a
// record's backend-side artifact still exists. Registry reconciliation uses
// it at start-up to mark orphaned records stale.
type ArtifactChecker interface {
	ArtifactExists(ctx context.Context, rec registry.Record) bool
}

// InstanceLister is implemented by backends whose isolation units live in an
// external runtime that can be enumerated.
type InstanceLister interface {
	// ListInstances returns the instance names this backend manages.
	ListInstances(ctx context.Context) ([]string, error)
}
