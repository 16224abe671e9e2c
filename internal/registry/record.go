package registry

import (
	"time"

	"github.com/containify/containify/internal/resource"
)

// Kind identifies which backend executes a container.
type Kind string

const (
	KindLocal  Kind = "local"
	KindDocker Kind = "docker"
)

// Valid reports whether k names a known backend.
func (k Kind) Valid() bool {
	return k == KindLocal || k == KindDocker
}

// Status is the lifecycle state of a container record.
type Status string

const (
	// StatusProvisioning is the transient state while a backend builds the
	// container. Never visible in the persisted registry: records are only
	// written once provisioning succeeds.
	StatusProvisioning Status = "provisioning"

	// StatusReady means the container is usable.
	StatusReady Status = "ready"

	// StatusStale means the registry holds the record but the backend-side
	// artifact went missing. Set by reconciliation, surfaced as a warning.
	StatusStale Status = "stale"

	// StatusDestroyed is the terminal state. Destroyed records are removed
	// from the registry, not retained as tombstones.
	StatusDestroyed Status = "destroyed"
)

// Record is the persisted metadata for one container. Fields other than
// Status are immutable once the record reaches StatusReady; changing limits
// requires destroy and recreate.
type Record struct {
	Name        string        `json:"name"`
	Backend     Kind          `json:"backend"`
	Resources   resource.Spec `json:"resources"`
	Workspace   string        `json:"workspace"`
	Image       string        `json:"image,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Status      Status        `json:"status"`
	Enforcement string        `json:"enforcement,omitempty"`
}
