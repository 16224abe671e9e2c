// Package resource defines the backend-agnostic resource-limit model.
//
// A Spec describes requested RAM, storage and CPU limits uniformly for every
// backend. Backends interpret an unbounded field as "do not pass a limit",
// never as a numeric zero. How strictly a limit is honored is reported back
// at provision time as an Enforcement level.
package resource

import (
	"fmt"
	"strconv"
	"strings"

	units "github.com/docker/go-units"

	"github.com/containify/containify/internal/errors"
)

// Unbounded is the sentinel for a limit that was not requested.
const Unbounded = 0

// Spec describes requested resource limits. A zero field means unbounded.
// Specs are immutable after creation; changing a container's limits requires
// destroy and recreate.
type Spec struct {
	RAMMB      int64 `json:"ram_mb"`
	StorageMB  int64 `json:"storage_mb"`
	CPUPercent int   `json:"cpu_percent"`
}

// Enforcement reports how strictly a backend honors a Spec.
type Enforcement int

const (
	// EnforcementExact means the limits are guaranteed by the isolation
	// runtime (cgroups via the docker daemon).
	EnforcementExact Enforcement = iota

	// EnforcementAdvisory means the limits are recorded and applied where
	// the OS exposes a lightweight mechanism, but not guaranteed.
	EnforcementAdvisory
)

func (e Enforcement) String() string {
	switch e {
	case EnforcementExact:
		return "exact"
	case EnforcementAdvisory:
		return "advisory"
	default:
		return "unknown"
	}
}

// Parse builds a Spec from the raw CLI argument strings. Size arguments
// accept a plain integer (megabytes) or a go-units size string like "512m"
// or "2g". An empty string or the literal "unbounded" leaves the field
// unbounded. Zero, negative or non-numeric values are rejected.
func Parse(ram, storage, cpu string) (Spec, error) {
	var spec Spec

	ramMB, err := parseSizeMB("ram", ram)
	if err != nil {
		return Spec{}, err
	}
	spec.RAMMB = ramMB

	storageMB, err := parseSizeMB("storage", storage)
	if err != nil {
		return Spec{}, err
	}
	spec.StorageMB = storageMB

	cpuPercent, err := parseCPUPercent(cpu)
	if err != nil {
		return Spec{}, err
	}
	spec.CPUPercent = cpuPercent

	return spec, nil
}

// parseSizeMB converts a size argument to whole megabytes.
func parseSizeMB(field, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "unbounded") {
		return Unbounded, nil
	}

	// A bare integer is megabytes, matching the historical CLI contract.
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n <= 0 {
			return 0, errors.InvalidResourceValue(field, value)
		}
		return n, nil
	}

	bytes, err := units.RAMInBytes(value)
	if err != nil || bytes <= 0 {
		return 0, errors.InvalidResourceValue(field, value)
	}

	mb := bytes / units.MiB
	if mb <= 0 {
		return 0, errors.InvalidResourceValue(field, value)
	}
	return mb, nil
}

// parseCPUPercent converts a CPU argument to a percentage of one logical CPU.
func parseCPUPercent(value string) (int, error) {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))
	if value == "" || strings.EqualFold(value, "unbounded") {
		return Unbounded, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.InvalidResourceValue("cpu", value)
	}
	if n <= 0 || n > 100 {
		return 0, errors.ValidationError(fmt.Sprintf("invalid cpu value %q: must be in (0, 100]", value))
	}
	return n, nil
}

// RAMBytes returns the RAM limit in bytes, or 0 if unbounded.
func (s Spec) RAMBytes() int64 {
	return s.RAMMB * units.MiB
}

// StorageBytes returns the storage limit in bytes, or 0 if unbounded.
func (s Spec) StorageBytes() int64 {
	return s.StorageMB * units.MiB
}

// String renders the spec for tables and logs.
func (s Spec) String() string {
	part := func(mb int64) string {
		if mb == Unbounded {
			return "-"
		}
		return units.BytesSize(float64(mb * units.MiB))
	}
	cpuPart := "-"
	if s.CPUPercent != Unbounded {
		cpuPart = fmt.Sprintf("%d%%", s.CPUPercent)
	}
	return fmt.Sprintf("ram=%s storage=%s cpu=%s", part(s.RAMMB), part(s.StorageMB), cpuPart)
}
