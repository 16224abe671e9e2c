package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"github.com/containify/containify/internal/errors"
	"github.com/containify/containify/internal/logging"
)

// Store is the durable registry mapping container names to records. It is
// the single source of truth for "does container X exist"; backends are
// never queried to answer that question.
//
// The backing file is JSON under the root directory. Mutations take an
// exclusive flock on a sidecar lock file for the whole read-modify-write, so
// two concurrent creates for the same name cannot both succeed. Reads take a
// shared lock for a consistent snapshot. Writes go through a temp file and
// rename so readers never observe a torn state.
type Store struct {
	path     string
	lockPath string
}

// state is the on-disk document.
type state struct {
	Containers []Record `json:"containers"`
}

// Open returns a Store for the registry file. No I/O happens until the first
// operation; a missing file reads as an empty registry.
func Open(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

func (s *Store) acquire(exclusive bool) (*os.File, error) {
	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry lock: %w", err)
	}

	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock registry: %w", err)
	}
	return f, nil
}

func release(f *os.File) {
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	_ = f.Close()
}

func (s *Store) load() (*state, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &state{}, nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("registry file %s is corrupt: %w", s.path, err)
	}
	return &st, nil
}

func (s *Store) save(st *state) error {
	sort.Slice(st.Containers, func(i, j int) bool {
		return st.Containers[i].CreatedAt.Before(st.Containers[j].CreatedAt)
	})

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".registry-*")
	if err != nil {
		return fmt.Errorf("failed to create registry temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close registry temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}

// Tx is a view of the registry state inside a Mutate call.
type Tx struct {
	st *state
}

// Exists reports whether a record with the name is registered.
func (tx *Tx) Exists(name string) bool {
	for i := range tx.st.Containers {
		if tx.st.Containers[i].Name == name {
			return true
		}
	}
	return false
}

// Get returns the record for a name.
func (tx *Tx) Get(name string) (Record, error) {
	for i := range tx.st.Containers {
		if tx.st.Containers[i].Name == name {
			return tx.st.Containers[i], nil
		}
	}
	return Record{}, errors.NotFound(name)
}

// Insert adds a record, failing if the name is already registered.
func (tx *Tx) Insert(rec Record) error {
	if tx.Exists(rec.Name) {
		return errors.DuplicateName(rec.Name)
	}
	tx.st.Containers = append(tx.st.Containers, rec)
	return nil
}

// Remove deletes the record for a name.
func (tx *Tx) Remove(name string) error {
	for i := range tx.st.Containers {
		if tx.st.Containers[i].Name == name {
			tx.st.Containers = append(tx.st.Containers[:i], tx.st.Containers[i+1:]...)
			return nil
		}
	}
	return errors.NotFound(name)
}

// Mutate runs fn under the exclusive registry lock and persists the state if
// fn succeeds. The lock is held for the whole read-modify-write, including
// any backend work fn performs, which is what keeps concurrent creates for
// the same name from both succeeding.
func (s *Store) Mutate(fn func(tx *Tx) error) error {
	f, err := s.acquire(true)
	if err != nil {
		return err
	}
	defer release(f)

	st, err := s.load()
	if err != nil {
		return err
	}

	if err := fn(&Tx{st: st}); err != nil {
		return err
	}

	return s.save(st)
}

// Insert adds a record, failing with DuplicateName if the name is taken.
func (s *Store) Insert(rec Record) error {
	return s.Mutate(func(tx *Tx) error {
		return tx.Insert(rec)
	})
}

// Get returns the record for a name.
func (s *Store) Get(name string) (Record, error) {
	f, err := s.acquire(false)
	if err != nil {
		return Record{}, err
	}
	defer release(f)

	st, err := s.load()
	if err != nil {
		return Record{}, err
	}
	return (&Tx{st: st}).Get(name)
}

// Remove deletes the record for a name.
func (s *Store) Remove(name string) error {
	return s.Mutate(func(tx *Tx) error {
		return tx.Remove(name)
	})
}

// List returns all records ordered by creation time.
func (s *Store) List() ([]Record, error) {
	f, err := s.acquire(false)
	if err != nil {
		return nil, err
	}
	defer release(f)

	st, err := s.load()
	if err != nil {
		return nil, err
	}

	sort.Slice(st.Containers, func(i, j int) bool {
		return st.Containers[i].CreatedAt.Before(st.Containers[j].CreatedAt)
	})
	return st.Containers, nil
}

// Reconcile compares every record against live backend state at manager
// start-up. Records whose backend-side artifact is missing are marked stale
// and reported as warnings; they are never silently deleted. The check
// function returns false when a record's artifact is gone.
func (s *Store) Reconcile(check func(Record) bool) ([]string, error) {
	var warnings []string

	err := s.Mutate(func(tx *Tx) error {
		for i := range tx.st.Containers {
			rec := &tx.st.Containers[i]
			if rec.Status != StatusReady {
				continue
			}
			if check(*rec) {
				continue
			}
			rec.Status = StatusStale
			logging.Warn("registry record is stale", "name", rec.Name, "workspace", rec.Workspace)
			warnings = append(warnings, fmt.Sprintf("container %s: backend artifact missing at %s", rec.Name, rec.Workspace))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return warnings, nil
}
