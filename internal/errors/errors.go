package errors

import (
	"errors"
	"fmt"
)

// Exit codes for containify
const (
	ExitSuccess            = 0
	ExitGeneralError       = 1
	ExitValidation         = 2
	ExitDuplicateName      = 3
	ExitNotFound           = 4
	ExitBackendUnavailable = 5
	ExitProvisionFailed    = 6
	ExitDestroyFailed      = 7
	ExitRunFailed          = 8
	ExitInstallFailed      = 9
)

// ContainifyError is the base error type for containify
type ContainifyError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ContainifyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ContainifyError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *ContainifyError) ExitCode() int {
	return e.Code
}

// New creates a new ContainifyError
func New(code int, message string) *ContainifyError {
	return &ContainifyError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ContainifyError
func Wrap(code int, message string, cause error) *ContainifyError {
	return &ContainifyError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// DuplicateName returns an error for a container name that is already registered
func DuplicateName(name string) *ContainifyError {
	return New(ExitDuplicateName, fmt.Sprintf("container already exists: %s", name))
}

// NotFound returns an error for a missing container
func NotFound(name string) *ContainifyError {
	return New(ExitNotFound, fmt.Sprintf("container not found: %s", name))
}

// BackendUnavailable returns an error when a backend daemon cannot be reached.
// Kept distinct from provisioning failures so callers can start the daemon or
// fall back to another backend.
func BackendUnavailable(backend string, cause error) *ContainifyError {
	return Wrap(ExitBackendUnavailable, fmt.Sprintf("%s backend unavailable", backend), cause)
}

// ProvisionFailed returns an error for container provisioning failures
func ProvisionFailed(name string, cause error) *ContainifyError {
	return Wrap(ExitProvisionFailed, fmt.Sprintf("failed to provision container %s", name), cause)
}

// DestroyFailed returns an error for container teardown failures
func DestroyFailed(name string, cause error) *ContainifyError {
	return Wrap(ExitDestroyFailed, fmt.Sprintf("failed to destroy container %s", name), cause)
}

// RunFailed returns an error when a command could not be started inside a
// container. A non-zero exit code from the command itself is not a RunFailed.
func RunFailed(name string, cause error) *ContainifyError {
	return Wrap(ExitRunFailed, fmt.Sprintf("failed to run command in container %s", name), cause)
}

// InstallFailed returns an error when package installation fails, carrying the
// underlying installer's message
func InstallFailed(name string, cause error) *ContainifyError {
	return Wrap(ExitInstallFailed, fmt.Sprintf("failed to install packages in container %s", name), cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *ContainifyError {
	return New(ExitValidation, message)
}

// InvalidResourceValue returns an error for a bad resource limit value
func InvalidResourceValue(field, value string) *ContainifyError {
	return New(ExitValidation, fmt.Sprintf("invalid %s value %q: must be a positive size", field, value))
}

// PartialDestroy reports backend residue that could not be removed. The
// registry record is still removed so the name becomes reusable; callers
// surface this as a warning rather than a failure.
type PartialDestroy struct {
	Name    string
	Residue string
	Cause   error
}

func (e *PartialDestroy) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("container %s destroyed with residue (%s): %v", e.Name, e.Residue, e.Cause)
	}
	return fmt.Sprintf("container %s destroyed with residue (%s)", e.Name, e.Residue)
}

func (e *PartialDestroy) Unwrap() error {
	return e.Cause
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var cerr *ContainifyError
	if errors.As(err, &cerr) {
		return cerr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
