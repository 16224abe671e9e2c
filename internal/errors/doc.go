// Package errors provides typed errors with exit codes for containify.
//
// # Error Types
//
// ContainifyError is the base error type that wraps an error with an exit code:
//
//	type ContainifyError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
// Defined exit codes for different error categories:
//
//	ExitSuccess            = 0  // Success
//	ExitGeneralError       = 1  // General/unknown errors
//	ExitValidation         = 2  // Bad name or resource value
//	ExitDuplicateName      = 3  // Container name already registered
//	ExitNotFound           = 4  // Container does not exist
//	ExitBackendUnavailable = 5  // Backend daemon unreachable
//	ExitProvisionFailed    = 6  // Provisioning failed
//	ExitDestroyFailed      = 7  // Teardown failed
//	ExitRunFailed          = 8  // Command could not be started
//	ExitInstallFailed      = 9  // Package installation failed
//
// The run and shell commands pass the child process's own exit code through
// unchanged; these codes only apply to containify's own failures.
//
// # Error Constructors
//
// Use the provided constructors for consistent error creation:
//
//	errors.DuplicateName("myapp")
//	errors.NotFound("myapp")
//	errors.BackendUnavailable("docker", err)
//	errors.ProvisionFailed("myapp", err)
//
// # Extracting Exit Codes
//
// Use GetExitCode to extract the exit code from an error chain:
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
