// Package logging provides logging utilities for containify.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("provisioning container", "name", name, "backend", kind)
//	logging.Warn("registry record is stale", "name", name)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Pulling image %s...", image)
//	logging.UserSuccess("Container %s created", name)
//	logging.UserWarning("RAM limit is advisory on the local backend")
//	logging.UserError("Failed to destroy container: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
package logging
