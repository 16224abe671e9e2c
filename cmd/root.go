package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/containify/containify/internal/logging"
)

var (
	rootDir    string
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "containify",
	Short: "Folder-backed container environment manager",
	Long: `containify manages lightweight container environments under a root directory.

Each container has:
  - A host folder workspace
  - An isolated dependency environment
  - Resource limits (RAM, storage, CPU) enforced as strictly as its backend allows

Backends: local (directory + venv, advisory limits) and docker (daemon-enforced limits).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Root directory for container state (default $CONTAINIFY_ROOT or /containify)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	_          = logging.UserError // reserved for future use
)
