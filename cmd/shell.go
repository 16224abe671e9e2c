package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/containify/containify/internal/logging"
)

var shellCmd = &cobra.Command{
	Use:   "shell <name>",
	Short: "Open an interactive shell inside a container",
	Args:  cobra.ExactArgs(1),
	RunE:  runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	name := args[0]

	m, err := newManager()
	if err != nil {
		return err
	}

	logging.Debug("opening shell", "name", name)

	code, err := m.Shell(cmd.Context(), name)
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
