package cmd

import (
	"github.com/spf13/cobra"

	"github.com/containify/containify/internal/logging"
)

var destroyCmd = &cobra.Command{
	Use:   "destroy <name>",
	Short: "Destroy a container environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runDestroy,
}

func init() {
	rootCmd.AddCommand(destroyCmd)
}

func runDestroy(cmd *cobra.Command, args []string) error {
	name := args[0]

	m, err := newManager()
	if err != nil {
		return err
	}

	logging.Debug("destroying container", "name", name)
	logInfo("Destroying container %s...", name)

	warnings, err := m.Destroy(cmd.Context(), name)
	if err != nil {
		return err
	}

	for _, w := range warnings {
		logWarning("  %s", w)
	}

	logSuccess("Destroyed container %s", name)
	return nil
}
