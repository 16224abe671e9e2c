package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/containify/containify/internal/logging"
)

var installCmd = &cobra.Command{
	Use:   "install <name> <package>...",
	Short: "Install packages into a container's dependency environment",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	name := args[0]
	pkgs := args[1:]

	m, err := newManager()
	if err != nil {
		return err
	}

	logging.Debug("installing packages", "name", name, "packages", pkgs)
	logInfo("Installing %s into %s...", strings.Join(pkgs, " "), name)

	if err := m.Install(cmd.Context(), name, pkgs); err != nil {
		return err
	}

	logSuccess("Installed %d package(s) into %s", len(pkgs), name)
	return nil
}
