package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/containify/containify/internal/logging"
	"github.com/containify/containify/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactive container picker",
	Long: `Opens an interactive TUI for selecting a container.

Use arrow keys or j/k to navigate, / to filter.

Actions:
  Enter  - Open a shell in the selected container
  d      - Show instructions for destroying the selected container
  q/Esc  - Quit`,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	records, err := m.List()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		logInfo("No containers found. Create one with: containify create <name>")
		return nil
	}

	result, err := tui.RunPicker(records)
	if err != nil {
		return fmt.Errorf("picker error: %w", err)
	}

	logging.Debug("picker result", "action", result.Action)

	switch result.Action {
	case tui.ActionShell:
		if result.Record != nil {
			code, err := m.Shell(cmd.Context(), result.Record.Name)
			if err != nil {
				return err
			}
			if code != 0 {
				os.Exit(code)
			}
		}

	case tui.ActionDestroy:
		if result.Record != nil {
			fmt.Printf("\nTo destroy container '%s', run:\n", result.Record.Name)
			fmt.Printf("  containify destroy %s\n", result.Record.Name)
		}

	case tui.ActionQuit:
		// Just exit cleanly
	}

	return nil
}
