package cmd

import (
	"os"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/containify/containify/internal/errors"
	"github.com/containify/containify/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run <name> -- <command>",
	Short: "Run a command inside a container",
	Long: `Run a command inside a container's workspace and exit with the command's
exit code.

The command is given either after a -- separator:

  containify run myapp -- python script.py

or as a single shell string with -c:

  containify run myapp -c "python script.py > out.txt"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var runShellString string

func init() {
	runCmd.Flags().StringVarP(&runShellString, "command", "c", "", "Command as a single shell string")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	name := args[0]

	argv, err := parseRunArgv(args)
	if err != nil {
		return err
	}

	m, err := newManager()
	if err != nil {
		return err
	}

	logging.Debug("running command", "name", name, "argv", argv)

	code, err := m.Run(cmd.Context(), name, argv)
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

// parseRunArgv extracts the command to execute: the -c shell string split
// with shell quoting rules, or everything after the -- separator.
func parseRunArgv(args []string) ([]string, error) {
	if runShellString != "" {
		argv, err := shellquote.Split(runShellString)
		if err != nil {
			return nil, errors.ValidationError("invalid -c command: " + err.Error())
		}
		if len(argv) == 0 {
			return nil, errors.ValidationError("empty -c command")
		}
		return argv, nil
	}

	if len(args) > 1 {
		return args[1:], nil
	}

	return nil, errors.ValidationError(`usage: containify run <name> -- <command> or containify run <name> -c "<command>"`)
}
