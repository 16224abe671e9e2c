package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/containify/containify/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all containers",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBACKEND\tRESOURCES\tENFORCEMENT\tCREATED\tSTATUS")
	fmt.Fprintln(w, "----\t-------\t---------\t-----------\t-------\t------")

	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Name, rec.Backend, rec.Resources.String(), rec.Enforcement,
			rec.CreatedAt.Format("2006-01-02 15:04"), formatStatus(rec.Status))
	}

	return w.Flush()
}

func formatStatus(status registry.Status) string {
	switch status {
	case registry.StatusReady:
		return "✓ ready"
	case registry.StatusStale:
		return "⚠ stale"
	default:
		return string(status)
	}
}
