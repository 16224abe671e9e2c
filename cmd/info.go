package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/containify/containify/internal/resource"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show host resources and the resolved root directory",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	p := resolvePaths()

	res, err := resource.CollectSystemResources(p.RootDir)
	if err != nil {
		return fmt.Errorf("failed to read host resources: %w", err)
	}

	m, err := newManager()
	if err != nil {
		return err
	}
	records, err := m.List()
	if err != nil {
		return err
	}

	fmt.Printf("Root: %s\n", p.RootDir)
	fmt.Printf("Containers: %d\n", len(records))
	fmt.Println()
	fmt.Println("Host resources:")
	fmt.Printf("  RAM: %d MB total, %d MB available\n", res.TotalRAMMB, res.AvailableRAMMB)
	fmt.Printf("  CPUs: %d\n", res.CPUCount)
	fmt.Printf("  Disk: %d GB total, %d GB free\n", res.DiskTotalGB, res.DiskFreeGB)

	return nil
}
