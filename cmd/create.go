package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/containify/containify/internal/errors"
	"github.com/containify/containify/internal/logging"
	"github.com/containify/containify/internal/manager"
	"github.com/containify/containify/internal/registry"
	"github.com/containify/containify/internal/resource"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new container environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

var (
	createRAM     string
	createStorage string
	createCPU     string
	createBackend string
	createImage   string
)

func init() {
	createCmd.Flags().StringVar(&createRAM, "ram", "", "RAM limit in MB or as a size string like 512m, 2g (\"unbounded\" for no limit)")
	createCmd.Flags().StringVar(&createStorage, "storage", "", "Storage limit in MB or as a size string (\"unbounded\" for no limit)")
	createCmd.Flags().StringVar(&createCPU, "cpu", "", "CPU limit as a percentage of one logical CPU, 1-100 (\"unbounded\" for no limit)")
	createCmd.Flags().StringVarP(&createBackend, "backend", "b", "", "Backend to use: local or docker")
	createCmd.Flags().StringVar(&createImage, "image", "", "Docker image for the docker backend")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	settings, err := loadSettings()
	if err != nil {
		return errors.New(errors.ExitGeneralError, err.Error())
	}

	// Omitted flags fall back to the settings file defaults.
	ram := createRAM
	if ram == "" {
		ram = settings.Defaults.RAM
	}
	storage := createStorage
	if storage == "" {
		storage = settings.Defaults.Storage
	}
	cpu := createCPU
	if cpu == "" {
		cpu = settings.Defaults.CPU
	}
	kind := createBackend
	if kind == "" {
		kind = settings.Defaults.Backend
	}
	image := createImage
	if image == "" {
		image = settings.Defaults.Image
	}

	spec, err := resource.Parse(ram, storage, cpu)
	if err != nil {
		return err
	}

	logging.Debug("creating container", "name", name, "backend", kind, "resources", spec.String())

	m, err := newManager()
	if err != nil {
		return err
	}

	logInfo("Creating container %s...", name)

	rec, warnings, err := m.Create(cmd.Context(), manager.CreateOptions{
		Name:  name,
		Spec:  spec,
		Kind:  registry.Kind(kind),
		Image: image,
	})
	if err != nil {
		return err
	}

	for _, w := range warnings {
		logWarning("  %s", w)
	}

	logSuccess("Container %s created", name)
	fmt.Printf("  Backend: %s\n", rec.Backend)
	fmt.Printf("  Resources: %s\n", rec.Resources.String())
	fmt.Printf("  Enforcement: %s\n", rec.Enforcement)
	fmt.Printf("  Workspace: %s\n", rec.Workspace)
	fmt.Printf("  Connect: containify shell %s\n", name)

	return nil
}
