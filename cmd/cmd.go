package cmd

import (
	"fmt"
	"os"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	configDir string
	clearData bool
)

var rootCmd = &cobra.Command{
	Use:   "employee-directory",
	Short: "Employee Directory",
	Long:  `Account registration, token login and an authenticated employee directory.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads config.yml from path (optional) plus EMPDIR_* overrides
// and installs the process logger.
func loadConfig(path string) (*internal.Config, error) {
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.yml")
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Delete all employees and accounts before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
