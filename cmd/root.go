package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "munigraph",
	Short: "Proximity graph builder for Mexican municipalities",
	Long:  "Cleans the INEGI municipality datasets, links each municipality to its nearest neighbors within driving range, persists the resulting graphs and serves them as JSON and Leaflet maps.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
