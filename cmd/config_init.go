package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/munigraph-cli/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml scaffold with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "config.yaml"
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return eris.Errorf("config init: %s already exists (use --force to overwrite)", path)
		}

		scaffold := config.Config{
			Store: config.StoreConfig{
				Driver: "sqlite",
				Path:   "munigraph.db",
			},
			Data: config.DataConfig{
				Municipalities: "data/municipalities.json",
				Superchargers:  "data/superchargers.csv",
				Flows:          "data/flows.csv",
			},
			Graph: config.GraphConfig{
				MaxEdges:    10,
				MaxDistance: 100,
				Workers:     4,
				CacheSize:   4194304,
			},
			Server: config.ServerConfig{
				Port:      8080,
				RateLimit: 20,
				RateBurst: 40,
			},
			Log: config.LogConfig{
				Level:  "info",
				Format: "json",
			},
		}

		data, err := yaml.Marshal(&scaffold)
		if err != nil {
			return eris.Wrap(err, "config init: marshal")
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return eris.Wrap(err, "config init: write")
		}

		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
