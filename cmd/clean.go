package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/munigraph-cli/internal/ingest"
)

var cleanOut string

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean raw input datasets",
	Long:  "Rewrites the raw INEGI and flows exports into the compact form the build command consumes.",
}

var cleanMunisCmd = &cobra.Command{
	Use:   "municipalities <input.json>",
	Short: "Strip geo_shape polygons from the municipality export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cleanOut
		if out == "" {
			out = "municipalities_clean.json"
		}
		if err := ingest.CleanMunicipalities(args[0], out); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", out)
		return nil
	},
}

var cleanFlowsCmd = &cobra.Command{
	Use:   "flows <input.csv>",
	Short: "Normalize the commute flows export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cleanOut
		if out == "" {
			out = "flows_clean.csv"
		}
		if err := ingest.CleanFlows(args[0], out); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", out)
		return nil
	},
}

var cleanChargersCmd = &cobra.Command{
	Use:   "chargers <input.csv|input.xlsx>",
	Short: "Report superchargers that do not match any municipality",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chargers, err := loadChargers(args[0])
		if err != nil {
			return err
		}

		path := cfg.Data.Municipalities
		if path == "" {
			return eris.New("clean chargers: data.municipalities is not configured")
		}
		munis, err := ingest.Municipalities(path)
		if err != nil {
			return err
		}

		unmatched := ingest.MarkSuperchargers(munis, chargers)
		fmt.Printf("%d chargers, %d unmatched\n", len(chargers), len(unmatched))
		for _, c := range unmatched {
			fmt.Printf("  %s (%s, %s)\n", c.Name, c.City, c.State)
		}
		return nil
	},
}

// loadChargers picks the parser from the file extension.
func loadChargers(path string) ([]ingest.Supercharger, error) {
	if len(path) > 5 && path[len(path)-5:] == ".xlsx" {
		return ingest.SuperchargersFromXLSX(path)
	}
	return ingest.Superchargers(path)
}

func init() {
	cleanCmd.PersistentFlags().StringVarP(&cleanOut, "out", "o", "", "output path (default derived from input)")
	cleanCmd.AddCommand(cleanMunisCmd)
	cleanCmd.AddCommand(cleanFlowsCmd)
	cleanCmd.AddCommand(cleanChargersCmd)
	rootCmd.AddCommand(cleanCmd)
}
