package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/munigraph-cli/internal/model"
	"github.com/sells-group/munigraph-cli/internal/render"
)

var (
	renderBuildID string
	renderOutPath string
	renderColor   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a build as a Leaflet map",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("render"); err != nil {
			return err
		}

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		var g *model.Graph
		if renderBuildID != "" {
			g, err = s.GetGraph(ctx, renderBuildID)
		} else {
			g, err = s.LatestGraph(ctx)
		}
		if err != nil {
			return err
		}
		if g == nil {
			return eris.New("render: no builds saved yet")
		}

		f, err := os.Create(renderOutPath)
		if err != nil {
			return eris.Wrap(err, "render: create output file")
		}
		defer f.Close()

		if err := render.WriteMap(f, g, render.Options{LineColor: renderColor}); err != nil {
			return err
		}

		fmt.Printf("wrote %s\n", renderOutPath)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderBuildID, "build", "", "build id (default latest)")
	renderCmd.Flags().StringVarP(&renderOutPath, "out", "o", "map.html", "output HTML path")
	renderCmd.Flags().StringVar(&renderColor, "color", "", "edge color (default red)")
	rootCmd.AddCommand(renderCmd)
}
