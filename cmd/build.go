package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/geodist"
	"github.com/sells-group/munigraph-cli/internal/graph"
	"github.com/sells-group/munigraph-cli/internal/ingest"
	"github.com/sells-group/munigraph-cli/internal/model"
)

var (
	buildStrategy        string
	buildK               int
	buildMaxDistance     float64
	buildWorkers         int
	buildCacheSize       int
	buildCollapseCapital bool
	buildCapitalBoost    bool
	buildInput           string
	buildShapefile       string
	buildChargers        string
	buildFlows           string
	buildNoSave          bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a municipality proximity graph",
	Long:  "Loads the municipality dataset, links each municipality to its nearest in-range neighbors (or replays the commute flows), and persists the result as a new build.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyBuildDefaults()
		if err := cfg.Validate("build"); err != nil {
			return err
		}

		munis, err := loadMunicipalities()
		if err != nil {
			return err
		}

		if buildChargers != "" {
			chargers, err := loadChargers(buildChargers)
			if err != nil {
				return err
			}
			unmatched := ingest.MarkSuperchargers(munis, chargers)
			zap.L().Info("superchargers joined",
				zap.Int("chargers", len(chargers)),
				zap.Int("unmatched", len(unmatched)))
		}

		if buildCollapseCapital {
			removed := ingest.CollapseCapital(munis)
			zap.L().Info("capital collapsed", zap.Int("removed", removed))
		}

		builder, err := newBuilder()
		if err != nil {
			return err
		}

		g, err := builder.Build(ctx, munis)
		if err != nil {
			return err
		}

		if buildNoSave {
			fmt.Printf("built %s graph: %d municipalities, %d edges (not saved)\n",
				g.Strategy, len(g.Municipalities), g.TotalEdges())
			return nil
		}

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := s.SaveGraph(ctx, g)
		if err != nil {
			return err
		}

		fmt.Printf("built %s graph %s: %d municipalities, %d edges\n",
			g.Strategy, id, len(g.Municipalities), g.TotalEdges())
		return nil
	},
}

// applyBuildDefaults backfills unset flags from config.
func applyBuildDefaults() {
	if buildK == 0 {
		buildK = cfg.Graph.MaxEdges
	}
	if buildMaxDistance == 0 {
		buildMaxDistance = cfg.Graph.MaxDistance
	}
	if buildWorkers == 0 {
		buildWorkers = cfg.Graph.Workers
	}
	if buildCacheSize == 0 {
		buildCacheSize = cfg.Graph.CacheSize
	}
	if !buildCollapseCapital {
		buildCollapseCapital = cfg.Graph.CollapseCapital
	}
	cfg.Graph.MaxEdges = buildK
	cfg.Graph.MaxDistance = buildMaxDistance
	cfg.Graph.Workers = buildWorkers
}

func loadMunicipalities() (map[string]*model.Municipality, error) {
	if buildShapefile != "" {
		return ingest.MunicipalitiesFromShapefile(buildShapefile)
	}
	path := buildInput
	if path == "" {
		path = cfg.Data.Municipalities
	}
	if path == "" {
		return nil, eris.New("build: no municipality input configured")
	}
	return ingest.Municipalities(path)
}

func newBuilder() (graph.Builder, error) {
	opts := graph.Options{
		MaxEdges:    buildK,
		MaxDistance: buildMaxDistance,
		Workers:     buildWorkers,
		Cache:       geodist.NewCache(buildCacheSize),
	}

	switch buildStrategy {
	case "nearest":
		return graph.NewNearest(opts), nil
	case "flows":
		path := buildFlows
		if path == "" {
			path = cfg.Data.Flows
		}
		if path == "" {
			return nil, eris.New("build: flows strategy needs --flows or data.flows")
		}
		flows, err := ingest.Flows(path)
		if err != nil {
			return nil, err
		}
		var fopts []graph.FlowsOption
		if buildCapitalBoost {
			fopts = append(fopts, graph.WithCapitalPrefix(ingest.CapitalPrefix))
		}
		return graph.NewFlows(flows, opts, fopts...), nil
	default:
		return nil, eris.Errorf("build: unknown strategy %q (want nearest or flows)", buildStrategy)
	}
}

func init() {
	buildCmd.Flags().StringVar(&buildStrategy, "strategy", "nearest", "graph strategy: nearest or flows")
	buildCmd.Flags().IntVar(&buildK, "k", 0, "max neighbors per municipality (default from config)")
	buildCmd.Flags().Float64Var(&buildMaxDistance, "max-distance", 0, "base distance threshold in miles (default from config)")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "parallel distance workers (default from config)")
	buildCmd.Flags().IntVar(&buildCacheSize, "cache-size", 0, "distance cache entries, negative disables (default from config)")
	buildCmd.Flags().BoolVar(&buildCollapseCapital, "collapse-capital", false, "merge the capital's boroughs into one node")
	buildCmd.Flags().BoolVar(&buildCapitalBoost, "capital-boost", false, "double the flows distance allowance for capital endpoints")
	buildCmd.Flags().StringVar(&buildInput, "input", "", "municipalities JSON path (default from config)")
	buildCmd.Flags().StringVar(&buildShapefile, "shapefile", "", "load municipalities from a shapefile instead of JSON")
	buildCmd.Flags().StringVar(&buildChargers, "chargers", "", "supercharger CSV or XLSX to join before building")
	buildCmd.Flags().StringVar(&buildFlows, "flows", "", "flows CSV path for the flows strategy")
	buildCmd.Flags().BoolVar(&buildNoSave, "no-save", false, "build without persisting")
	rootCmd.AddCommand(buildCmd)
}
