package graph

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/geodist"
	"github.com/sells-group/munigraph-cli/internal/model"
)

// FlowsBuilder replays a precomputed intermunicipal flow list. Edges are
// directional out-edges only; no symmetry is enforced and none should be
// assumed by consumers. Each node keeps at most MaxEdges of its closest
// admitted flows.
//
// The original admission kept the farthest flows within threshold; that
// policy was inconsistent with the nearest-neighbor build and is not
// reproduced here. Admission keeps the closest.
type FlowsBuilder struct {
	opts  Options
	flows []model.Edge

	// CapitalPrefix, when non-empty, doubles MaxDistance for any flow
	// touching a code with this prefix. Historical allowance that kept the
	// capital subdivisions connected despite sparse geography.
	capitalPrefix string

	log *zap.Logger
}

// FlowsOption configures a FlowsBuilder.
type FlowsOption func(*FlowsBuilder)

// WithCapitalPrefix enables the doubled-threshold allowance for codes with
// the given prefix.
func WithCapitalPrefix(prefix string) FlowsOption {
	return func(b *FlowsBuilder) { b.capitalPrefix = prefix }
}

// NewFlows returns a FlowsBuilder over the given flow list.
func NewFlows(flows []model.Edge, opts Options, fopts ...FlowsOption) *FlowsBuilder {
	b := &FlowsBuilder{
		opts:  opts.withDefaults(),
		flows: flows,
		log:   zap.L().With(zap.String("component", "graph.flows")),
	}
	for _, fo := range fopts {
		fo(b)
	}
	return b
}

// Strategy implements Builder.
func (b *FlowsBuilder) Strategy() model.Strategy { return model.StrategyFlows }

// Build admits flows per origin node. Flows referencing unknown codes are
// logged and skipped rather than failing the build; a flow with no recorded
// distance gets the great-circle distance of its endpoints.
func (b *FlowsBuilder) Build(ctx context.Context, munis map[string]*model.Municipality) (*model.Graph, error) {
	start := time.Now()

	for code, m := range munis {
		if err := geodist.ValidateCoordinates(m.Lat, m.Lon); err != nil {
			return nil, eris.Wrapf(err, "graph: municipality %s", code)
		}
	}

	frontiers := make(map[string]*frontier, len(munis))
	var skipped int

	for _, flow := range b.flows {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "graph: flows build cancelled")
		}

		from, ok := munis[flow.From]
		if !ok {
			skipped++
			b.log.Debug("flow references unknown origin", zap.String("from", flow.From))
			continue
		}
		to, ok := munis[flow.To]
		if !ok {
			skipped++
			b.log.Debug("flow references unknown destination", zap.String("to", flow.To))
			continue
		}
		if flow.From == flow.To {
			continue
		}

		distance := flow.Distance
		if distance <= 0 {
			distance = b.opts.Cache.Between(from, to)
		}
		if distance > b.threshold(flow.From, flow.To) {
			continue
		}

		f, ok := frontiers[flow.From]
		if !ok {
			f = newFrontier(b.opts.MaxEdges)
			frontiers[flow.From] = f
		}
		if from.HasNeighbor(flow.To) {
			continue
		}
		f.Consider(candidate{muni: to, distance: distance})
	}

	// Materialize out-edges in increasing-distance order, deterministically
	// across nodes.
	nodes := make([]string, 0, len(frontiers))
	for code := range frontiers {
		nodes = append(nodes, code)
	}
	sort.Strings(nodes)

	for _, code := range nodes {
		from := munis[code]
		seen := make(map[string]struct{}, b.opts.MaxEdges)
		for _, cand := range frontiers[code].Ascending() {
			if _, dup := seen[cand.muni.Code]; dup {
				continue
			}
			seen[cand.muni.Code] = struct{}{}
			from.Edges = append(from.Edges, model.Edge{From: code, To: cand.muni.Code, Distance: cand.distance})
		}
	}

	b.log.Info("flow-list build complete",
		zap.Int("municipalities", len(munis)),
		zap.Int("flows", len(b.flows)),
		zap.Int("skipped", skipped),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.Graph{
		Strategy:       model.StrategyFlows,
		MaxEdges:       b.opts.MaxEdges,
		MaxDistance:    b.opts.MaxDistance,
		BuiltAt:        time.Now().UTC(),
		Municipalities: munis,
	}, nil
}

func (b *FlowsBuilder) threshold(from, to string) float64 {
	if b.capitalPrefix != "" &&
		(strings.HasPrefix(from, b.capitalPrefix) || strings.HasPrefix(to, b.capitalPrefix)) {
		return 2 * b.opts.MaxDistance
	}
	return b.opts.MaxDistance
}
