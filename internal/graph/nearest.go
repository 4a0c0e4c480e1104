package graph

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/munigraph-cli/internal/geodist"
	"github.com/sells-group/munigraph-cli/internal/model"
)

// NearestBuilder is the canonical geometric strategy: per municipality it
// retains the MaxEdges closest candidates, then accepts them in increasing
// distance order until the rank gate fails, recording each accepted edge
// mutually on both endpoints.
type NearestBuilder struct {
	opts Options
	log  *zap.Logger
}

// NewNearest returns a NearestBuilder with defaults applied.
func NewNearest(opts Options) *NearestBuilder {
	return &NearestBuilder{
		opts: opts.withDefaults(),
		log:  zap.L().With(zap.String("component", "graph.nearest")),
	}
}

// Strategy implements Builder.
func (b *NearestBuilder) Strategy() model.Strategy { return model.StrategyNearest }

// Build populates adjacency lists in place and returns the graph. Fewer
// than two municipalities yields a graph with no edges, not an error.
// Iteration runs in sorted code order so repeated builds over the same set
// produce identical output.
func (b *NearestBuilder) Build(ctx context.Context, munis map[string]*model.Municipality) (*model.Graph, error) {
	start := time.Now()

	codes := make([]string, 0, len(munis))
	for code, m := range munis {
		if err := geodist.ValidateCoordinates(m.Lat, m.Lon); err != nil {
			return nil, eris.Wrapf(err, "graph: municipality %s", code)
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)

	if b.opts.Workers > 1 {
		if err := b.warmDistances(ctx, codes, munis); err != nil {
			return nil, err
		}
	}

	// Transient visited sets, seeded from any pre-existing adjacency so
	// already-known neighbors are never reconsidered.
	visited := make(map[string]map[string]struct{}, len(munis))
	for code, m := range munis {
		set := make(map[string]struct{}, b.opts.MaxEdges)
		for _, e := range m.Edges {
			set[e.To] = struct{}{}
		}
		visited[code] = set
	}

	var accepted int
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "graph: build cancelled")
		}

		a := munis[code]
		for _, cand := range b.selectCandidates(a, codes, munis, visited[code]) {
			bMuni := cand.muni
			a.Edges = append(a.Edges, model.Edge{From: a.Code, To: bMuni.Code, Distance: cand.distance})
			bMuni.Edges = append(bMuni.Edges, model.Edge{From: bMuni.Code, To: a.Code, Distance: cand.distance})
			visited[a.Code][bMuni.Code] = struct{}{}
			visited[bMuni.Code][a.Code] = struct{}{}
			accepted++
		}
	}

	b.log.Info("nearest-neighbor build complete",
		zap.Int("municipalities", len(munis)),
		zap.Int("mutual_pairs", accepted),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.Graph{
		Strategy:       model.StrategyNearest,
		MaxEdges:       b.opts.MaxEdges,
		MaxDistance:    b.opts.MaxDistance,
		BuiltAt:        time.Now().UTC(),
		Municipalities: munis,
	}, nil
}

// selectCandidates scans every other municipality not already a neighbor of
// a, retains the MaxEdges closest in a bounded frontier, and returns the
// prefix that passes the rank gate.
func (b *NearestBuilder) selectCandidates(a *model.Municipality, codes []string, munis map[string]*model.Municipality, skip map[string]struct{}) []candidate {
	f := newFrontier(b.opts.MaxEdges)
	for _, code := range codes {
		if code == a.Code {
			continue
		}
		if _, seen := skip[code]; seen {
			continue
		}
		other := munis[code]
		f.Consider(candidate{muni: other, distance: b.opts.Cache.Between(a, other)})
	}

	ranked := f.Ascending()
	for j, cand := range ranked {
		if !acceptAtRank(j, cand.distance, b.opts.MaxDistance) {
			return ranked[:j]
		}
	}
	return ranked
}

// warmDistances fills the pair cache in parallel so the serial selection
// pass only reads it. Row stripes keep each goroutine on disjoint work.
func (b *NearestBuilder) warmDistances(ctx context.Context, codes []string, munis map[string]*model.Municipality) error {
	if !b.opts.Cache.Enabled() {
		b.log.Warn("distance cache disabled, skipping parallel warm")
		return nil
	}

	workers := b.opts.Workers
	if workers > runtime.NumCPU() {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range codes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "graph: distance warm cancelled")
			}
			a := munis[codes[i]]
			for j := i + 1; j < len(codes); j++ {
				b.opts.Cache.Between(a, munis[codes[j]])
			}
			return nil
		})
	}

	return g.Wait()
}
