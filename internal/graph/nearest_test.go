package graph

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/munigraph-cli/internal/geodist"
	"github.com/sells-group/munigraph-cli/internal/model"
)

func muniSet(munis ...*model.Municipality) map[string]*model.Municipality {
	out := make(map[string]*model.Municipality, len(munis))
	for _, m := range munis {
		out[m.Code] = m
	}
	return out
}

func equatorMuni(code string, lonDegrees float64) *model.Municipality {
	return &model.Municipality{Code: code, Name: code, Lat: 0, Lon: lonDegrees}
}

// lineSet places n municipalities along the equator at the given spacing.
func lineSet(n int, spacingDegrees float64) map[string]*model.Municipality {
	out := make(map[string]*model.Municipality, n)
	for i := 0; i < n; i++ {
		code := fmt.Sprintf("m%02d", i)
		out[code] = equatorMuni(code, float64(i)*spacingDegrees)
	}
	return out
}

func TestNearest_SyntheticTriple(t *testing.T) {
	t.Parallel()

	// (0,0), (0,1°), (0,10°): the first two are ~69 miles apart and pass
	// the rank-0 gate; the third is hundreds of miles from both and never
	// connects.
	munis := muniSet(
		equatorMuni("a", 0),
		equatorMuni("b", 1),
		equatorMuni("c", 10),
	)

	b := NewNearest(Options{MaxEdges: 2, MaxDistance: 100})
	g, err := b.Build(context.Background(), munis)
	require.NoError(t, err)

	require.Len(t, munis["a"].Edges, 1)
	require.Len(t, munis["b"].Edges, 1)
	assert.Empty(t, munis["c"].Edges)

	assert.Equal(t, "b", munis["a"].Edges[0].To)
	assert.Equal(t, "a", munis["b"].Edges[0].To)
	assert.InDelta(t, 69.1, munis["a"].Edges[0].Distance, 0.3)
	assert.Equal(t, munis["a"].Edges[0].Distance, munis["b"].Edges[0].Distance)

	assert.Equal(t, 2, g.TotalEdges())
}

func TestNearest_NoSelfLoops_NoDuplicates(t *testing.T) {
	t.Parallel()

	const k = 4
	munis := lineSet(12, 0.1)

	_, err := NewNearest(Options{MaxEdges: k, MaxDistance: 100}).
		Build(context.Background(), munis)
	require.NoError(t, err)

	for code, m := range munis {
		seen := make(map[string]bool)
		for _, e := range m.Edges {
			assert.Equal(t, code, e.From)
			assert.NotEqual(t, code, e.To, "self loop on %s", code)
			assert.False(t, seen[e.To], "duplicate neighbor %s on %s", e.To, code)
			seen[e.To] = true
			assert.GreaterOrEqual(t, e.Distance, 0.0)
		}
	}
}

func TestNearest_ScanCapAndMutualAppends(t *testing.T) {
	t.Parallel()

	// MaxEdges caps what a single scan accepts; mutual appends from other
	// nodes' scans land on top of that, so a node's total adjacency can
	// exceed MaxEdges. Five nodes 0.1 degrees apart with MaxEdges=2 settle
	// into the complete graph: every scan accepts exactly 2 and every node
	// ends with 4 edges.
	const k = 2
	munis := lineSet(5, 0.1)

	_, err := NewNearest(Options{MaxEdges: k, MaxDistance: 100}).
		Build(context.Background(), munis)
	require.NoError(t, err)

	for code, m := range munis {
		assert.Len(t, m.Edges, 4, "node %s", code)
	}

	// The per-scan bound itself: a fresh selection over the same set never
	// returns more than MaxEdges candidates.
	fresh := lineSet(5, 0.1)
	codes := make([]string, 0, len(fresh))
	for code := range fresh {
		codes = append(codes, code)
	}
	b := NewNearest(Options{MaxEdges: k, MaxDistance: 100})
	for _, code := range codes {
		got := b.selectCandidates(fresh[code], codes, fresh, map[string]struct{}{})
		assert.LessOrEqual(t, len(got), k, "scan of %s", code)
	}
}

func TestNearest_MutualEdgeInvariant(t *testing.T) {
	t.Parallel()

	munis := lineSet(10, 0.2)
	_, err := NewNearest(Options{}).Build(context.Background(), munis)
	require.NoError(t, err)

	for code, m := range munis {
		for _, e := range m.Edges {
			other := munis[e.To]
			require.NotNil(t, other)
			var found bool
			for _, back := range other.Edges {
				if back.To == code {
					found = true
					// Both directions derive from one computation.
					assert.Equal(t, e.Distance, back.Distance)
				}
			}
			assert.True(t, found, "edge %s->%s has no reverse", code, e.To)
		}
	}
}

func TestNearest_GatePropertyPerScan(t *testing.T) {
	t.Parallel()

	b := NewNearest(Options{MaxEdges: 10, MaxDistance: 100})
	munis := lineSet(15, 0.15)
	codes := make([]string, 0, len(munis))
	for code := range munis {
		codes = append(codes, code)
	}

	accepted := b.selectCandidates(munis["m00"], codes, munis, map[string]struct{}{})
	require.NotEmpty(t, accepted)
	for j, c := range accepted {
		assert.LessOrEqual(t, c.distance, gateThreshold(j, 100), "rank %d", j)
		if j > 0 {
			assert.GreaterOrEqual(t, c.distance, accepted[j-1].distance)
		}
	}
}

func TestNearest_DegenerateInputs(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		g, err := NewNearest(Options{}).Build(context.Background(), map[string]*model.Municipality{})
		require.NoError(t, err)
		assert.Zero(t, g.TotalEdges())
	})

	t.Run("single", func(t *testing.T) {
		t.Parallel()
		munis := muniSet(equatorMuni("only", 0))
		g, err := NewNearest(Options{}).Build(context.Background(), munis)
		require.NoError(t, err)
		assert.Zero(t, g.TotalEdges())
		assert.Empty(t, munis["only"].Edges)
	})
}

func TestNearest_KExceedsCandidates(t *testing.T) {
	t.Parallel()

	munis := muniSet(
		equatorMuni("a", 0),
		equatorMuni("b", 0.1),
		equatorMuni("c", 0.2),
	)

	_, err := NewNearest(Options{MaxEdges: 50, MaxDistance: 100}).
		Build(context.Background(), munis)
	require.NoError(t, err)

	// All pairs are within gates; nobody can exceed the candidate count.
	for _, m := range munis {
		assert.LessOrEqual(t, len(m.Edges), 2)
		assert.NotEmpty(t, m.Edges)
	}
}

func TestNearest_InvalidCoordinatesRejected(t *testing.T) {
	t.Parallel()

	munis := muniSet(
		equatorMuni("good", 0),
		&model.Municipality{Code: "bad", Lat: math.NaN(), Lon: 0},
	)

	_, err := NewNearest(Options{}).Build(context.Background(), munis)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestNearest_SkipsPreExistingNeighbors(t *testing.T) {
	t.Parallel()

	a := equatorMuni("a", 0)
	b := equatorMuni("b", 0.1)
	d := geodist.Miles(a.Lat, a.Lon, b.Lat, b.Lon)
	a.Edges = []model.Edge{{From: "a", To: "b", Distance: d}}
	b.Edges = []model.Edge{{From: "b", To: "a", Distance: d}}

	_, err := NewNearest(Options{MaxEdges: 5, MaxDistance: 100}).
		Build(context.Background(), muniSet(a, b))
	require.NoError(t, err)

	// The known pair is never re-added.
	assert.Len(t, a.Edges, 1)
	assert.Len(t, b.Edges, 1)
}

func TestNearest_Idempotent(t *testing.T) {
	t.Parallel()

	build := func() map[string]*model.Municipality {
		munis := lineSet(20, 0.12)
		_, err := NewNearest(Options{MaxEdges: 6, MaxDistance: 100}).
			Build(context.Background(), munis)
		require.NoError(t, err)
		return munis
	}

	first := build()
	second := build()

	require.Equal(t, len(first), len(second))
	for code, m := range first {
		assert.Equal(t, m.Edges, second[code].Edges, "municipality %s", code)
	}
}

func TestNearest_ParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	sequential := lineSet(25, 0.1)
	parallel := lineSet(25, 0.1)

	_, err := NewNearest(Options{MaxEdges: 5, MaxDistance: 100, Workers: 1}).
		Build(context.Background(), sequential)
	require.NoError(t, err)

	_, err = NewNearest(Options{MaxEdges: 5, MaxDistance: 100, Workers: 4}).
		Build(context.Background(), parallel)
	require.NoError(t, err)

	for code, m := range sequential {
		assert.Equal(t, m.Edges, parallel[code].Edges, "municipality %s", code)
	}
}

func TestNearest_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewNearest(Options{}).Build(ctx, lineSet(5, 0.1))
	require.Error(t, err)
}

func TestNearest_EveryNeighborResolvable(t *testing.T) {
	t.Parallel()

	munis := lineSet(18, 0.14)
	g, err := NewNearest(Options{}).Build(context.Background(), munis)
	require.NoError(t, err)

	for _, m := range g.Municipalities {
		for _, e := range m.Edges {
			assert.NotNil(t, g.Municipality(e.To), "dangling neighbor %s", e.To)
		}
	}
}
