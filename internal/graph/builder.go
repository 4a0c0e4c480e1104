// Package graph builds the sparse proximity graph over municipalities.
//
// Two strategies exist. The canonical one scans every municipality for its
// nearest neighbors by great-circle distance and records mutual edges,
// throttled by a rank-indexed distance gate. The historical one replays a
// precomputed intermunicipal flow list and records directional out-edges.
package graph

import (
	"context"

	"github.com/sells-group/munigraph-cli/internal/geodist"
	"github.com/sells-group/munigraph-cli/internal/model"
)

const (
	// DefaultMaxEdges bounds the adjacency list per municipality.
	DefaultMaxEdges = 10
	// DefaultMaxDistance is the base acceptance threshold in miles.
	DefaultMaxDistance = 100.0
)

// Options control a build. The zero value gets the historical defaults.
type Options struct {
	// MaxEdges is K, the adjacency-list cap per municipality.
	MaxEdges int
	// MaxDistance is the base distance threshold in miles. Rank gates
	// derive from it.
	MaxDistance float64
	// Workers > 1 precomputes pairwise distances in parallel before the
	// serial selection pass. Requires a non-disabled Cache; output is
	// identical to the sequential build.
	Workers int
	// Cache memoizes haversine calls. Nil gets a default-sized cache.
	Cache *geodist.Cache
}

func (o Options) withDefaults() Options {
	if o.MaxEdges <= 0 {
		o.MaxEdges = DefaultMaxEdges
	}
	if o.MaxDistance <= 0 {
		o.MaxDistance = DefaultMaxDistance
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Cache == nil {
		o.Cache = geodist.NewCache(geodist.DefaultCacheSize)
	}
	return o
}

// Builder populates adjacency lists for a municipality set. Build mutates
// the passed records in place and returns the aggregate graph; the map it
// returns is the terminal artifact and every neighbor code referenced by an
// edge is a key in it.
type Builder interface {
	Strategy() model.Strategy
	Build(ctx context.Context, munis map[string]*model.Municipality) (*model.Graph, error)
}
