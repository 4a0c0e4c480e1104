// Package store persists built graphs. Each build snapshots its full
// municipality set alongside its edges, so loading a build reproduces the
// exact graph that was saved, including adjacency order and bit-exact
// distances.
package store

import (
	"context"
	"time"

	"github.com/sells-group/munigraph-cli/internal/model"
)

// BuildInfo summarizes one persisted build.
type BuildInfo struct {
	ID             string         `json:"id"`
	Strategy       model.Strategy `json:"strategy"`
	MaxEdges       int            `json:"max_edges"`
	MaxDistance    float64        `json:"max_distance"`
	BuiltAt        time.Time      `json:"built_at"`
	Municipalities int            `json:"municipalities"`
	Edges          int            `json:"edges"`
}

// Store is the persistence interface for graph builds.
type Store interface {
	// SaveGraph persists the graph as a new build, assigns g.ID, and
	// returns the build id.
	SaveGraph(ctx context.Context, g *model.Graph) (string, error)
	// GetGraph loads a build by id.
	GetGraph(ctx context.Context, buildID string) (*model.Graph, error)
	// LatestGraph loads the most recent build, or nil when none exist.
	LatestGraph(ctx context.Context) (*model.Graph, error)
	// ListBuilds returns build summaries, newest first.
	ListBuilds(ctx context.Context) ([]BuildInfo, error)

	Migrate(ctx context.Context) error
	Close() error
}
