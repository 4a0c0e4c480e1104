package model

import "time"

// Strategy identifies which builder produced a graph.
type Strategy string

const (
	// StrategyNearest is the geometric nearest-neighbor build with mutual
	// edges and the rank-indexed distance gate. This is the canonical build.
	StrategyNearest Strategy = "nearest"
	// StrategyFlows builds directional out-edges from a precomputed
	// intermunicipal flow list.
	StrategyFlows Strategy = "flows"
)

// Graph is the terminal artifact of a build: every municipality keyed by
// code, each carrying its final adjacency list, plus the parameters the
// build ran with. Every neighbor code referenced by any edge resolves to a
// key in Municipalities.
type Graph struct {
	ID             string                   `json:"id"`
	Strategy       Strategy                 `json:"strategy"`
	MaxEdges       int                      `json:"maxEdges"`
	MaxDistance    float64                  `json:"maxDistance"`
	BuiltAt        time.Time                `json:"builtAt"`
	Municipalities map[string]*Municipality `json:"municipalities"`
}

// TotalEdges counts adjacency entries across all municipalities. Mutual
// pairs count twice, matching the original out-edge accounting.
func (g *Graph) TotalEdges() int {
	var n int
	for _, m := range g.Municipalities {
		n += len(m.Edges)
	}
	return n
}

// Municipality returns the record for code, or nil.
func (g *Graph) Municipality(code string) *Municipality {
	return g.Municipalities[code]
}
