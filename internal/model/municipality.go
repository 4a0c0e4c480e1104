package model

// Municipality represents a single municipality node: a stable INEGI-style
// code, a display name, its state, and a centroid in degrees. Edges is the
// adjacency list populated by a graph build; it is empty after ingestion.
type Municipality struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	State           string  `json:"state"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	HasSupercharger bool    `json:"hasSupercharger"`
	Edges           []Edge  `json:"edges"`
}

// Edge is a directed adjacency entry. Geometric builds always record edges in
// mutual pairs with the same distance; flow-list builds record out-edges only.
type Edge struct {
	From     string  `json:"fromMuniCode"`
	To       string  `json:"toMuniCode"`
	Distance float64 `json:"distance"`
}

// HasNeighbor reports whether code already appears in the adjacency list.
func (m *Municipality) HasNeighbor(code string) bool {
	for _, e := range m.Edges {
		if e.To == code {
			return true
		}
	}
	return false
}

// Neighbors returns the neighbor codes in adjacency-list order.
func (m *Municipality) Neighbors() []string {
	out := make([]string, 0, len(m.Edges))
	for _, e := range m.Edges {
		out = append(out, e.To)
	}
	return out
}

// Clone returns a deep copy with its own adjacency slice.
func (m *Municipality) Clone() *Municipality {
	c := *m
	c.Edges = make([]Edge, len(m.Edges))
	copy(c.Edges, m.Edges)
	return &c
}
