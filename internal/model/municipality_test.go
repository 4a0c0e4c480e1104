package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMunicipality_HasNeighbor(t *testing.T) {
	t.Parallel()

	m := &Municipality{
		Code: "01001",
		Edges: []Edge{
			{From: "01001", To: "01002", Distance: 12.5},
			{From: "01001", To: "01003", Distance: 30.1},
		},
	}

	assert.True(t, m.HasNeighbor("01002"))
	assert.True(t, m.HasNeighbor("01003"))
	assert.False(t, m.HasNeighbor("01004"))
	assert.False(t, m.HasNeighbor("01001"))
}

func TestMunicipality_Neighbors_Order(t *testing.T) {
	t.Parallel()

	m := &Municipality{
		Code: "09001",
		Edges: []Edge{
			{From: "09001", To: "15001", Distance: 5},
			{From: "09001", To: "17001", Distance: 22},
			{From: "09001", To: "13001", Distance: 40},
		},
	}

	assert.Equal(t, []string{"15001", "17001", "13001"}, m.Neighbors())
}

func TestMunicipality_Clone_Independent(t *testing.T) {
	t.Parallel()

	m := &Municipality{
		Code:  "01001",
		Name:  "Aguascalientes",
		Edges: []Edge{{From: "01001", To: "01002", Distance: 12.5}},
	}

	c := m.Clone()
	c.Edges[0].Distance = 99
	c.Edges = append(c.Edges, Edge{From: "01001", To: "01003"})

	assert.Equal(t, 12.5, m.Edges[0].Distance)
	assert.Len(t, m.Edges, 1)
}

func TestGraph_TotalEdges(t *testing.T) {
	t.Parallel()

	g := &Graph{
		Municipalities: map[string]*Municipality{
			"a": {Code: "a", Edges: []Edge{{From: "a", To: "b", Distance: 1}}},
			"b": {Code: "b", Edges: []Edge{{From: "b", To: "a", Distance: 1}}},
			"c": {Code: "c"},
		},
	}

	assert.Equal(t, 2, g.TotalEdges())
}

func TestGraph_JSONRoundTrip_BitExact(t *testing.T) {
	t.Parallel()

	g := &Graph{
		ID:          "build-1",
		Strategy:    StrategyNearest,
		MaxEdges:    10,
		MaxDistance: 100,
		Municipalities: map[string]*Municipality{
			"01001": {
				Code: "01001", Name: "Aguascalientes", State: "Aguascalientes",
				Lat: 21.8818, Lon: -102.291,
				Edges: []Edge{{From: "01001", To: "01005", Distance: 69.09326112289378}},
			},
			"01005": {
				Code: "01005", Name: "Jesús María", State: "Aguascalientes",
				Lat: 21.9614, Lon: -102.3434,
				Edges: []Edge{{From: "01005", To: "01001", Distance: 69.09326112289378}},
			},
		},
	}

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var back Graph
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, g.Strategy, back.Strategy)
	require.NotNil(t, back.Municipalities["01001"])
	// Floats must survive the round trip bit-exactly.
	assert.Equal(t,
		g.Municipalities["01001"].Edges[0].Distance,
		back.Municipalities["01001"].Edges[0].Distance)
	assert.Equal(t, g.Municipalities["01005"].Lat, back.Municipalities["01005"].Lat)
}

func TestStrategyValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nearest", string(StrategyNearest))
	assert.Equal(t, "flows", string(StrategyFlows))
}
