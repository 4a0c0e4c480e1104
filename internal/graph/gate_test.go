package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rank int
		want float64
	}{
		{0, 100},
		{1, 50},
		{2, 25},
		{3, 100.0 / 27},
		{4, 100.0 / 81},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, gateThreshold(tt.rank, 100), 1e-12)
	}
}

func TestAcceptAtRank_EqualityAccepted(t *testing.T) {
	t.Parallel()

	// The boundary is inclusive: only a strictly greater distance fails.
	assert.True(t, acceptAtRank(0, 100, 100))
	assert.True(t, acceptAtRank(1, 50, 100))
	assert.True(t, acceptAtRank(2, 25, 100))
	assert.True(t, acceptAtRank(3, 100.0/27, 100))

	assert.False(t, acceptAtRank(0, 100.0000001, 100))
	assert.False(t, acceptAtRank(1, 50.0000001, 100))
	assert.False(t, acceptAtRank(3, 3.8, 100))
}

func TestAcceptAtRank_TightensMonotonically(t *testing.T) {
	t.Parallel()

	prev := gateThreshold(0, 100)
	for rank := 1; rank < 10; rank++ {
		cur := gateThreshold(rank, 100)
		assert.Less(t, cur, prev, "rank %d", rank)
		prev = cur
	}
}
