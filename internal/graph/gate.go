package graph

import "math"

// gateThreshold returns the acceptance threshold for a candidate at the
// given 0-based rank (increasing-distance order). The first three ranks
// halve the base threshold per rank; beyond that it tightens cubically, so
// every additional edge demands sharply closer proximity and no node
// accumulates long-range fan-out.
func gateThreshold(rank int, maxDistance float64) float64 {
	if rank < 3 {
		return maxDistance / math.Pow(2, float64(rank))
	}
	return maxDistance / math.Pow(3, float64(rank))
}

// acceptAtRank reports whether a candidate at rank passes the decay gate.
// Equality is accepted; only a strictly greater distance fails. The gate is
// monotonically tightening, so the first failure ends acceptance for the
// entity being scanned.
func acceptAtRank(rank int, distance, maxDistance float64) bool {
	return distance <= gateThreshold(rank, maxDistance)
}
