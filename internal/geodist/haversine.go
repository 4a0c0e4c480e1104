// Package geodist computes great-circle distances between municipality
// centroids and memoizes them for the O(n²) scans the graph builders run.
package geodist

import (
	"math"

	"github.com/rotisserie/eris"
)

const (
	earthRadiusKm = 6371.0
	kmPerMile     = 1.609
)

// Miles returns the great-circle distance between two points in miles,
// computed with the haversine formula.
func Miles(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := degreesToRadians(lat1)
	phi2 := degreesToRadians(lat2)
	deltaPhi := degreesToRadians(lat2 - lat1)
	deltaLambda := degreesToRadians(lon2 - lon1)

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c / kmPerMile
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// ValidateCoordinates rejects non-finite or out-of-range coordinates.
// Ingestion calls this before any record reaches a builder, so NaN can
// never leak into an adjacency list.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return eris.Errorf("geodist: invalid coordinates (%v, %v)", lat, lon)
	}
	if lat < -90 || lat > 90 {
		return eris.Errorf("geodist: latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return eris.Errorf("geodist: longitude %v out of range [-180, 180]", lon)
	}
	return nil
}
