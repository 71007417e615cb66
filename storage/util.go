package storage

import (
	"math"
)

// Great circle distance in km.
func HaversineDistance(aLat, aLon, bLat, bLon float64) float64 {
	const earthRadiusKm = 6371

	aLatRad := aLat * math.Pi / 180
	aLonRad := aLon * math.Pi / 180
	bLatRad := bLat * math.Pi / 180
	bLonRad := bLon * math.Pi / 180
	deltaLat := aLatRad - bLatRad
	deltaLon := aLonRad - bLonRad

	a := math.Cos(aLatRad)*math.Cos(bLatRad)*math.Pow(math.Sin(deltaLon/2), 2) + math.Pow(math.Sin(deltaLat/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return c * earthRadiusKm
}

// Distance in km between two [lat, lng] coordinates.
func CoordinateDistance(a, b Coordinate) float64 {
	return HaversineDistance(a.Lat(), a.Lng(), b.Lat(), b.Lng())
}

// Reports whether two coordinates are equal within epsilon degrees.
func CoordinatesClose(a, b Coordinate, epsilon float64) bool {
	return math.Abs(a.Lat()-b.Lat()) < epsilon && math.Abs(a.Lng()-b.Lng()) < epsilon
}
