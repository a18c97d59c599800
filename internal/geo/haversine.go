package geo

import (
	"fos-allocation-service/internal/domain"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for all distances.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometers.
// Inputs are not range checked.
func Haversine(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// Rounding can push h slightly outside [0, 1] near antipodes.
	h = min(max(h, 0), 1)

	return EarthRadiusKm * 2 * math.Asin(math.Sqrt(h))
}

// RoundKm rounds a distance to 3 decimal places (meter precision).
func RoundKm(km float64) float64 {
	return math.Round(km*1000) / 1000
}
