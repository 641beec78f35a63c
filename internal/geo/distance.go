package geo

import "math"

// EarthRadiusKm is the equatorial Earth radius used for all distance
// calculations. This is the equatorial radius, not the 6371 mean radius, and
// changing it shifts every reported distance.
const EarthRadiusKm = 6378.0

// Distance returns the great-circle distance between a and b in kilometers,
// rounded to 2 decimal places. It uses the Haversine formula with the Earth
// treated as a sphere of radius EarthRadiusKm. Any two coordinates produce a
// finite non-negative value; identical points produce exactly 0.
func Distance(a, b Coordinate) float64 {
	return RoundKm(haversine(a, b))
}

// haversine returns the unrounded great-circle distance in kilometers.
// Kept separate from Distance so path lengths can be summed without
// accumulating per-leg rounding error.
func haversine(a, b Coordinate) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*sinLng*sinLng

	// Rounding can push h a hair past 1 for near-antipodal points, which
	// would make Sqrt(1-h) NaN. Clamp so the result stays finite.
	if h > 1 {
		h = 1
	} else if h < 0 {
		h = 0
	}

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// RoundKm rounds a distance in kilometers to 2 decimal places, the precision
// distances are displayed with.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
