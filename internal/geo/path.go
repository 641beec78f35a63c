package geo

import (
	"github.com/golang/geo/s2"
)

// Bounds is the axis-aligned bounding box of a path in decimal degrees.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// LengthKm returns the total great-circle length of the path in kilometers,
// rounded to 2 decimal places. Legs are summed unrounded so per-leg rounding
// error does not accumulate. Paths with fewer than two points have length 0.
func (p Path) LengthKm() float64 {
	if len(p) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(p); i++ {
		total += haversine(p[i-1], p[i])
	}
	return RoundKm(total)
}

// Bounds returns the bounding box of the path. An empty path yields the
// zero Bounds.
func (p Path) Bounds() Bounds {
	if len(p) == 0 {
		return Bounds{}
	}

	b := Bounds{
		MinLat: p[0].Lat, MaxLat: p[0].Lat,
		MinLng: p[0].Lng, MaxLng: p[0].Lng,
	}
	for _, c := range p[1:] {
		if c.Lat < b.MinLat {
			b.MinLat = c.Lat
		}
		if c.Lat > b.MaxLat {
			b.MaxLat = c.Lat
		}
		if c.Lng < b.MinLng {
			b.MinLng = c.Lng
		}
		if c.Lng > b.MaxLng {
			b.MaxLng = c.Lng
		}
	}
	return b
}

// PositionAt returns the point reached after traveling traveledKm along the
// path from its first point. Values at or below 0 return the first point,
// values at or beyond the path length return the last point. Within a leg the
// position is interpolated on the great circle between the leg's endpoints.
// An empty path yields the zero Coordinate.
func (p Path) PositionAt(traveledKm float64) Coordinate {
	if len(p) == 0 {
		return Coordinate{}
	}
	if traveledKm <= 0 || len(p) == 1 {
		return p[0]
	}

	remaining := traveledKm
	for i := 1; i < len(p); i++ {
		leg := haversine(p[i-1], p[i])
		if remaining <= leg {
			return moveToward(p[i-1], p[i], remaining, leg)
		}
		remaining -= leg
	}

	return p[len(p)-1]
}

// moveToward interpolates distanceKm along the great circle from a to b.
// legKm is the precomputed length of the leg.
func moveToward(a, b Coordinate, distanceKm, legKm float64) Coordinate {
	if legKm <= 0 || distanceKm >= legKm {
		return b
	}
	if distanceKm <= 0 {
		return a
	}

	start := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lng))
	end := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lng))

	fraction := distanceKm / legKm

	// Interpolate on the great circle path
	newPoint := s2.Interpolate(fraction, start, end)
	newLatLng := s2.LatLngFromPoint(newPoint)

	return Coordinate{Lat: newLatLng.Lat.Degrees(), Lng: newLatLng.Lng.Degrees()}
}

// Sample returns the path resampled at approximately intervalKm spacing,
// always keeping the first and last points. Intermediate points are placed by
// linear interpolation in degrees, which is accurate enough for the short
// segments this is used on (thinning dense road geometry before encoding).
// A non-positive interval returns the path unchanged.
func (p Path) Sample(intervalKm float64) Path {
	if len(p) == 0 {
		return nil
	}
	if intervalKm <= 0 || len(p) == 1 {
		return p
	}

	sampled := Path{p[0]}
	accumulated := 0.0

	for i := 1; i < len(p); i++ {
		segment := haversine(p[i-1], p[i])
		if segment <= 0 {
			continue
		}

		// consumed tracks how far into this segment samples have been placed,
		// so repeated samples within one long segment stay evenly spaced.
		consumed := 0.0
		for accumulated+(segment-consumed) >= intervalKm {
			consumed += intervalKm - accumulated
			fraction := consumed / segment

			lat := p[i-1].Lat + fraction*(p[i].Lat-p[i-1].Lat)
			lng := p[i-1].Lng + fraction*(p[i].Lng-p[i-1].Lng)
			sampled = append(sampled, Coordinate{Lat: lat, Lng: lng})

			accumulated = 0
		}

		accumulated += segment - consumed
	}

	last := p[len(p)-1]
	if sampled[len(sampled)-1] != last {
		sampled = append(sampled, last)
	}

	return sampled
}
