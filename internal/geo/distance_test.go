package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	saoPaulo = Coordinate{Lat: -23.5505, Lng: -46.6333}
	rio      = Coordinate{Lat: -22.9068, Lng: -43.1729}
	berlin   = Coordinate{Lat: 52.52, Lng: 13.405}
	paris    = Coordinate{Lat: 48.8566, Lng: 2.3522}
)

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	require.Equal(t, 0.0, Distance(Coordinate{}, Coordinate{}))
	require.Equal(t, 0.0, Distance(saoPaulo, saoPaulo))
}

func TestDistanceKnownCityPairs(t *testing.T) {
	assert.InDelta(t, 361.15, Distance(saoPaulo, rio), 1.0)

	// Far enough from a rounding boundary that the value is stable, so the
	// two-decimal contract can be checked exactly.
	assert.Equal(t, 878.43, Distance(berlin, paris))
}

func TestDistanceOneDegreeOfEquator(t *testing.T) {
	// One degree of arc on the equatorial radius: 6378 * pi / 180.
	require.Equal(t, 111.32, Distance(Coordinate{}, Coordinate{Lat: 0, Lng: 1}))
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := []struct {
		name string
		a, b Coordinate
	}{
		{"sao paulo rio", saoPaulo, rio},
		{"berlin paris", berlin, paris},
		{"across the antimeridian", Coordinate{Lat: 12.5, Lng: 179.9}, Coordinate{Lat: -7.25, Lng: -179.7}},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, Distance(tt.a, tt.b), Distance(tt.b, tt.a))
		})
	}
}

func TestDistanceAntipodal(t *testing.T) {
	// Antipodal points sit half a circumference apart. The haversine term is
	// clamped so floating error cannot push it past 1 and produce a NaN.
	half := math.Pi * EarthRadiusKm

	d := Distance(Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 0, Lng: 180})
	require.False(t, math.IsNaN(d))
	assert.InDelta(t, half, d, 0.01)

	d = Distance(Coordinate{Lat: 90, Lng: 0}, Coordinate{Lat: -90, Lng: 0})
	require.False(t, math.IsNaN(d))
	assert.InDelta(t, half, d, 0.01)
}

func TestDistanceScalesAlongEquator(t *testing.T) {
	// Along the equator the central angle is linear in longitude, so doubling
	// the span doubles the unrounded distance.
	d10 := haversine(Coordinate{}, Coordinate{Lat: 0, Lng: 10})
	d20 := haversine(Coordinate{}, Coordinate{Lat: 0, Lng: 20})
	require.InEpsilon(t, 2*d10, d20, 1e-9)
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 0.0, RoundKm(0))
	assert.Equal(t, 361.15, RoundKm(361.1513))
	assert.Equal(t, 361.16, RoundKm(361.1551))
	assert.Equal(t, -12.35, RoundKm(-12.3451))
}
