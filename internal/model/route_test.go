package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routelink/internal/geo"
)

func TestToLightVersion(t *testing.T) {
	now := time.Now()
	route := &Route{
		ID:         "abc",
		Name:       "Test route",
		Profile:    "driving",
		Geometry:   "_p~iF~ps|U",
		State:      RouteStateActive,
		PointCount: 1,
		PathKm:     12.5,
		UpdatedAt:  now,
		CreatedAt:  now.Add(-time.Hour),
		Points:     geo.Path{{Lat: 38.5, Lng: -120.2}},
	}

	light := route.ToLightVersion()
	assert.Equal(t, route.ID, light.ID)
	assert.Equal(t, route.Geometry, light.Geometry)
	assert.Equal(t, route.UpdatedAt, light.UpdatedAt)
	assert.True(t, light.CreatedAt.IsZero())
	assert.Nil(t, light.Points)
}

func TestRouteJSONHidesInternalFields(t *testing.T) {
	route := &Route{
		ID:       "abc",
		Geometry: "_p~iF~ps|U",
		Points:   geo.Path{{Lat: 38.5, Lng: -120.2}},
	}

	data, err := json.Marshal(route)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "geometry")
	assert.NotContains(t, fields, "Points")
	assert.NotContains(t, fields, "CreatedAt")
	assert.NotContains(t, fields, "DeletedAt")
}
