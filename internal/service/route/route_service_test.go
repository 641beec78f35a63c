package route

import (
	"errors"
	"testing"
	"time"

	"github.com/dhconnelly/rtreego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routelink/internal/geo"
	"routelink/internal/model"
	"routelink/internal/polyline"
	"routelink/internal/service/storage"
)

const sierraGeometry = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func newTestService() *RouteService {
	return &RouteService{
		storage:        storage.NewMemoryStorage[string, *model.Route](),
		spatialIndex:   rtreego.NewTree(2, 25, 50),
		spatialEntries: make(map[string]*RouteSpatial),
		initialized:    true,
	}
}

func TestCreateRouteComputesFields(t *testing.T) {
	s := newTestService()

	route, err := s.CreateRoute("Sierra", "driving", sierraGeometry, 795.5)
	require.NoError(t, err)

	assert.Len(t, route.ID, 22)
	assert.Equal(t, "Sierra", route.Name)
	assert.Equal(t, "driving", route.Profile)
	assert.Equal(t, sierraGeometry, route.Geometry)
	assert.Equal(t, model.RouteStateActive, route.State)

	assert.Equal(t, 3, route.PointCount)
	assert.Len(t, route.Points, 3)
	assert.Equal(t, 38.5, route.OriginLat)
	assert.Equal(t, -120.2, route.OriginLng)
	assert.Equal(t, 43.252, route.DestinationLat)
	assert.Equal(t, -126.453, route.DestinationLng)

	assert.Equal(t, 789.77, route.PathKm)
	direct := geo.Distance(
		geo.Coordinate{Lat: 38.5, Lng: -120.2},
		geo.Coordinate{Lat: 43.252, Lng: -126.453},
	)
	assert.Equal(t, direct, route.DirectKm)
	assert.Equal(t, 795.5, route.ReportedKm)

	assert.False(t, route.CreatedAt.IsZero())
	assert.Equal(t, route.CreatedAt, route.UpdatedAt)
}

func TestCreateRouteDefaults(t *testing.T) {
	s := newTestService()

	route, err := s.CreateRoute("", "", sierraGeometry, 0)
	require.NoError(t, err)

	assert.Equal(t, "Route "+route.ID, route.Name)
	assert.Equal(t, "driving", route.Profile)
	assert.Equal(t, 0.0, route.ReportedKm)
}

func TestCreateRouteRejectsMalformedGeometry(t *testing.T) {
	s := newTestService()

	_, err := s.CreateRoute("bad", "driving", "_p~iF~ps|U_ulLnnqC_mqNvxq", 0)
	require.Error(t, err)

	var decErr *polyline.DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, 25, decErr.Offset)

	assert.Equal(t, 0, s.RouteCount())
}

func TestCreateRouteRejectsEmptyGeometry(t *testing.T) {
	s := newTestService()

	_, err := s.CreateRoute("empty", "driving", "", 0)
	require.ErrorIs(t, err, ErrEmptyGeometry)
	assert.Equal(t, 0, s.RouteCount())
}

func TestGetRoute(t *testing.T) {
	s := newTestService()

	created, err := s.CreateRoute("Sierra", "driving", sierraGeometry, 0)
	require.NoError(t, err)

	found, err := s.GetRoute(created.ID)
	require.NoError(t, err)
	assert.Same(t, created, found)

	_, err = s.GetRoute("missing")
	require.ErrorIs(t, err, ErrRouteNotFound)
}

func TestArchiveRoute(t *testing.T) {
	s := newTestService()

	route, err := s.CreateRoute("Sierra", "driving", sierraGeometry, 0)
	require.NoError(t, err)

	require.ErrorIs(t, s.ArchiveRoute("missing"), ErrRouteNotFound)

	require.NoError(t, s.ArchiveRoute(route.ID))
	assert.Equal(t, model.RouteStateArchived, route.State)
	assert.True(t, route.UpdatedAt.After(route.CreatedAt) || route.UpdatedAt.Equal(route.CreatedAt))

	// Archived routes stay readable but leave the spatial index.
	_, err = s.GetRoute(route.ID)
	require.NoError(t, err)
	assert.Empty(t, s.RoutesInBounds(38, -127, 44, -120))

	// Archiving twice is a no-op.
	require.NoError(t, s.ArchiveRoute(route.ID))
}

func TestPathOfFallsBackToDecoding(t *testing.T) {
	s := newTestService()

	// A route loaded from a store arrives without the decoded cache.
	s.storage.Set("r1", &model.Route{ID: "r1", Geometry: sierraGeometry})

	path, err := s.PathOf("r1")
	require.NoError(t, err)
	assert.Len(t, path, 3)

	s.storage.Set("r2", &model.Route{ID: "r2", Geometry: "_p~iF"})
	_, err = s.PathOf("r2")
	require.Error(t, err)

	_, err = s.PathOf("missing")
	require.ErrorIs(t, err, ErrRouteNotFound)
}

func TestPositionAlong(t *testing.T) {
	s := newTestService()

	// Two points one degree apart on the equator.
	route, err := s.CreateRoute("Equator hop", "walking", "???_ibE", 0)
	require.NoError(t, err)

	start, err := s.PositionAlong(route.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 0, Lng: 0}, start)

	end, err := s.PositionAlong(route.ID, 10000)
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 0, Lng: 1}, end)

	mid, err := s.PositionAlong(route.ID, route.PathKm/2)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mid.Lng, 1e-3)
}

func TestRoutesInBounds(t *testing.T) {
	s := newTestService()

	route, err := s.CreateRoute("Sierra", "driving", sierraGeometry, 0)
	require.NoError(t, err)

	hits := s.RoutesInBounds(38, -127, 44, -120)
	require.Len(t, hits, 1)
	assert.Equal(t, route.ID, hits[0].ID)

	// A viewport touching only part of the route's extent still matches.
	require.Len(t, s.RoutesInBounds(38, -121, 39, -120), 1)

	assert.Empty(t, s.RoutesInBounds(0, 0, 1, 1))
}

func TestRoutesInBoundsBeforeInit(t *testing.T) {
	s := newTestService()
	s.initialized = false

	_, err := s.CreateRoute("Sierra", "driving", sierraGeometry, 0)
	require.NoError(t, err)

	assert.Nil(t, s.RoutesInBounds(38, -127, 44, -120))
}

func TestMergeRoutesIntoMemory(t *testing.T) {
	s := newTestService()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	pgRoutes := []*model.Route{
		{ID: "a", Name: "A from PG", CreatedAt: older, UpdatedAt: older},
		{ID: "b", Name: "B from PG", CreatedAt: older, UpdatedAt: newer},
	}
	redisRoutes := map[string]*model.Route{
		"a": {ID: "a", Name: "A from Redis", UpdatedAt: newer},
		"b": {ID: "b", Name: "B stale", UpdatedAt: older},
		"c": {ID: "c", Name: "C only in Redis", UpdatedAt: newer},
	}

	merged := s.mergeRoutesIntoMemory(pgRoutes, redisRoutes)
	assert.Equal(t, 2, merged)

	a, err := s.GetRoute("a")
	require.NoError(t, err)
	assert.Equal(t, "A from Redis", a.Name)
	// The hot copy does not carry CreatedAt; the cold one fills it in.
	assert.Equal(t, older, a.CreatedAt)

	b, err := s.GetRoute("b")
	require.NoError(t, err)
	assert.Equal(t, "B from PG", b.Name)

	_, err = s.GetRoute("c")
	require.NoError(t, err)

	// Loading is not a modification; nothing should be flushed back out.
	assert.Empty(t, s.storage.GetDirty())
}

func TestRebuildPathsSkipsBadGeometry(t *testing.T) {
	s := newTestService()

	s.storage.Set("good", &model.Route{ID: "good", Geometry: sierraGeometry})
	s.storage.Set("bad", &model.Route{ID: "bad", Geometry: "_p~iF"})

	decoded := s.rebuildPaths()
	assert.Equal(t, 1, decoded)

	good, _ := s.GetRoute("good")
	assert.Len(t, good.Points, 3)

	bad, _ := s.GetRoute("bad")
	assert.Nil(t, bad.Points)
}

func TestStats(t *testing.T) {
	s := newTestService()

	first, err := s.CreateRoute("Sierra", "driving", sierraGeometry, 0)
	require.NoError(t, err)
	second, err := s.CreateRoute("Equator hop", "walking", "???_ibE", 0)
	require.NoError(t, err)
	require.NoError(t, s.ArchiveRoute(second.ID))

	stats := s.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Archived)
	assert.Equal(t, geo.RoundKm(first.PathKm+second.PathKm), stats.TotalKm)
}

func TestSeedDemoRoutes(t *testing.T) {
	s := newTestService()

	created := s.SeedDemoRoutes(3)
	assert.Equal(t, 3, created)
	assert.Equal(t, 3, s.RouteCount())

	// Every demo geometry must decode.
	for _, route := range s.GetAllRoutes() {
		assert.NotEmpty(t, route.Points, "route %s", route.Name)
	}

	limited := newTestService()
	assert.Equal(t, 1, limited.SeedDemoRoutes(1))
	assert.Equal(t, 1, limited.RouteCount())
}
