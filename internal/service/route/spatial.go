package route

import (
	"log"

	"routelink/internal/model"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minRectSpan pads degenerate rectangles; rtreego requires positive lengths
// and a single-point route has a zero-size bounding box.
const minRectSpan = 0.0001

// RouteSpatial represents a route with its spatial information for R-tree indexing
type RouteSpatial struct {
	ID          string         // Route identifier
	LineString  orb.LineString // Decoded geometry
	BoundingBox orb.Bound      // Bounding box of the geometry
	Route       *model.Route   // Reference to the original route object
}

// newRouteSpatial builds the index entry for a route from its decoded points.
// Routes without a decoded path cannot be indexed.
func newRouteSpatial(route *model.Route) *RouteSpatial {
	if len(route.Points) == 0 {
		return nil
	}

	ls := make(orb.LineString, len(route.Points))
	for i, c := range route.Points {
		ls[i] = orb.Point{c.Lng, c.Lat} // [lon, lat]
	}

	return &RouteSpatial{
		ID:          route.ID,
		LineString:  ls,
		BoundingBox: ls.Bound(),
		Route:       route,
	}
}

// Bounds implements the rtreego.Spatial interface
// Returns the bounding rectangle of the route for R-tree indexing
func (r *RouteSpatial) Bounds() rtreego.Rect {
	minX, minY := r.BoundingBox.Min[0], r.BoundingBox.Min[1]
	maxX, maxY := r.BoundingBox.Max[0], r.BoundingBox.Max[1]

	width := maxX - minX
	if width < minRectSpan {
		width = minRectSpan
	}
	height := maxY - minY
	if height < minRectSpan {
		height = minRectSpan
	}

	rect, _ := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{width, height},
	)

	return rect
}

// insertIntoSpatialIndex adds a route to the R-tree
func (s *RouteService) insertIntoSpatialIndex(route *model.Route) {
	entry := newRouteSpatial(route)
	if entry == nil {
		return
	}

	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	s.spatialIndex.Insert(entry)
	s.spatialEntries[route.ID] = entry
}

// removeFromSpatialIndex drops a route's entry from the R-tree
func (s *RouteService) removeFromSpatialIndex(route *model.Route) {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	entry, exists := s.spatialEntries[route.ID]
	if !exists {
		return
	}

	s.spatialIndex.Delete(entry)
	delete(s.spatialEntries, route.ID)
}

// rebuildSpatialIndex rebuilds the spatial index for efficient searching
func (s *RouteService) rebuildSpatialIndex() {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	// Create a new R-tree
	s.spatialIndex = rtreego.NewTree(2, 25, 50)
	s.spatialEntries = make(map[string]*RouteSpatial)

	// Add all active routes with decoded geometry to the index
	s.storage.ForEach(func(id string, route *model.Route) bool {
		if route.State == model.RouteStateArchived {
			return true
		}

		entry := newRouteSpatial(route)
		if entry == nil {
			return true
		}

		s.spatialIndex.Insert(entry)
		s.spatialEntries[id] = entry
		return true
	})
}

// RoutesInBounds returns all active routes whose bounding boxes intersect
// the given viewport
func (s *RouteService) RoutesInBounds(minLat, minLng, maxLat, maxLng float64) []*model.Route {
	if !s.initialized {
		return nil
	}

	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	width := maxLng - minLng
	if width < minRectSpan {
		width = minRectSpan
	}
	height := maxLat - minLat
	if height < minRectSpan {
		height = minRectSpan
	}

	// Create search rectangle from the bounds
	searchRect, err := rtreego.NewRect(
		rtreego.Point{minLng, minLat},
		[]float64{width, height},
	)
	if err != nil {
		log.Printf("invalid search rect: %v", err)
		return nil
	}

	// Find candidate routes using the spatial index
	spatialResults := s.spatialIndex.SearchIntersect(searchRect)

	if len(spatialResults) == 0 {
		return nil
	}

	// Extract the routes from the spatial results
	var result []*model.Route
	for _, item := range spatialResults {
		routeSpatial := item.(*RouteSpatial)
		result = append(result, routeSpatial.Route)
	}

	return result
}
