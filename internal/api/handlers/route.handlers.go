package routes

import (
	"errors"
	"log"
	"strconv"

	"routelink/internal/polyline"
	"routelink/internal/service/route"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CreateRouteRequest is the payload for POST /api/routes
type CreateRouteRequest struct {
	Name       string  `json:"name"`
	Profile    string  `json:"profile"`
	Geometry   string  `json:"geometry" binding:"required"`
	ReportedKm float64 `json:"reported_km"`
}

// SetupRouteHandlers registers the route catalog endpoints
func SetupRouteHandlers(router *gin.RouterGroup) {
	group := router.Group("/routes")

	group.POST("", CreateRoute)
	group.GET("", ListRoutes)
	group.GET("/in-bounds", RoutesInBounds)
	group.GET("/:id", GetRoute)
	group.DELETE("/:id", ArchiveRoute)
	group.GET("/:id/path", GetRoutePath)
	group.GET("/:id/position", GetRoutePosition)
}

// CreateRoute handles catalog route creation
func CreateRoute(c *gin.Context) {
	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	created, err := route.GetRouteService().CreateRoute(req.Name, req.Profile, req.Geometry, req.ReportedKm)
	if err != nil {
		respondGeometryError(c, err)
		return
	}

	log.Printf("Created route %s (%d points, %.2f km)", created.ID, created.PointCount, created.PathKm)
	c.JSON(201, created)
}

// ListRoutes returns all catalog routes
func ListRoutes(c *gin.Context) {
	all := route.GetRouteService().GetAllRoutes()
	c.JSON(200, gin.H{
		"routes": all,
		"count":  len(all),
	})
}

// GetRoute returns a single route by ID
func GetRoute(c *gin.Context) {
	found, err := route.GetRouteService().GetRoute(c.Param("id"))
	if err != nil {
		c.JSON(404, gin.H{"error": "route not found"})
		return
	}
	c.JSON(200, found)
}

// ArchiveRoute marks a route archived
func ArchiveRoute(c *gin.Context) {
	id := c.Param("id")
	if err := route.GetRouteService().ArchiveRoute(id); err != nil {
		c.JSON(404, gin.H{"error": "route not found"})
		return
	}

	log.Printf("Archived route %s", id)
	c.JSON(200, gin.H{
		"status":  "success",
		"message": "Route archived",
	})
}

// GetRoutePath returns the decoded path of a route, as plain points or as a
// GeoJSON Feature with ?format=geojson
func GetRoutePath(c *gin.Context) {
	svc := route.GetRouteService()
	id := c.Param("id")

	found, err := svc.GetRoute(id)
	if err != nil {
		c.JSON(404, gin.H{"error": "route not found"})
		return
	}

	path, err := svc.PathOf(id)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	if c.Query("format") == "geojson" {
		ls := make(orb.LineString, len(path))
		for i, p := range path {
			ls[i] = orb.Point{p.Lng, p.Lat} // [lon, lat]
		}

		feature := geojson.NewFeature(ls)
		feature.Properties["id"] = found.ID
		feature.Properties["name"] = found.Name
		feature.Properties["profile"] = found.Profile
		feature.Properties["path_km"] = found.PathKm

		c.JSON(200, feature)
		return
	}

	c.JSON(200, gin.H{
		"route_id":    found.ID,
		"points":      path,
		"point_count": len(path),
		"path_km":     found.PathKm,
		"bounds":      path.Bounds(),
	})
}

// GetRoutePosition returns the point reached after traveled_km along the route
func GetRoutePosition(c *gin.Context) {
	id := c.Param("id")

	traveledKm, err := strconv.ParseFloat(c.Query("traveled_km"), 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "traveled_km must be a number"})
		return
	}

	position, err := route.GetRouteService().PositionAlong(id, traveledKm)
	if err != nil {
		if errors.Is(err, route.ErrRouteNotFound) {
			c.JSON(404, gin.H{"error": "route not found"})
			return
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"route_id":    id,
		"traveled_km": traveledKm,
		"position":    position,
	})
}

// RoutesInBounds returns active routes intersecting the given viewport
func RoutesInBounds(c *gin.Context) {
	minLat, err1 := strconv.ParseFloat(c.Query("min_lat"), 64)
	minLng, err2 := strconv.ParseFloat(c.Query("min_lng"), 64)
	maxLat, err3 := strconv.ParseFloat(c.Query("max_lat"), 64)
	maxLng, err4 := strconv.ParseFloat(c.Query("max_lng"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		c.JSON(400, gin.H{"error": "min_lat, min_lng, max_lat and max_lng must be numbers"})
		return
	}
	if minLat > maxLat || minLng > maxLng {
		c.JSON(400, gin.H{"error": "min bounds must not exceed max bounds"})
		return
	}

	hits := route.GetRouteService().RoutesInBounds(minLat, minLng, maxLat, maxLng)
	c.JSON(200, gin.H{
		"routes": hits,
		"count":  len(hits),
	})
}

// respondGeometryError maps geometry failures to a 400 with decoder detail
func respondGeometryError(c *gin.Context, err error) {
	var decErr *polyline.DecodeError
	if errors.As(err, &decErr) {
		c.JSON(400, gin.H{
			"error":  "invalid geometry",
			"offset": decErr.Offset,
			"reason": decErr.Reason,
		})
		return
	}

	if errors.Is(err, route.ErrEmptyGeometry) {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	c.JSON(500, gin.H{"error": err.Error()})
}
