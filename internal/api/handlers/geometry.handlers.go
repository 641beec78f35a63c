package routes

import (
	"math"
	"strconv"

	"routelink/internal/geo"
	"routelink/internal/polyline"

	"github.com/gin-gonic/gin"
)

// DecodeGeometryRequest is the payload for POST /api/geometry/decode
type DecodeGeometryRequest struct {
	Geometry string `json:"geometry"`
	// Precision is the number of decimal digits the polyline was encoded
	// with; 0 means the standard 5. GraphHopper-style geometry uses 6.
	Precision int `json:"precision"`
}

// EncodeGeometryRequest is the payload for POST /api/geometry/encode
type EncodeGeometryRequest struct {
	Points    geo.Path `json:"points" binding:"required"`
	Precision int      `json:"precision"`
}

// SetupGeometryHandlers registers the stateless geometry endpoints
func SetupGeometryHandlers(router *gin.RouterGroup) {
	group := router.Group("/geometry")

	group.POST("/decode", DecodeGeometry)
	group.POST("/encode", EncodeGeometry)

	router.GET("/distance", GetDistance)
}

// DecodeGeometry decodes an encoded polyline without storing anything
func DecodeGeometry(c *gin.Context) {
	var req DecodeGeometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	scale, ok := scaleFromPrecision(req.Precision)
	if !ok {
		c.JSON(400, gin.H{"error": "precision must be between 1 and 9"})
		return
	}

	path, err := polyline.DecodeWithScale(req.Geometry, scale)
	if err != nil {
		respondGeometryError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"points":      path,
		"point_count": len(path),
		"length_km":   path.LengthKm(),
		"bounds":      path.Bounds(),
	})
}

// EncodeGeometry encodes a list of points into a polyline string
func EncodeGeometry(c *gin.Context) {
	var req EncodeGeometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	scale, ok := scaleFromPrecision(req.Precision)
	if !ok {
		c.JSON(400, gin.H{"error": "precision must be between 1 and 9"})
		return
	}

	c.JSON(200, gin.H{
		"geometry":    polyline.EncodeWithScale(req.Points, scale),
		"point_count": len(req.Points),
	})
}

// GetDistance returns the great-circle distance between two coordinates
func GetDistance(c *gin.Context) {
	fromLat, err1 := strconv.ParseFloat(c.Query("from_lat"), 64)
	fromLng, err2 := strconv.ParseFloat(c.Query("from_lng"), 64)
	toLat, err3 := strconv.ParseFloat(c.Query("to_lat"), 64)
	toLng, err4 := strconv.ParseFloat(c.Query("to_lng"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		c.JSON(400, gin.H{"error": "from_lat, from_lng, to_lat and to_lng must be numbers"})
		return
	}

	from := geo.Coordinate{Lat: fromLat, Lng: fromLng}
	to := geo.Coordinate{Lat: toLat, Lng: toLng}

	c.JSON(200, gin.H{
		"from":        from,
		"to":          to,
		"distance_km": geo.Distance(from, to),
	})
}

// scaleFromPrecision converts decimal-digit precision to the grid scale.
// Zero selects the polyline default.
func scaleFromPrecision(precision int) (float64, bool) {
	if precision == 0 {
		return polyline.DefaultScale, true
	}
	if precision < 1 || precision > 9 {
		return 0, false
	}
	return math.Pow10(precision), true
}
