package routes

import (
	"time"

	"routelink/internal/service/route"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// SetupMainHandlers registers the main application endpoints
func SetupMainHandlers(router *gin.RouterGroup, config map[string]string) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "routelink",
			"port":    config["port"],
			"routes":  route.GetRouteService().RouteCount(),
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
		})
	})
}
