package worker

import (
	"log"
	"time"

	"routelink/internal/config"
	"routelink/internal/service/route"
)

// StartStatsWorker starts the worker that periodically logs catalog totals
func StartStatsWorker() {
	routeService := route.GetRouteService()

	ticker := time.NewTicker(config.StatsWorkerInterval)
	go func() {
		for range ticker.C {
			stats := routeService.Stats()
			log.Printf("Catalog: %d routes (%d active, %d archived), %.2f km total",
				stats.Total, stats.Active, stats.Archived, stats.TotalKm)
		}
	}()

	log.Println("Stats worker started with interval:", config.StatsWorkerInterval)
}
