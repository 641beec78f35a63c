package worker

import (
	"log"
	"time"

	"routelink/internal/config"
	"routelink/internal/service/route"
)

// StartPersistenceWorker starts the tickers that flush the catalog to Redis
// and back it up to PostgreSQL
func StartPersistenceWorker() {
	routeService := route.GetRouteService()

	// Redis gets the dirty subset often
	redisTicker := time.NewTicker(config.RedisBackupInterval)
	go func() {
		for range redisTicker.C {
			if err := routeService.SaveDirtyRoutesToRedis(); err != nil {
				log.Printf("Error saving to Redis: %v", err)
			}
		}
	}()

	// PostgreSQL gets the full catalog, less often
	pgTicker := time.NewTicker(config.PostgresBackupInterval)
	go func() {
		for range pgTicker.C {
			if err := routeService.SaveAllRoutesToPG(); err != nil {
				log.Printf("Error saving to PostgreSQL: %v", err)
			}
		}
	}()

	log.Println("Persistence worker started with intervals:",
		config.RedisBackupInterval, config.PostgresBackupInterval)
}
