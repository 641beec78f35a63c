package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"routelink/internal/geo"
	"routelink/internal/model"
	"routelink/internal/polyline"
	pg "routelink/internal/postgres"
	redis_client "routelink/internal/redis"
	"routelink/internal/service/storage"
	"routelink/internal/util"

	"github.com/dhconnelly/rtreego"
	"gorm.io/gorm"
)

// RouteRedisKey is the Redis hash holding the hot copy of the catalog,
// one field per route ID.
const RouteRedisKey = "routes"

var (
	// ErrRouteNotFound is returned when a route ID is not in the catalog.
	ErrRouteNotFound = errors.New("route not found")

	// ErrEmptyGeometry is returned when a catalog route is created from a
	// geometry that decodes to no points. The decoder itself accepts the
	// empty string; a catalog entry must have at least one point.
	ErrEmptyGeometry = errors.New("route geometry decodes to no points")
)

// RouteService manages the in-memory route catalog and its persistence
type RouteService struct {
	storage        storage.Storage[string, *model.Route]
	spatialIndex   *rtreego.Rtree
	spatialEntries map[string]*RouteSpatial
	indexMutex     sync.RWMutex
	initialized    bool
	initMutex      sync.RWMutex
}

var (
	routeServiceInstance *RouteService
	routeServiceOnce     sync.Once
)

// GetRouteService returns the singleton instance of the RouteService.
func GetRouteService() *RouteService {
	routeServiceOnce.Do(func() {
		routeServiceInstance = &RouteService{
			storage:        storage.NewMemoryStorage[string, *model.Route](),
			spatialIndex:   rtreego.NewTree(2, 25, 50),
			spatialEntries: make(map[string]*RouteSpatial),
		}
	})
	return routeServiceInstance
}

// InitService initializes the service by loading data from PostgreSQL and Redis
func (s *RouteService) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}

	log.Println("Initializing RouteService...")
	startTime := time.Now()

	// Step 1: Load full data from PostgreSQL
	log.Println("Loading routes from PostgreSQL...")
	pgRoutes, err := s.loadAllRoutesFromPG(ctx)
	if err != nil {
		return fmt.Errorf("failed to load routes from PostgreSQL: %w", err)
	}
	log.Printf("Loaded %d routes from PostgreSQL in %v", len(pgRoutes), time.Since(startTime))

	// Step 2: Load updates from Redis (with timestamps)
	log.Println("Loading route updates from Redis...")
	redisRoutes, err := s.loadAllRoutesFromRedis()
	if err != nil {
		return fmt.Errorf("failed to load routes from Redis: %w", err)
	}
	log.Printf("Loaded %d route updates from Redis", len(redisRoutes))

	// Step 3: Merge data (Redis updates override PostgreSQL data)
	mergedCount := s.mergeRoutesIntoMemory(pgRoutes, redisRoutes)
	log.Printf("Merged %d newer routes from Redis", mergedCount)

	// Step 4: Decode geometries and build the spatial index
	decoded := s.rebuildPaths()
	s.rebuildSpatialIndex()
	log.Printf("Decoded %d route geometries and built spatial index", decoded)

	log.Printf("Initialization complete: %d routes in memory, took %v",
		s.storage.Count(), time.Since(startTime))

	s.initialized = true
	return nil
}

// loadAllRoutesFromPG loads all routes from PostgreSQL
func (s *RouteService) loadAllRoutesFromPG(ctx context.Context) ([]*model.Route, error) {
	db := pg.GetDB()
	var routes []*model.Route

	result := db.WithContext(ctx).Find(&routes)
	if result.Error != nil {
		return nil, result.Error
	}

	return routes, nil
}

// loadAllRoutesFromRedis loads the hot copies from the catalog hash
func (s *RouteService) loadAllRoutesFromRedis() (map[string]*model.Route, error) {
	fields, err := redis_client.HashGetAll(RouteRedisKey)
	if err != nil {
		return nil, err
	}

	routes := make(map[string]*model.Route, len(fields))
	for id, jsonStr := range fields {
		if jsonStr == "" {
			continue
		}

		route := &model.Route{}
		if err := json.Unmarshal([]byte(jsonStr), route); err != nil {
			log.Printf("Skipping unreadable Redis route %s: %v", id, err)
			continue
		}

		routes[route.ID] = route
	}

	return routes, nil
}

// mergeRoutesIntoMemory merges routes from PostgreSQL and Redis into memory storage
func (s *RouteService) mergeRoutesIntoMemory(pgRoutes []*model.Route, redisRoutes map[string]*model.Route) int {
	// First load all PostgreSQL routes into memory
	for _, pgRoute := range pgRoutes {
		s.storage.Set(pgRoute.ID, pgRoute)
	}

	// Override with Redis data where newer
	mergedCount := 0
	for id, redisRoute := range redisRoutes {
		existing, exists := s.storage.Get(id)
		if !exists || redisRoute.UpdatedAt.After(existing.UpdatedAt) {
			if exists {
				// CreatedAt and DeletedAt are not part of the hot copy
				redisRoute.CreatedAt = existing.CreatedAt
				redisRoute.DeletedAt = existing.DeletedAt
			}
			s.storage.Set(id, redisRoute)
			mergedCount++
		}
	}

	// The initial load is not a modification; nothing needs flushing back.
	s.storage.ClearDirty(keysOf(s.storage.GetDirty()))

	return mergedCount
}

// rebuildPaths decodes every stored geometry into the Points cache. Routes
// whose geometry no longer decodes stay listed but carry no path.
func (s *RouteService) rebuildPaths() int {
	decoded := 0
	s.storage.ForEach(func(id string, route *model.Route) bool {
		path, err := polyline.Decode(route.Geometry)
		if err != nil {
			log.Printf("Route %s has undecodable geometry: %v", id, err)
			return true
		}
		route.Points = path
		decoded++
		return true
	})
	return decoded
}

// CreateRoute decodes the geometry, computes the route's derived fields and
// stores it in the catalog. Malformed geometry fails with the decoder's
// *DecodeError; geometry with no points fails with ErrEmptyGeometry.
func (s *RouteService) CreateRoute(name, profile, geometry string, reportedKm float64) (*model.Route, error) {
	path, err := polyline.Decode(geometry)
	if err != nil {
		return nil, fmt.Errorf("invalid route geometry: %w", err)
	}
	if len(path) == 0 {
		return nil, ErrEmptyGeometry
	}

	id := util.ShortID()
	if name == "" {
		name = "Route " + id
	}
	if profile == "" {
		profile = "driving"
	}

	origin := path[0]
	destination := path[len(path)-1]
	now := time.Now()

	route := &model.Route{
		ID:             id,
		Name:           name,
		Profile:        profile,
		Geometry:       geometry,
		State:          model.RouteStateActive,
		OriginLat:      origin.Lat,
		OriginLng:      origin.Lng,
		DestinationLat: destination.Lat,
		DestinationLng: destination.Lng,
		PointCount:     len(path),
		PathKm:         path.LengthKm(),
		DirectKm:       geo.Distance(origin, destination),
		ReportedKm:     reportedKm,
		CreatedAt:      now,
		UpdatedAt:      now,
		Points:         path,
	}

	s.storage.Set(id, route)
	s.insertIntoSpatialIndex(route)

	return route, nil
}

// GetRoute returns a route by ID
func (s *RouteService) GetRoute(id string) (*model.Route, error) {
	route, exists := s.storage.Get(id)
	if !exists {
		return nil, ErrRouteNotFound
	}
	return route, nil
}

// GetAllRoutes returns all routes in the catalog
func (s *RouteService) GetAllRoutes() []*model.Route {
	return s.storage.GetAllValues()
}

// RouteCount returns the number of routes in the catalog
func (s *RouteService) RouteCount() int {
	return s.storage.Count()
}

// ArchiveRoute marks a route archived and drops it from the spatial index.
// The route stays readable; persistence carries the new state outward on the
// next flush.
func (s *RouteService) ArchiveRoute(id string) error {
	route, exists := s.storage.Get(id)
	if !exists {
		return ErrRouteNotFound
	}
	if route.State == model.RouteStateArchived {
		return nil
	}

	route.State = model.RouteStateArchived
	route.UpdatedAt = time.Now()
	s.storage.Set(id, route)
	s.removeFromSpatialIndex(route)

	return nil
}

// PathOf returns the decoded path of a route. The path is decoded once, at
// creation or catalog load, and reused afterwards.
func (s *RouteService) PathOf(id string) (geo.Path, error) {
	route, exists := s.storage.Get(id)
	if !exists {
		return nil, ErrRouteNotFound
	}

	if route.Points != nil {
		return route.Points, nil
	}

	// Geometry that failed to decode at load time fails the same way here.
	path, err := polyline.Decode(route.Geometry)
	if err != nil {
		return nil, fmt.Errorf("invalid route geometry: %w", err)
	}
	return path, nil
}

// PositionAlong returns the point reached after traveling traveledKm from the
// route's origin along its path.
func (s *RouteService) PositionAlong(id string, traveledKm float64) (geo.Coordinate, error) {
	path, err := s.PathOf(id)
	if err != nil {
		return geo.Coordinate{}, err
	}
	return path.PositionAt(traveledKm), nil
}

// CatalogStats is a point-in-time summary of the catalog
type CatalogStats struct {
	Total    int
	Active   int
	Archived int
	TotalKm  float64
}

// Stats walks the catalog and totals it up
func (s *RouteService) Stats() CatalogStats {
	var stats CatalogStats
	s.storage.ForEach(func(_ string, route *model.Route) bool {
		stats.Total++
		switch route.State {
		case model.RouteStateArchived:
			stats.Archived++
		default:
			stats.Active++
		}
		stats.TotalKm += route.PathKm
		return true
	})
	stats.TotalKm = geo.RoundKm(stats.TotalKm)
	return stats
}

// SaveDirtyRoutesToRedis saves modified routes to the catalog hash
func (s *RouteService) SaveDirtyRoutesToRedis() error {
	dirtyRoutes := s.storage.GetDirty()
	if len(dirtyRoutes) == 0 {
		return nil
	}

	client := redis_client.GetClient()
	ctx := context.Background()
	pipe := client.Pipeline()

	// Collect keys to clear flags after successful save
	keys := make([]string, 0, len(dirtyRoutes))

	for id, route := range dirtyRoutes {
		routeJSON, err := json.Marshal(route.ToLightVersion())
		if err != nil {
			return err
		}
		pipe.HSet(ctx, RouteRedisKey, id, routeJSON)
		keys = append(keys, id)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return err
	}

	// Clear flags only after successful save
	s.storage.ClearDirty(keys)

	log.Printf("Saved %d routes to Redis", len(dirtyRoutes))
	return nil
}

// SaveAllRoutesToPG saves all routes to PostgreSQL in batches
func (s *RouteService) SaveAllRoutesToPG() error {
	allRoutes := s.storage.GetAllValues()
	if len(allRoutes) == 0 {
		return nil
	}

	db := pg.GetDB()
	batchSize := 1000

	// Process in batches to avoid overwhelming the database
	for i := 0; i < len(allRoutes); i += batchSize {
		end := i + batchSize
		if end > len(allRoutes) {
			end = len(allRoutes)
		}

		batch := allRoutes[i:end]

		err := db.Transaction(func(tx *gorm.DB) error {
			for _, route := range batch {
				result := tx.Save(route)
				if result.Error != nil {
					return result.Error
				}
			}
			return nil
		})

		if err != nil {
			return err
		}

		log.Printf("Saved batch of %d routes to PostgreSQL (%d/%d)",
			len(batch), end, len(allRoutes))
	}

	return nil
}

// ClearRedisRoutes drops the hot copy of the catalog. Used by seeding tools
// so a restarted server reloads from PostgreSQL alone.
func (s *RouteService) ClearRedisRoutes() error {
	client := redis_client.GetClient()
	ctx := context.Background()

	if err := client.Del(ctx, RouteRedisKey).Err(); err != nil {
		return err
	}

	log.Println("Cleared route catalog from Redis")
	return nil
}

// SeedDemoRoutes fills an empty catalog with up to count well-known demo
// routes so a fresh install has something to serve.
func (s *RouteService) SeedDemoRoutes(count int) int {
	demos := []struct {
		name     string
		profile  string
		geometry string
	}{
		// The polyline documentation's example path through the Sierra Nevada.
		{"Sierra Nevada sample", "driving", "_p~iF~ps|U_ulLnnqC_mqNvxq`@"},
		// A short two-point hop along the equator.
		{"Equator hop", "walking", "???_ibE"},
		// Single-segment line between central Berlin and central Paris.
		{"Berlin to Paris", "driving", "_yp_IgdypAfojU~vmbA"},
	}

	created := 0
	for _, demo := range demos {
		if created >= count {
			break
		}
		if _, err := s.CreateRoute(demo.name, demo.profile, demo.geometry, 0); err != nil {
			log.Printf("Failed to seed demo route %q: %v", demo.name, err)
			continue
		}
		created++
	}

	if created > 0 {
		log.Printf("Seeded %d demo routes", created)
	}
	return created
}

func keysOf(m map[string]*model.Route) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
