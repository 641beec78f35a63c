package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"sync/atomic"

	"routelink/internal/geo"
	"routelink/internal/polyline"
	"routelink/internal/postgres"
	"routelink/internal/redis"
	"routelink/internal/service/route"
	"routelink/internal/service/storage"

	"github.com/qedus/osmpbf"
)

// seedEntry is one emitted route, shaped like the create-route API payload
type seedEntry struct {
	Name     string  `json:"name"`
	Profile  string  `json:"profile"`
	Geometry string  `json:"geometry"`
	PathKm   float64 `json:"path_km"`
}

func main() {
	pbfFlag := flag.String("pbf", "", "OSM .pbf extract to read")
	outFlag := flag.String("out", "routes.json", "seed file to write")
	dbFlag := flag.String("db", "", "PostgreSQL URL; when set, routes are also saved to the database")
	redisFlag := flag.String("redis", "", "Redis URL, used with -reset")
	resetFlag := flag.Bool("reset", false, "clear the Redis catalog copy so a restarted server reloads from PostgreSQL")
	sampleFlag := flag.Float64("sample", 0.5, "resample interval in km (0 keeps every way point)")
	limitFlag := flag.Int("limit", 0, "maximum routes to build (0 = no limit)")
	flag.Parse()

	if *pbfFlag == "" {
		log.Fatal("Usage: osm-route-seeder -pbf <extract.osm.pbf> [-out routes.json] [-db <postgres-url>]")
	}

	f, err := os.Open(*pbfFlag)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	numProcs := runtime.GOMAXPROCS(-1)

	// Phase 1: cache node coordinates, keyed by OSM node ID
	log.Println("Phase 1: Caching node coordinates...")
	nodeCoords := storage.NewShardedMemoryStorage[int64, [2]float64](16, nil)

	decoder := osmpbf.NewDecoder(f)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	decoder.Start(numProcs)

	for {
		object, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Error decoding: %v", err)
		}

		if node, ok := object.(*osmpbf.Node); ok {
			nodeCoords.Set(node.ID, [2]float64{node.Lat, node.Lon})
		}
	}
	log.Printf("Cached %d node coordinates", nodeCoords.Count())

	// Phase 2: collect named highway ways
	log.Println("Phase 2: Collecting highway ways...")
	if _, err := f.Seek(0, 0); err != nil {
		log.Fatalf("Failed to rewind file: %v", err)
	}
	decoder = osmpbf.NewDecoder(f)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	decoder.Start(numProcs)

	ways := storage.NewShardedMemoryStorage[int64, *osmpbf.Way](8, nil)
	skipped := 0

	for {
		object, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Error decoding: %v", err)
		}

		way, ok := object.(*osmpbf.Way)
		if !ok {
			continue
		}

		highway, isHighway := way.Tags["highway"]
		if !isHighway || profileForHighway(highway) == "" {
			continue
		}
		if wayName(way) == "" {
			skipped++
			continue
		}

		ways.Set(way.ID, way)
		if *limitFlag > 0 && ways.Count() >= *limitFlag {
			break
		}
	}
	log.Printf("Collected %d candidate ways (%d unnamed skipped)", ways.Count(), skipped)

	// Phase 3: build catalog routes from the ways, one goroutine per shard
	log.Println("Phase 3: Building routes...")
	routeService := route.GetRouteService()

	var built, dropped atomic.Int64
	ways.ForEachParallel(func(_ int64, way *osmpbf.Way) {
		path := pathForWay(way, nodeCoords)
		if *sampleFlag > 0 {
			path = path.Sample(*sampleFlag)
		}
		if len(path) < 2 {
			dropped.Add(1)
			return
		}

		highway := way.Tags["highway"]
		_, err := routeService.CreateRoute(wayName(way), profileForHighway(highway), polyline.Encode(path), 0)
		if err != nil {
			log.Printf("Skipping way %d: %v", way.ID, err)
			dropped.Add(1)
			return
		}

		if n := built.Add(1); n%1000 == 0 {
			log.Printf("Built %d routes...", n)
		}
	})
	log.Printf("Built %d routes (%d ways dropped)", built.Load(), dropped.Load())

	writeSeedFile(*outFlag, routeService)

	if *dbFlag != "" {
		postgres.Init(*dbFlag)
		if err := routeService.SaveAllRoutesToPG(); err != nil {
			log.Fatalf("Failed to save routes to PostgreSQL: %v", err)
		}
		if err := postgres.Close(); err != nil {
			log.Printf("Error closing PostgreSQL connection: %v", err)
		}
	}

	if *resetFlag && *redisFlag != "" {
		redis.Init(*redisFlag)
		if err := routeService.ClearRedisRoutes(); err != nil {
			log.Fatalf("Failed to clear Redis catalog: %v", err)
		}
		if err := redis.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}
}

// pathForWay resolves a way's node IDs against the coordinate cache.
// Nodes outside the extract are skipped.
func pathForWay(way *osmpbf.Way, nodeCoords *storage.ShardedMemoryStorage[int64, [2]float64]) geo.Path {
	path := make(geo.Path, 0, len(way.NodeIDs))
	for _, nodeID := range way.NodeIDs {
		coords, exists := nodeCoords.Get(nodeID)
		if !exists {
			continue
		}
		path = append(path, geo.Coordinate{Lat: coords[0], Lng: coords[1]})
	}
	return path
}

// wayName returns the way's name, falling back to its ref (motorways are
// often labeled only with a road number)
func wayName(way *osmpbf.Way) string {
	if name := way.Tags["name"]; name != "" {
		return name
	}
	return way.Tags["ref"]
}

// profileForHighway maps an OSM highway class to a catalog profile.
// Unlisted classes are not worth seeding.
func profileForHighway(highway string) string {
	switch highway {
	case "motorway", "trunk", "primary", "secondary", "tertiary", "residential", "unclassified":
		return "driving"
	case "footway", "pedestrian", "path", "steps":
		return "walking"
	case "cycleway":
		return "cycling"
	default:
		return ""
	}
}

func writeSeedFile(outFile string, routeService *route.RouteService) {
	all := routeService.GetAllRoutes()

	entries := make([]seedEntry, 0, len(all))
	for _, r := range all {
		entries = append(entries, seedEntry{
			Name:     r.Name,
			Profile:  r.Profile,
			Geometry: r.Geometry,
			PathKm:   r.PathKm,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal seed file: %v", err)
	}
	if err := os.WriteFile(outFile, data, 0644); err != nil {
		log.Fatalf("Failed to write seed file: %v", err)
	}

	log.Printf("Wrote %d routes to %s", len(entries), outFile)
}
