package main

import (
	"encoding/json"
	"flag"
	"log"
	"math"
	"os"
	"strings"

	"routelink/internal/geo"
	"routelink/internal/polyline"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func main() {
	geometryFlag := flag.String("geometry", "", "encoded polyline to decode")
	inputFlag := flag.String("input", "", "file containing the encoded polyline")
	outputFlag := flag.String("output", "route.geojson", "output GeoJSON file")
	precisionFlag := flag.Int("precision", 5, "decimal digits of the encoding (5 standard, 6 GraphHopper)")
	nameFlag := flag.String("name", "Exported route", "feature name property")
	flag.Parse()

	encoded := *geometryFlag
	if encoded == "" && *inputFlag != "" {
		data, err := os.ReadFile(*inputFlag)
		if err != nil {
			log.Fatalf("Failed to read input file: %v", err)
		}
		encoded = strings.TrimSpace(string(data))
	}
	if encoded == "" {
		log.Fatal("Usage: route-export -geometry <polyline> [-output route.geojson], or -input <file>")
	}

	if *precisionFlag < 1 || *precisionFlag > 9 {
		log.Fatalf("Precision must be between 1 and 9, got %d", *precisionFlag)
	}
	scale := math.Pow10(*precisionFlag)

	path, err := polyline.DecodeWithScale(encoded, scale)
	if err != nil {
		log.Fatalf("Failed to decode geometry: %v", err)
	}
	if len(path) == 0 {
		log.Fatal("Geometry decodes to no points")
	}

	log.Printf("Decoded %d points, %.2f km", len(path), path.LengthKm())

	// Build a FeatureCollection: the route line plus origin/destination markers
	fc := geojson.NewFeatureCollection()

	ls := make(orb.LineString, len(path))
	for i, p := range path {
		ls[i] = orb.Point{p.Lng, p.Lat} // [lon, lat] for GeoJSON
	}

	routeFeature := geojson.NewFeature(ls)
	routeFeature.Properties["name"] = *nameFlag
	routeFeature.Properties["point_count"] = len(path)
	routeFeature.Properties["length_km"] = path.LengthKm()
	routeFeature.Properties["direct_km"] = geo.Distance(path[0], path[len(path)-1])
	fc.Append(routeFeature)

	origin := geojson.NewFeature(orb.Point{path[0].Lng, path[0].Lat})
	origin.Properties["name"] = "Origin"
	origin.Properties["type"] = "marker"
	fc.Append(origin)

	destination := geojson.NewFeature(orb.Point{path[len(path)-1].Lng, path[len(path)-1].Lat})
	destination.Properties["name"] = "Destination"
	destination.Properties["type"] = "marker"
	fc.Append(destination)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal GeoJSON: %v", err)
	}

	if err := os.WriteFile(*outputFlag, data, 0644); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}

	log.Printf("Wrote %s", *outputFlag)
}
