package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/1F47E/location-marker/pkg/models"
	"github.com/1F47E/location-marker/pkg/registry"
	"github.com/1F47E/location-marker/pkg/search"
	"github.com/1F47E/location-marker/pkg/spatial"
)

type result struct {
	Location models.Location `json:"location"`
	Distance *float64        `json:"distance,omitempty"`
}

func main() {
	var (
		storageFile = flag.String("i", "data/locations.json", "Storage file path")
		queryType   = flag.String("t", "search", "Query type: search, page, near, within")
		// Search parameters
		keyword = flag.String("keyword", "", "Keyword (search/page query)")
		page    = flag.Int("page", 1, "Page number (page query)")
		size    = flag.Int("size", search.DefaultPageSize, "Page size (page query)")
		// Proximity parameters
		x      = flag.Float64("x", 0, "Center x (near/within query)")
		y      = flag.Float64("y", 0, "Center y (near/within query)")
		z      = flag.Float64("z", 0, "Center z (near/within query)")
		dim    = flag.Int("dim", 0, "Zone (near/within query)")
		radius = flag.Float64("radius", 100, "Radius in blocks (within query)")
		k      = flag.Int("k", 10, "Number of nearest waypoints (near query)")
		// Output format
		outputJSON = flag.Bool("json", false, "Output results as JSON")
		limit      = flag.Int("limit", 100, "Maximum number of results to display")
	)
	flag.Parse()

	log.Printf("Loading waypoints from %s...\n", *storageFile)
	reg, err := registry.Open(*storageFile)
	if err != nil {
		log.Fatalf("Failed to load waypoints: %v", err)
	}
	log.Printf("Loaded %d waypoints\n", reg.Len())

	center := models.Point{X: *x, Y: *y, Z: *z}
	var results []result

	switch *queryType {
	case "search":
		matched := search.Filter(reg.List(), *keyword)
		results = plain(matched)
		log.Printf("Search %q found %d waypoints\n", *keyword, len(matched))

	case "page":
		p := search.Paginate(search.Filter(reg.List(), *keyword), *page, *size)
		results = plain(p.Items)
		log.Printf("Page %d of %d matches (prev: %t, next: %t)\n", p.Number, p.Total, p.HasPrev, p.HasNext)

	case "near":
		hits := spatial.Build(reg.List()).Nearest(center, *dim, *k)
		results = withDistance(hits)
		log.Printf("Found %d nearest waypoints\n", len(hits))

	case "within":
		hits := spatial.Build(reg.List()).Within(center, *dim, *radius)
		results = withDistance(hits)
		log.Printf("Within query (%.1f blocks) found %d waypoints\n", *radius, len(hits))

	default:
		log.Fatalf("Unknown query type: %s", *queryType)
	}

	if len(results) > *limit {
		log.Printf("Showing first %d results (use --limit to see more)\n", *limit)
		results = results[:*limit]
	}

	if *outputJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			log.Fatalf("Failed to encode results: %v", err)
		}
		return
	}

	for i, r := range results {
		loc := r.Location
		if r.Distance != nil {
			fmt.Printf("%d. %s: (%.2f, %.2f, %.2f) dim %d - %.2f blocks\n",
				i+1, loc.Name, loc.Pos.X, loc.Pos.Y, loc.Pos.Z, loc.Dim, *r.Distance)
		} else {
			fmt.Printf("%d. %s: (%.2f, %.2f, %.2f) dim %d\n",
				i+1, loc.Name, loc.Pos.X, loc.Pos.Y, loc.Pos.Z, loc.Dim)
		}
	}
}

func plain(locs []models.Location) []result {
	out := make([]result, len(locs))
	for i, loc := range locs {
		out[i] = result{Location: loc}
	}
	return out
}

func withDistance(hits []spatial.Hit) []result {
	out := make([]result, len(hits))
	for i, h := range hits {
		d := h.Distance
		out[i] = result{Location: h.Location, Distance: &d}
	}
	return out
}
