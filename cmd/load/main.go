package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/1F47E/location-marker/pkg/models"
	"github.com/1F47E/location-marker/pkg/registry"
)

func main() {
	var (
		numPoints  = flag.Int("n", 10000, "Number of waypoints to generate")
		outputFile = flag.String("o", "data/locations.json", "Output storage file (.json or .yaml)")
		workers    = flag.Int("w", runtime.NumCPU(), "Number of worker goroutines")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		// World bounds for random generation
		extent = flag.Float64("extent", 10000, "Waypoints are placed within [-extent, extent] on x and z")
		minY   = flag.Float64("min-y", -64, "Minimum height")
		maxY   = flag.Float64("max-y", 320, "Maximum height")
	)
	flag.Parse()

	if *workers < 1 {
		*workers = 1
	}

	log.Printf("Generating %d random waypoints with %d workers...\n", *numPoints, *workers)
	log.Printf("World bounds: x/z[%.0f, %.0f], y[%.0f, %.0f]\n", -*extent, *extent, *minY, *maxY)

	locs := generateRandomLocations(*numPoints, *extent, *minY, *maxY, *workers, *seed)

	reg := registry.New(*outputFile)
	if err := reg.Load(); err != nil {
		log.Fatalf("Failed to load existing storage: %v", err)
	}
	if reg.Len() > 0 {
		log.Fatalf("Refusing to overwrite %s: it already holds %d waypoints", *outputFile, reg.Len())
	}

	log.Printf("Saving waypoints to %s...\n", *outputFile)
	startTime := time.Now()

	if err := reg.AddMany(locs); err != nil {
		log.Fatalf("Failed to save waypoints: %v", err)
	}

	log.Printf("Waypoints saved in %v\n", time.Since(startTime))

	fileInfo, err := os.Stat(*outputFile)
	if err == nil {
		log.Printf("Storage file size: %.2f MB\n", float64(fileInfo.Size())/(1024*1024))
	}
	log.Printf("Total waypoints stored: %d\n", reg.Len())
}

var dims = [...]int{0, 0, 0, -1, 1}

func generateRandomLocations(n int, extent, minY, maxY float64, workers int, seed int64) []models.Location {
	locs := make([]models.Location, n)

	pointsPerWorker := n / workers
	remainder := n % workers

	type workRange struct {
		start, end int
	}
	work := make(chan workRange, workers)
	done := make(chan bool, workers)

	for w := 0; w < workers; w++ {
		go func(workerID int) {
			// each worker owns its generator
			r := rand.New(rand.NewSource(seed + int64(workerID)))

			for wr := range work {
				for i := wr.start; i < wr.end; i++ {
					locs[i] = models.Location{
						Name: fmt.Sprintf("wp_%d", i),
						Dim:  dims[r.Intn(len(dims))],
						Pos: models.Point{
							X: float64(int(-extent + r.Float64()*2*extent)),
							Y: float64(int(minY + r.Float64()*(maxY-minY))),
							Z: float64(int(-extent + r.Float64()*2*extent)),
						},
					}
				}
			}
			done <- true
		}(w)
	}

	start := 0
	for w := 0; w < workers; w++ {
		size := pointsPerWorker
		if w < remainder {
			size++
		}
		work <- workRange{start: start, end: start + size}
		start += size
	}
	close(work)

	for w := 0; w < workers; w++ {
		<-done
	}

	return locs
}
