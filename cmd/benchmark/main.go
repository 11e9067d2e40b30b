package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1F47E/location-marker/pkg/models"
	"github.com/1F47E/location-marker/pkg/registry"
	"github.com/1F47E/location-marker/pkg/search"
	"github.com/1F47E/location-marker/pkg/spatial"
)

type BenchmarkResult struct {
	QueryType     string
	TotalQueries  int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	QueriesPerSec float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	TotalResults  int64
	AvgResults    float64
}

// queryFunc runs one operation and returns how many results it produced
type queryFunc func(r *rand.Rand, i int) (int, error)

func main() {
	var (
		storageFile = flag.String("i", "data/locations.json", "Storage file for search and near queries")
		queryType   = flag.String("t", "search", "Query type: add, search, near, mixed")
		numQueries  = flag.Int("n", 1000, "Number of operations to run")
		workers     = flag.Int("w", runtime.NumCPU(), "Number of concurrent workers")
		// World bounds for random centers
		extent = flag.Float64("extent", 10000, "Random centers are placed within [-extent, extent] on x and z")
		// Query-specific parameters
		pageSize = flag.Int("page-size", search.DefaultPageSize, "Page size (for search queries)")
		k        = flag.Int("k", 10, "Number of nearest waypoints")
	)
	flag.Parse()

	if *workers < 1 {
		*workers = 1
	}

	var result BenchmarkResult
	switch *queryType {
	case "add":
		result = benchmarkAdds(*numQueries, *workers, *extent)
	case "search", "near", "mixed":
		log.Printf("Loading waypoints from %s...\n", *storageFile)
		reg, err := registry.Open(*storageFile)
		if err != nil {
			log.Fatalf("Failed to load waypoints: %v", err)
		}
		log.Printf("Loaded %d waypoints\n", reg.Len())

		switch *queryType {
		case "search":
			result = benchmarkSearch(reg, *numQueries, *workers, *pageSize)
		case "near":
			result = benchmarkNearest(reg, *numQueries, *workers, *extent, *k)
		default:
			result = benchmarkMixed(reg, *numQueries, *workers, *extent, *pageSize, *k)
		}
	default:
		log.Fatalf("Unknown query type: %s", *queryType)
	}

	fmt.Println("\n=== Benchmark Results ===")
	fmt.Printf("Query Type: %s\n", result.QueryType)
	fmt.Printf("Total Queries: %d\n", result.TotalQueries)
	fmt.Printf("Total Duration: %v\n", result.TotalDuration)
	fmt.Printf("Average Duration: %v\n", result.AvgDuration)
	fmt.Printf("Queries/Second: %.2f\n", result.QueriesPerSec)
	fmt.Printf("Min Duration: %v\n", result.MinDuration)
	fmt.Printf("Max Duration: %v\n", result.MaxDuration)
	fmt.Printf("Total Results: %d\n", result.TotalResults)
	fmt.Printf("Avg Results/Query: %.2f\n", result.AvgResults)
	fmt.Printf("Workers Used: %d\n", *workers)
	fmt.Printf("CPU Cores: %d\n", runtime.NumCPU())
}

// run feeds numQueries operations to a pool of workers and times each one
func run(name string, numQueries, workers int, query queryFunc) BenchmarkResult {
	log.Printf("Running %d %s operations with %d workers...\n", numQueries, name, workers)

	var (
		totalResults atomic.Int64
		failures     atomic.Int64
		minDuration  = time.Hour
		maxDuration  time.Duration
		totalDur     time.Duration
		completed    int
		mu           sync.Mutex
	)

	startTime := time.Now()

	queryCh := make(chan int, numQueries)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

			for i := range queryCh {
				queryStart := time.Now()
				n, err := query(r, i)
				queryDuration := time.Since(queryStart)

				if err != nil {
					failures.Add(1)
					continue
				}
				totalResults.Add(int64(n))

				mu.Lock()
				completed++
				totalDur += queryDuration
				minDuration = min(minDuration, queryDuration)
				maxDuration = max(maxDuration, queryDuration)
				mu.Unlock()
			}
		}(w)
	}

	for i := 0; i < numQueries; i++ {
		queryCh <- i
	}
	close(queryCh)

	wg.Wait()
	totalDuration := time.Since(startTime)

	if f := failures.Load(); f > 0 {
		log.Printf("%d %s operations failed\n", f, name)
	}

	result := BenchmarkResult{
		QueryType:     name,
		TotalQueries:  completed,
		TotalDuration: totalDuration,
		QueriesPerSec: float64(completed) / totalDuration.Seconds(),
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		TotalResults:  totalResults.Load(),
	}
	if completed > 0 {
		result.AvgDuration = totalDur / time.Duration(completed)
		result.AvgResults = float64(result.TotalResults) / float64(completed)
	}
	return result
}

func benchmarkAdds(numQueries, workers int, extent float64) BenchmarkResult {
	dir, err := os.MkdirTemp("", "locmark-bench-*")
	if err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(dir)

	reg := registry.New(filepath.Join(dir, "locations.json"))

	return run("add", numQueries, workers, func(r *rand.Rand, i int) (int, error) {
		loc := models.Location{
			Name: fmt.Sprintf("bench_%d", i),
			Dim:  r.Intn(3) - 1,
			Pos:  randomPoint(r, extent),
		}
		if err := reg.Add(loc); err != nil {
			return 0, err
		}
		return 1, nil
	})
}

func benchmarkSearch(reg *registry.Registry, numQueries, workers, pageSize int) BenchmarkResult {
	return run("search", numQueries, workers, func(r *rand.Rand, i int) (int, error) {
		// keywords like "_12" hit a slice of the generated wp_<i> names
		keyword := fmt.Sprintf("_%d", r.Intn(100))
		res := search.Run(reg.List(), search.Query{Keyword: keyword, Page: 1, Size: pageSize})
		return len(res.Items), nil
	})
}

func benchmarkNearest(reg *registry.Registry, numQueries, workers int, extent float64, k int) BenchmarkResult {
	idx := spatial.Build(reg.List())
	log.Printf("Spatial index built with %d waypoints in %d zones\n", idx.Count(), len(idx.Zones()))

	return run("near", numQueries, workers, func(r *rand.Rand, i int) (int, error) {
		return len(idx.Nearest(randomPoint(r, extent), r.Intn(3)-1, k)), nil
	})
}

func benchmarkMixed(reg *registry.Registry, numQueries, workers int, extent float64, pageSize, k int) BenchmarkResult {
	perType := numQueries / 2
	log.Println("Running mixed benchmark (50% each type)...")

	searchResult := benchmarkSearch(reg, perType, workers, pageSize)
	nearResult := benchmarkNearest(reg, perType, workers, extent, k)

	totalQueries := searchResult.TotalQueries + nearResult.TotalQueries
	totalDuration := searchResult.TotalDuration + nearResult.TotalDuration
	totalResults := searchResult.TotalResults + nearResult.TotalResults

	result := BenchmarkResult{
		QueryType:     "mixed",
		TotalQueries:  totalQueries,
		TotalDuration: totalDuration,
		QueriesPerSec: float64(totalQueries) / totalDuration.Seconds(),
		MinDuration:   min(searchResult.MinDuration, nearResult.MinDuration),
		MaxDuration:   max(searchResult.MaxDuration, nearResult.MaxDuration),
		TotalResults:  totalResults,
	}
	if totalQueries > 0 {
		result.AvgDuration = totalDuration / time.Duration(totalQueries)
		result.AvgResults = float64(totalResults) / float64(totalQueries)
	}
	return result
}

func randomPoint(r *rand.Rand, extent float64) models.Point {
	return models.Point{
		X: -extent + r.Float64()*2*extent,
		Y: -64 + r.Float64()*384,
		Z: -extent + r.Float64()*2*extent,
	}
}
