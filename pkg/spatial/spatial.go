// Package spatial implements an R-Tree index over waypoints for proximity
// queries. Each zone gets its own tree, since coordinates in different
// zones are unrelated.
package spatial

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"

	"github.com/1F47E/location-marker/pkg/models"
)

const (
	tolerance   = 0.01
	minChildren = 25
	maxChildren = 50
	dimensions  = 3
)

// spatialLocation wraps a location to implement rtreego.Spatial
type spatialLocation struct {
	loc  models.Location
	rect rtreego.Rect
}

func (sl *spatialLocation) Bounds() rtreego.Rect {
	return sl.rect
}

// Hit is a query result with its distance from the query point
type Hit struct {
	Location models.Location
	Distance float64
}

// Index is a thread-safe, zone-partitioned R-Tree
type Index struct {
	mu         sync.RWMutex
	partitions map[int]*rtreego.Rtree
	itemCount  atomic.Int64
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		partitions: make(map[int]*rtreego.Rtree),
	}
}

// Build creates an index holding locs
func Build(locs []models.Location) *Index {
	idx := NewIndex()
	idx.Index(locs)
	return idx
}

// Index adds locations, grouping them by zone and filling each zone's tree
// in its own goroutine.
func (idx *Index) Index(locs []models.Location) {
	if len(locs) == 0 {
		return
	}

	grouped := make(map[int][]*spatialLocation)
	for _, loc := range locs {
		p := rtreego.Point{loc.Pos.X, loc.Pos.Y, loc.Pos.Z}
		grouped[loc.Dim] = append(grouped[loc.Dim], &spatialLocation{loc: loc.Clone(), rect: p.ToRect(tolerance)})
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for dim := range grouped {
		if _, ok := idx.partitions[dim]; !ok {
			idx.partitions[dim] = rtreego.NewTree(dimensions, minChildren, maxChildren)
		}
	}

	var wg sync.WaitGroup
	var totalInserted atomic.Int64

	for dim, items := range grouped {
		wg.Add(1)
		go func(tree *rtreego.Rtree, items []*spatialLocation) {
			defer wg.Done()

			// each zone has its own tree, so no cross-goroutine sharing
			for _, item := range items {
				tree.Insert(item)
			}
			totalInserted.Add(int64(len(items)))
		}(idx.partitions[dim], items)
	}

	wg.Wait()
	idx.itemCount.Add(totalInserted.Load())
}

// Nearest returns up to k locations in zone dim closest to center, nearest first
func (idx *Index) Nearest(center models.Point, dim int, k int) []Hit {
	if k <= 0 {
		return []Hit{}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tree, ok := idx.partitions[dim]
	if !ok || tree.Size() == 0 {
		return []Hit{}
	}

	// Ask for extra candidates: the tree ranks by distance to the padded
	// rectangle, not to the point itself.
	candidates := tree.NearestNeighbors(min(2*k, tree.Size()), rtreego.Point{center.X, center.Y, center.Z})

	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		item, ok := c.(*spatialLocation)
		if !ok || item == nil {
			continue
		}
		hits = append(hits, Hit{Location: item.loc.Clone(), Distance: Distance(center, item.loc.Pos)})
	}
	sortHits(hits)

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Within returns every location in zone dim no farther than radius from
// center, nearest first
func (idx *Index) Within(center models.Point, dim int, radius float64) []Hit {
	if radius < 0 || math.IsNaN(radius) {
		return []Hit{}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tree, ok := idx.partitions[dim]
	if !ok || tree.Size() == 0 {
		return []Hit{}
	}

	side := math.Max(2*radius, tolerance)
	half := side / 2
	bounds, err := rtreego.NewRect(
		rtreego.Point{center.X - half, center.Y - half, center.Z - half},
		[]float64{side, side, side},
	)
	if err != nil {
		return []Hit{}
	}

	results := tree.SearchIntersect(bounds)

	hits := make([]Hit, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialLocation)
		if !ok || item == nil {
			continue
		}
		dist := Distance(center, item.loc.Pos)
		if dist <= radius {
			hits = append(hits, Hit{Location: item.loc.Clone(), Distance: dist})
		}
	}
	sortHits(hits)
	return hits
}

// Count returns the number of indexed locations
func (idx *Index) Count() int64 {
	return idx.itemCount.Load()
}

// Zones returns the zone ids that have at least one location, ascending
func (idx *Index) Zones() []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	zones := make([]int, 0, len(idx.partitions))
	for dim, tree := range idx.partitions {
		if tree.Size() > 0 {
			zones = append(zones, dim)
		}
	}
	sort.Ints(zones)
	return zones
}

// Clear removes all locations from the index
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.partitions = make(map[int]*rtreego.Rtree)
	idx.itemCount.Store(0)
}

// Distance is the straight-line distance between two points
func Distance(a, b models.Point) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// sortHits orders by distance, then by name so ties are deterministic
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Location.Name < hits[j].Location.Name
	})
}
