// Package search filters and pages an ordered list of locations. It never
// reorders its input: results keep registry insertion order.
package search

import (
	"math"
	"strings"

	"github.com/1F47E/location-marker/pkg/models"
)

// DefaultPageSize is used when a caller passes a non-positive page size
const DefaultPageSize = 10

// Matches reports whether keyword occurs in the name or, when present, the
// description. Matching is case-sensitive. An empty keyword matches everything.
func Matches(loc models.Location, keyword string) bool {
	if keyword == "" {
		return true
	}
	if strings.Contains(loc.Name, keyword) {
		return true
	}
	return loc.Desc != nil && strings.Contains(*loc.Desc, keyword)
}

// Filter returns the locations matching keyword, in input order
func Filter(locs []models.Location, keyword string) []models.Location {
	if keyword == "" {
		out := make([]models.Location, len(locs))
		copy(out, locs)
		return out
	}
	out := make([]models.Location, 0)
	for _, loc := range locs {
		if Matches(loc, keyword) {
			out = append(out, loc)
		}
	}
	return out
}

// Page is one window over a matched sequence
type Page struct {
	Items   []models.Location
	Number  int
	Size    int
	Total   int
	HasPrev bool
	HasNext bool
}

// Paginate returns page number (1-based) of the given size. Indices outside
// the matched range are skipped, so an out-of-range page is empty but still
// reports the total. HasPrev holds when the page before this one has items,
// which keeps the way back open from the first page past the end.
func Paginate(matched []models.Location, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(matched)
	page := Page{
		Items:  make([]models.Location, 0),
		Number: number,
		Size:   size,
		Total:  total,
	}
	// number*size would overflow; no slice reaches that far
	if number < 1 || number > math.MaxInt/size {
		return page
	}

	left, right := (number-1)*size, number*size
	if start, end := left, min(right, total); start < end {
		page.Items = append(page.Items, matched[start:end]...)
	}
	page.HasPrev = 0 < left && left-size < total
	page.HasNext = right < total
	return page
}

// Query describes a listing request. Page 0 means no pagination.
type Query struct {
	Keyword string
	Page    int
	Size    int
}

// Result is what a listing returns. Page is nil for unpaginated queries.
type Result struct {
	Items []models.Location
	Total int
	Page  *Page
}

// Run filters then, if requested, paginates
func Run(locs []models.Location, q Query) Result {
	matched := Filter(locs, q.Keyword)
	if q.Page == 0 {
		return Result{Items: matched, Total: len(matched)}
	}
	page := Paginate(matched, q.Page, q.Size)
	return Result{Items: page.Items, Total: page.Total, Page: &page}
}
