package search

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/1F47E/location-marker/pkg/models"
)

func generateLocations(n int) []models.Location {
	locs := make([]models.Location, n)
	for i := 0; i < n; i++ {
		locs[i] = models.Location{
			Name: fmt.Sprintf("wp_%02d", i),
			Pos:  models.Point{X: float64(i), Y: 64, Z: float64(-i)},
		}
	}
	return locs
}

func names(locs []models.Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.Name
	}
	return out
}

func TestMatches(t *testing.T) {
	base := models.Location{Name: "Base1"}
	noted := models.Location{Name: "Farm", Desc: models.WithDesc("wheat and Carrots")}

	testCases := []struct {
		name    string
		loc     models.Location
		keyword string
		want    bool
	}{
		{"substring of name", base, "ase", true},
		{"case sensitive name", base, "ASE", false},
		{"full name", base, "Base1", true},
		{"empty keyword", base, "", true},
		{"no desc never matches desc-only keyword", base, "wheat", false},
		{"substring of desc", noted, "Carrot", true},
		{"case sensitive desc", noted, "carrot", false},
		{"name of noted", noted, "arm", true},
		{"no match", noted, "zzz", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.loc, tc.keyword))
		})
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	locs := []models.Location{
		{Name: "Zeta mine"},
		{Name: "Alpha"},
		{Name: "Beta", Desc: models.WithDesc("old mine")},
		{Name: "mine"},
	}

	got := Filter(locs, "mine")
	assert.Equal(t, []string{"Zeta mine", "Beta", "mine"}, names(got))

	assert.Equal(t, names(locs), names(Filter(locs, "")))
	assert.Empty(t, Filter(locs, "Mine"))
	assert.NotNil(t, Filter(nil, "x"))
}

func TestPaginate(t *testing.T) {
	locs := generateLocations(25)

	testCases := []struct {
		name     string
		page     int
		wantFrom int
		wantTo   int
		hasPrev  bool
		hasNext  bool
	}{
		{"first page", 1, 0, 10, false, true},
		{"middle page", 2, 10, 20, true, true},
		{"last partial page", 3, 20, 25, true, false},
		{"past the end keeps prev", 4, 0, 0, true, false},
		{"far past the end", 10, 0, 0, false, false},
		{"largest page that fits", math.MaxInt / 10, 0, 0, false, false},
		{"page beyond int range", math.MaxInt/10 + 1, 0, 0, false, false},
		{"max int page", math.MaxInt, 0, 0, false, false},
		{"page zero", 0, 0, 0, false, false},
		{"negative page", -1, 0, 0, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate(locs, tc.page, 10)
			assert.Equal(t, 25, p.Total)
			assert.Equal(t, names(locs[tc.wantFrom:tc.wantTo]), names(p.Items))
			assert.Equal(t, tc.hasPrev, p.HasPrev, "has prev")
			assert.Equal(t, tc.hasNext, p.HasNext, "has next")
			assert.Equal(t, tc.page, p.Number)
		})
	}
}

func TestPaginateExactMultiple(t *testing.T) {
	locs := generateLocations(20)

	p := Paginate(locs, 2, 10)
	assert.Len(t, p.Items, 10)
	assert.True(t, p.HasPrev)
	assert.False(t, p.HasNext, "right == total means no next page")
}

func TestPaginateDefaultSize(t *testing.T) {
	p := Paginate(generateLocations(15), 1, 0)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Len(t, p.Items, 10)
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate(nil, 1, 10)
	assert.Equal(t, 0, p.Total)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasPrev)
	assert.False(t, p.HasNext)
}

func TestRun(t *testing.T) {
	locs := generateLocations(25)
	locs[3].Desc = models.WithDesc("special")
	locs[17].Desc = models.WithDesc("special too")

	all := Run(locs, Query{})
	assert.Nil(t, all.Page)
	assert.Equal(t, 25, all.Total)
	assert.Len(t, all.Items, 25)

	found := Run(locs, Query{Keyword: "special"})
	assert.Equal(t, 2, found.Total)
	assert.Equal(t, []string{"wp_03", "wp_17"}, names(found.Items))

	paged := Run(locs, Query{Keyword: "wp_1", Page: 1, Size: 4})
	require.NotNil(t, paged.Page)
	assert.Equal(t, 10, paged.Total)
	assert.Equal(t, []string{"wp_10", "wp_11", "wp_12", "wp_13"}, names(paged.Items))
	assert.True(t, paged.Page.HasNext)
	assert.False(t, paged.Page.HasPrev)
}

// TestPaginateCoversAllItems is a property-based test using rapid.
// Walking pages 1..n concatenates back to the matched sequence.
func TestPaginateCoversAllItems(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		total := rapid.IntRange(0, 60).Draw(r, "total")
		size := rapid.IntRange(1, 15).Draw(r, "size")
		locs := generateLocations(total)

		var walked []string
		for page := 1; ; page++ {
			p := Paginate(locs, page, size)
			if p.Total != total {
				r.Fatalf("total changed: %d != %d", p.Total, total)
			}
			if len(p.Items) > size {
				r.Fatalf("page %d has %d items, size %d", page, len(p.Items), size)
			}
			if page > 1 && len(p.Items) > 0 && !p.HasPrev {
				r.Fatalf("page %d has items but no prev", page)
			}
			walked = append(walked, names(p.Items)...)
			if !p.HasNext {
				break
			}
		}
		if total == 0 {
			return
		}
		require.Equal(r, names(locs), walked)
	})
}

// TestPaginatePrevFollowsPreviousPage checks that the prev arrow is on
// exactly when the page before has something to show, past the end included.
func TestPaginatePrevFollowsPreviousPage(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		total := rapid.IntRange(0, 60).Draw(r, "total")
		size := rapid.IntRange(1, 15).Draw(r, "size")
		page := rapid.IntRange(-2, 12).Draw(r, "page")
		locs := generateLocations(total)

		p := Paginate(locs, page, size)
		prevHasItems := page > 1 && len(Paginate(locs, page-1, size).Items) > 0
		if p.HasPrev != prevHasItems {
			r.Fatalf("page %d: has prev %v, previous page has items %v", page, p.HasPrev, prevHasItems)
		}
		nextHasItems := page >= 1 && len(Paginate(locs, page+1, size).Items) > 0
		if p.HasNext != nextHasItems {
			r.Fatalf("page %d: has next %v, next page has items %v", page, p.HasNext, nextHasItems)
		}
	})
}

func BenchmarkRun(b *testing.B) {
	locs := generateLocations(10000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Run(locs, Query{Keyword: "wp_9", Page: 3, Size: 10})
	}
}
