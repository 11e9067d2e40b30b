package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/1F47E/location-marker/pkg/config"
	"github.com/1F47E/location-marker/pkg/models"
	"github.com/1F47E/location-marker/pkg/present"
	"github.com/1F47E/location-marker/pkg/registry"
	"github.com/1F47E/location-marker/pkg/search"
	"github.com/1F47E/location-marker/pkg/spatial"
)

func main() {
	dir, err := os.MkdirTemp("", "locmark-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	// Create a registry backed by a file in a scratch directory
	reg, err := registry.Open(filepath.Join(dir, "locations.json"))
	if err != nil {
		log.Fatal(err)
	}

	// Sample waypoints across the three vanilla dimensions
	waypoints := []models.Location{
		{Name: "Spawn", Dim: 0, Pos: models.Point{X: 0, Y: 64, Z: 0}},
		{Name: "Home", Dim: 0, Desc: models.WithDesc("oak house by the lake"), Pos: models.Point{X: 120, Y: 70, Z: -45}},
		{Name: "Base1", Dim: 0, Pos: models.Point{X: -800, Y: 12, Z: 300}},
		{Name: "Base2", Dim: 0, Pos: models.Point{X: 1500, Y: 90, Z: 1500}},
		{Name: "Wheat Farm", Dim: 0, Desc: models.WithDesc("auto farm"), Pos: models.Point{X: 140, Y: 68, Z: -60}},
		{Name: "Village", Dim: 0, Pos: models.Point{X: 420, Y: 66, Z: 380}},
		{Name: "Nether Portal", Dim: -1, Desc: models.WithDesc("links to Home"), Pos: models.Point{X: 15, Y: 70, Z: -5}},
		{Name: "Fortress", Dim: -1, Pos: models.Point{X: -210, Y: 48, Z: 90}},
		{Name: "Bastion", Dim: -1, Pos: models.Point{X: 300, Y: 40, Z: -250}},
		{Name: "End Gateway", Dim: 1, Pos: models.Point{X: 96, Y: 75, Z: 0}},
		{Name: "End City", Dim: 1, Pos: models.Point{X: 1040, Y: 80, Z: -720}},
	}

	// Store them in one write
	if err := reg.AddMany(waypoints); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Stored %d waypoints\n\n", reg.Len())

	cfg := config.Defaults()
	cfg.ItemPerPage = 4
	printer := present.NewPrinter(os.Stdout, cfg, present.Plain(true))

	// Example 1: Keyword search
	fmt.Println("Example 1: Keyword search for \"Base\"")
	printer.Listing(search.Run(reg.List(), search.Query{Keyword: "Base"}), "Base")
	fmt.Println()

	// Example 2: Pagination
	fmt.Println("Example 2: Page 2 of the full list (4 per page)")
	printer.Listing(search.Run(reg.List(), search.Query{Page: 2, Size: cfg.ItemPerPage}), "")
	fmt.Println()

	// Example 3: Nearest waypoints to a player standing near Home
	idx := spatial.Build(reg.List())
	player := models.Point{X: 130, Y: 69, Z: -50}
	fmt.Printf("Example 3: 3 waypoints nearest to %s in the overworld\n", present.CoordText(player))
	printer.Hits(idx.Nearest(player, 0, 3))
	fmt.Println()

	// Example 4: Everything within 300 blocks in the nether
	fmt.Println("Example 4: Nether waypoints within 300 blocks of the portal")
	printer.Hits(idx.Within(models.Point{X: 15, Y: 70, Z: -5}, -1, 300))
	fmt.Println()

	// Example 5: Details with teleport and minimap shortcuts
	fmt.Println("Example 5: Details of the Nether Portal")
	loc, _ := reg.Get("Nether Portal")
	printer.Detail(loc)
	fmt.Println()

	// Example 6: Deleting persists immediately
	if _, ok, err := reg.Remove("Bastion"); err != nil || !ok {
		log.Fatalf("remove failed: %v", err)
	}
	reloaded, err := registry.Open(reg.Path())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Example 6: After deleting Bastion the file holds %d waypoints\n", reloaded.Len())
}
