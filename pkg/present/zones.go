// Package present turns locations into text: zone names, coordinates,
// teleport and minimap commands, and styled terminal output.
package present

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/1F47E/location-marker/pkg/models"
)

// Zone describes one of the recognized dimensions
type Zone struct {
	ID    int
	Key   string
	Name  string
	Color lipgloss.Color
}

var zones = map[int]Zone{
	0:  {ID: 0, Key: "minecraft:overworld", Name: "overworld", Color: lipgloss.Color("2")},
	-1: {ID: -1, Key: "minecraft:the_nether", Name: "the_nether", Color: lipgloss.Color("1")},
	1:  {ID: 1, Key: "minecraft:the_end", Name: "the_end", Color: lipgloss.Color("5")},
}

// unknownZoneColor is used for dimensions outside the table
const unknownZoneColor = lipgloss.Color("7")

// LookupZone returns the zone for a recognized dimension id
func LookupZone(dim int) (Zone, bool) {
	z, ok := zones[dim]
	return z, ok
}

// DimKey returns the namespaced key of a dimension, or its id for unknown ones
func DimKey(dim int) string {
	if z, ok := zones[dim]; ok {
		return z.Key
	}
	return strconv.Itoa(dim)
}

// ZoneName returns the short display name of a dimension
func ZoneName(dim int) string {
	if z, ok := zones[dim]; ok {
		return z.Name
	}
	return strconv.Itoa(dim)
}

func zoneColor(dim int) lipgloss.Color {
	if z, ok := zones[dim]; ok {
		return z.Color
	}
	return unknownZoneColor
}

// CoordText renders a position with each axis truncated toward zero
func CoordText(p models.Point) string {
	return fmt.Sprintf("[%d, %d, %d]", int(p.X), int(p.Y), int(p.Z))
}

// TeleportCommand is the vanilla command that moves a player to loc
func TeleportCommand(loc models.Location) string {
	return fmt.Sprintf("/execute in %s run tp %s %s %s",
		DimKey(loc.Dim), formatFloat(loc.Pos.X), formatFloat(loc.Pos.Y), formatFloat(loc.Pos.Z))
}

// VoxelWaypoint is the VoxelMap command that highlights loc
func VoxelWaypoint(loc models.Location) string {
	return fmt.Sprintf("/newWaypoint x:%d, y:%d, z:%d, dim:%d",
		int(loc.Pos.X), int(loc.Pos.Y), int(loc.Pos.Z), loc.Dim)
}

// XaeroWaypoint is the Xaero's Minimap chat link that adds loc as a waypoint
func XaeroWaypoint(loc models.Location) string {
	initial, _ := utf8.DecodeRuneInString(loc.Name)
	return fmt.Sprintf("xaero_waypoint_add:%s's Location:%c:%d:%d:%d:6:false:0:Internal_%s_waypoints",
		loc.Name, initial, int(loc.Pos.X), int(loc.Pos.Y), int(loc.Pos.Z),
		strings.TrimPrefix(DimKey(loc.Dim), "minecraft:"))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
