// Package models holds the waypoint record types shared by the registry,
// the search layer and the presentation code.
package models

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyName is returned when a location has no name
	ErrEmptyName = errors.New("location name must not be empty")
	// ErrNonFinite is returned when a coordinate is NaN or infinite
	ErrNonFinite = errors.New("coordinate must be a finite number")
)

// Point is a position in the 3D world
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Validate reports whether all three coordinates are finite
func (p Point) Validate() error {
	for _, v := range [...]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	return nil
}

// Location is a named waypoint. Desc is nil when the waypoint has no note,
// which is different from an empty note.
type Location struct {
	Name string  `json:"name" yaml:"name"`
	Desc *string `json:"desc,omitempty" yaml:"desc,omitempty"`
	Dim  int     `json:"dim" yaml:"dim"`
	Pos  Point   `json:"pos" yaml:"pos"`
}

// NewLocation builds a validated location. desc may be nil.
func NewLocation(name string, pos Point, dim int, desc *string) (Location, error) {
	loc := Location{
		Name: name,
		Desc: copyDesc(desc),
		Dim:  dim,
		Pos:  pos,
	}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Validate checks the structural invariants of a location
func (l Location) Validate() error {
	if l.Name == "" {
		return ErrEmptyName
	}
	if err := l.Pos.Validate(); err != nil {
		return fmt.Errorf("location %q: %w", l.Name, err)
	}
	return nil
}

// HasDesc reports whether a description is present
func (l Location) HasDesc() bool {
	return l.Desc != nil
}

// Description returns the description or an empty string when absent
func (l Location) Description() string {
	if l.Desc == nil {
		return ""
	}
	return *l.Desc
}

// Equal compares all fields, including whether desc is present
func (l Location) Equal(o Location) bool {
	if l.Name != o.Name || l.Dim != o.Dim || l.Pos != o.Pos {
		return false
	}
	if (l.Desc == nil) != (o.Desc == nil) {
		return false
	}
	return l.Desc == nil || *l.Desc == *o.Desc
}

// Clone returns a copy that shares no memory with l
func (l Location) Clone() Location {
	l.Desc = copyDesc(l.Desc)
	return l
}

// WithDesc returns a pointer to a copy of s, for building locations inline
func WithDesc(s string) *string {
	return &s
}

func copyDesc(desc *string) *string {
	if desc == nil {
		return nil
	}
	d := *desc
	return &d
}
