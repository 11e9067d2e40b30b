// Package position resolves "where is this player right now" for commands
// that add a waypoint at the caller's own location.
package position

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/1F47E/location-marker/pkg/models"
)

// ErrNotAvailable is returned when a session has no known position
var ErrNotAvailable = errors.New("position not available")

// Provider resolves the live position and zone of a session
type Provider interface {
	Resolve(ctx context.Context, sessionID string) (models.Point, int, error)
}

// Fix is a known position in a zone
type Fix struct {
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	Z   float64 `yaml:"z"`
	Dim int     `yaml:"dim"`
}

// Point returns the coordinate part of the fix
func (f Fix) Point() models.Point {
	return models.Point{X: f.X, Y: f.Y, Z: f.Z}
}

// Static is a Provider backed by a fixed table of sessions
type Static struct {
	mu       sync.RWMutex
	sessions map[string]Fix
}

// NewStatic creates an empty table
func NewStatic() *Static {
	return &Static{sessions: make(map[string]Fix)}
}

// Set records the position of a session
func (s *Static) Set(sessionID string, fix Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = fix
}

// Resolve implements Provider
func (s *Static) Resolve(ctx context.Context, sessionID string) (models.Point, int, error) {
	if err := ctx.Err(); err != nil {
		return models.Point{}, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	fix, ok := s.sessions[sessionID]
	if !ok {
		return models.Point{}, 0, fmt.Errorf("session %q: %w", sessionID, ErrNotAvailable)
	}
	return fix.Point(), fix.Dim, nil
}

type staticFile struct {
	Sessions map[string]Fix `yaml:"sessions"`
}

// LoadStatic reads a YAML file of the form
//
//	sessions:
//	  steve: {x: 10, y: 64, z: -3, dim: 0}
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse positions %s: %w", path, err)
	}

	s := NewStatic()
	for id, fix := range f.Sessions {
		if err := fix.Point().Validate(); err != nil {
			return nil, fmt.Errorf("session %q: %w", id, err)
		}
		s.Set(id, fix)
	}
	return s, nil
}
