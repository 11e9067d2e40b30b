// Package marker implements the waypoint commands on top of the registry:
// add, add at the caller's position, delete, info, listing and proximity.
// It returns data only; rendering belongs to package present.
package marker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/1F47E/location-marker/pkg/config"
	"github.com/1F47E/location-marker/pkg/models"
	"github.com/1F47E/location-marker/pkg/position"
	"github.com/1F47E/location-marker/pkg/registry"
	"github.com/1F47E/location-marker/pkg/search"
	"github.com/1F47E/location-marker/pkg/spatial"
)

var (
	// ErrNotFound is returned by Delete and Info for unknown names
	ErrNotFound = registry.ErrNotFound
	// ErrDuplicateName is returned by Add when the name is taken
	ErrDuplicateName = registry.ErrDuplicateName
	// ErrPositionUnavailable is returned by AddHere when the caller's position cannot be resolved
	ErrPositionUnavailable = errors.New("position unavailable")
)

// Service runs waypoint commands against a registry
type Service struct {
	reg       *registry.Registry
	cfg       config.Config
	positions position.Provider
	logger    *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithPositions sets the provider used by AddHere
func WithPositions(p position.Provider) Option {
	return func(s *Service) {
		s.positions = p
	}
}

// WithLogger sets the logger. Services log nothing by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a service over reg
func NewService(reg *registry.Registry, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		reg:    reg,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add stores a new waypoint
func (s *Service) Add(ctx context.Context, name string, pos models.Point, dim int, desc *string) (models.Location, error) {
	if err := ctx.Err(); err != nil {
		return models.Location{}, err
	}
	if s.reg.Contains(name) {
		s.logger.DebugContext(ctx, "add rejected", "name", name, "reason", "duplicate")
		return models.Location{}, &registry.DuplicateNameError{Name: name}
	}

	loc, err := models.NewLocation(name, pos, dim, desc)
	if err != nil {
		return models.Location{}, fmt.Errorf("invalid location: %w", err)
	}

	if err := s.reg.Add(loc); err != nil {
		s.logger.ErrorContext(ctx, "add failed", "name", name, "error", err)
		return models.Location{}, err
	}

	s.logger.InfoContext(ctx, "waypoint added", "name", name, "dim", dim,
		"x", pos.X, "y", pos.Y, "z", pos.Z)
	return loc, nil
}

// AddHere stores a new waypoint at the current position of a session
func (s *Service) AddHere(ctx context.Context, sessionID, name string, desc *string) (models.Location, error) {
	if s.positions == nil {
		return models.Location{}, ErrPositionUnavailable
	}

	pos, dim, err := s.positions.Resolve(ctx, sessionID)
	if err != nil {
		if errors.Is(err, position.ErrNotAvailable) {
			s.logger.WarnContext(ctx, "position unavailable", "session", sessionID)
			return models.Location{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
		}
		return models.Location{}, err
	}

	return s.Add(ctx, name, pos, dim, desc)
}

// Delete removes a waypoint and returns it
func (s *Service) Delete(ctx context.Context, name string) (models.Location, error) {
	if err := ctx.Err(); err != nil {
		return models.Location{}, err
	}

	loc, ok, err := s.reg.Remove(name)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete failed", "name", name, "error", err)
		return models.Location{}, err
	}
	if !ok {
		return models.Location{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}

	s.logger.InfoContext(ctx, "waypoint deleted", "name", name)
	return loc, nil
}

// Info returns a single waypoint
func (s *Service) Info(name string) (models.Location, error) {
	loc, ok := s.reg.Get(name)
	if !ok {
		return models.Location{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return loc, nil
}

// List filters and paginates. A zero page size uses item_per_page.
func (s *Service) List(q search.Query) search.Result {
	if q.Size == 0 {
		q.Size = s.cfg.ItemPerPage
	}
	return search.Run(s.reg.List(), q)
}

// Page returns one page of the matches for keyword, even for page numbers
// below 1. A zero size uses item_per_page.
func (s *Service) Page(keyword string, number, size int) search.Result {
	if size == 0 {
		size = s.cfg.ItemPerPage
	}
	page := search.Paginate(search.Filter(s.reg.List(), keyword), number, size)
	return search.Result{Items: page.Items, Total: page.Total, Page: &page}
}

// Near returns up to k waypoints in zone dim closest to center
func (s *Service) Near(center models.Point, dim, k int) []spatial.Hit {
	return spatial.Build(s.reg.List()).Nearest(center, dim, k)
}

// Within returns the waypoints in zone dim no farther than radius from center
func (s *Service) Within(center models.Point, dim int, radius float64) []spatial.Hit {
	return spatial.Build(s.reg.List()).Within(center, dim, radius)
}

// Registry exposes the underlying store
func (s *Service) Registry() *registry.Registry {
	return s.reg
}
