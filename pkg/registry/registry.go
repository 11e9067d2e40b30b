// Package registry implements the location registry: an ordered,
// name-indexed collection of waypoints that is written to a flat file after
// every mutation.
//
// Mutations build the next collection, persist it and only then swap it in,
// so a failed write never leaves memory ahead of disk. A single RWMutex
// serializes writers; readers get copies.
package registry

import (
	"fmt"
	"os"
	"sync"

	"github.com/1F47E/location-marker/pkg/models"
)

const defaultFileMode os.FileMode = 0o644

// Registry is safe for concurrent use
type Registry struct {
	mu        sync.RWMutex
	path      string
	codec     Codec
	mode      os.FileMode
	locations []models.Location
	index     map[string]int
}

// Option configures a Registry
type Option func(*Registry)

// WithCodec forces a codec instead of picking one from the file extension
func WithCodec(c Codec) Option {
	return func(r *Registry) {
		r.codec = c
	}
}

// WithFileMode sets the permission bits of the storage file
func WithFileMode(mode os.FileMode) Option {
	return func(r *Registry) {
		r.mode = mode
	}
}

// New creates an empty registry backed by path. Call Load to read existing data.
func New(path string, opts ...Option) *Registry {
	r := &Registry{
		path:      path,
		mode:      defaultFileMode,
		locations: []models.Location{},
		index:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open creates a registry and loads path into it
func Open(path string, opts ...Option) (*Registry, error) {
	r := New(path, opts...)
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the backing file
func (r *Registry) Path() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}

// Load reads the backing file. See LoadFromFile.
func (r *Registry) Load() error {
	return r.LoadFromFile(r.Path())
}

// Save writes the collection to the backing file
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeLocked(r.path, r.locations)
}

// Contains reports whether a location with exactly this name exists
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.index[name]
	return ok
}

// Get returns the location with this name, if any
func (r *Registry) Get(name string) (models.Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return models.Location{}, false
	}
	return r.locations[i].Clone(), true
}

// Add appends loc and persists the collection. Nothing changes in memory
// unless the write succeeded.
func (r *Registry) Add(loc models.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	loc = loc.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[loc.Name]; ok {
		return &DuplicateNameError{Name: loc.Name}
	}

	next := make([]models.Location, len(r.locations), len(r.locations)+1)
	copy(next, r.locations)
	next = append(next, loc)

	if err := r.writeLocked(r.path, next); err != nil {
		return err
	}

	r.locations = next
	r.index[loc.Name] = len(next) - 1
	return nil
}

// AddMany appends every location with a single write. Either all of them
// are stored or none is.
func (r *Registry) AddMany(locs []models.Location) error {
	batch := make([]models.Location, len(locs))
	for i, loc := range locs {
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("location %d: %w", i, err)
		}
		batch[i] = loc.Clone()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(batch))
	for _, loc := range batch {
		_, taken := r.index[loc.Name]
		_, repeated := seen[loc.Name]
		if taken || repeated {
			return &DuplicateNameError{Name: loc.Name}
		}
		seen[loc.Name] = struct{}{}
	}

	next := make([]models.Location, 0, len(r.locations)+len(batch))
	next = append(next, r.locations...)
	next = append(next, batch...)

	if err := r.writeLocked(r.path, next); err != nil {
		return err
	}

	r.locations = next
	r.reindexLocked()
	return nil
}

// Remove deletes the named location and persists the collection. It returns
// the removed record, or false when nothing matched.
func (r *Registry) Remove(name string) (models.Location, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[name]
	if !ok {
		return models.Location{}, false, nil
	}
	removed := r.locations[i]

	next := make([]models.Location, 0, len(r.locations)-1)
	next = append(next, r.locations[:i]...)
	next = append(next, r.locations[i+1:]...)

	if err := r.writeLocked(r.path, next); err != nil {
		return models.Location{}, false, err
	}

	r.locations = next
	r.reindexLocked()
	return removed.Clone(), true, nil
}

// List returns every location in insertion order
func (r *Registry) List() []models.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Location, len(r.locations))
	for i, loc := range r.locations {
		out[i] = loc.Clone()
	}
	return out
}

// Len returns the number of stored locations
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.locations)
}

func (r *Registry) reindexLocked() {
	r.index = make(map[string]int, len(r.locations))
	for i, loc := range r.locations {
		r.index[loc.Name] = i
	}
}
