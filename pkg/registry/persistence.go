package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/1F47E/location-marker/pkg/models"
)

// SaveToFile writes the whole collection to filename. The previous file is
// replaced atomically, so a crash mid-write leaves the old content intact.
func (r *Registry) SaveToFile(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeLocked(filename, r.locations)
}

// LoadFromFile replaces the collection with the records stored in filename
// and makes filename the backing file for later mutations. A missing file
// yields an empty registry.
func (r *Registry) LoadFromFile(filename string) error {
	locs, err := readLocations(filename, r.codecFor(filename))
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.path = filename
	r.locations = locs
	r.reindexLocked()
	return nil
}

func (r *Registry) codecFor(filename string) Codec {
	if r.codec != nil {
		return r.codec
	}
	return CodecFor(filename)
}

func (r *Registry) writeLocked(filename string, locs []models.Location) error {
	if filename == "" {
		return &PersistenceError{Op: "save", Path: filename, Err: errors.New("no storage path configured")}
	}
	data, err := r.codecFor(filename).Marshal(locs)
	if err != nil {
		return &PersistenceError{Op: "encode", Path: filename, Err: err}
	}
	if err := writeFileAtomic(filename, data, r.mode); err != nil {
		return &PersistenceError{Op: "save", Path: filename, Err: err}
	}
	return nil
}

func readLocations(filename string, codec Codec) ([]models.Location, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Location{}, nil
		}
		return nil, &PersistenceError{Op: "read", Path: filename, Err: err}
	}

	locs, err := codec.Unmarshal(data)
	if err != nil {
		return nil, &MalformedStorageError{Path: filename, Err: err}
	}

	seen := make(map[string]struct{}, len(locs))
	for i, loc := range locs {
		if err := loc.Validate(); err != nil {
			return nil, &MalformedStorageError{Path: filename, Err: fmt.Errorf("record %d: %w", i, err)}
		}
		if _, ok := seen[loc.Name]; ok {
			return nil, &MalformedStorageError{Path: filename, Err: fmt.Errorf("record %d: %w", i, &DuplicateNameError{Name: loc.Name})}
		}
		seen[loc.Name] = struct{}{}
	}
	if locs == nil {
		locs = []models.Location{}
	}
	return locs, nil
}

// writeFileAtomic writes to a temp file in the destination directory, syncs
// it and renames it over the destination.
func writeFileAtomic(filename string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	temp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".tmp.*")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := temp.Sync(); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, filename); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	// Not supported everywhere; the rename already happened.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
