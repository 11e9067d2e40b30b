package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/1F47E/location-marker/pkg/models"
)

// newTestRegistry returns a loaded, empty registry in a temp directory
func newTestRegistry(t *testing.T, file string) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), file)
	reg, err := Open(path)
	require.NoError(t, err)
	return reg
}

func loc(name string, x, y, z float64, dim int) models.Location {
	return models.Location{Name: name, Dim: dim, Pos: models.Point{X: x, Y: y, Z: z}}
}

func names(locs []models.Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.Name
	}
	return out
}

func TestOpenMissingFile(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")
	assert.Equal(t, 0, reg.Len())
	assert.NotNil(t, reg.List())
	assert.Empty(t, reg.List())

	_, err := os.Stat(reg.Path())
	assert.True(t, os.IsNotExist(err), "loading must not create the file")
}

func TestAddGetContains(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")

	require.NoError(t, reg.Add(loc("Home", 0, 64, 0, 0)))
	require.NoError(t, reg.Add(models.Location{Name: "Farm", Desc: models.WithDesc("wheat"), Dim: 0, Pos: models.Point{X: 100, Y: 63, Z: 20}}))

	assert.True(t, reg.Contains("Home"))
	assert.False(t, reg.Contains("home"), "names are case-sensitive")
	assert.False(t, reg.Contains("Hom"))

	got, ok := reg.Get("Farm")
	require.True(t, ok)
	assert.Equal(t, "wheat", got.Description())

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Home", "Farm"}, names(reg.List()))
}

func TestAddRejectsInvalid(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")

	err := reg.Add(loc("", 0, 0, 0, 0))
	assert.ErrorIs(t, err, models.ErrEmptyName)
	assert.Equal(t, 0, reg.Len())
}

func TestAddAcceptsUnknownDimension(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")
	require.NoError(t, reg.Add(loc("Aether", 1, 2, 3, 42)))

	got, ok := reg.Get("Aether")
	require.True(t, ok)
	assert.Equal(t, 42, got.Dim)
}

func TestAddDuplicateLeavesDiskUnchanged(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")
	require.NoError(t, reg.Add(loc("Home", 0, 64, 0, 0)))

	before, err := os.ReadFile(reg.Path())
	require.NoError(t, err)

	err = reg.Add(loc("Home", 1, 1, 1, -1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)

	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Home", dup.Name)

	after, err := os.ReadFile(reg.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, _ := reg.Get("Home")
	assert.Equal(t, models.Point{X: 0, Y: 64, Z: 0}, got.Pos)
}

func TestAddMany(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")
	require.NoError(t, reg.Add(loc("Home", 0, 64, 0, 0)))

	require.NoError(t, reg.AddMany([]models.Location{loc("Farm", 1, 2, 3, 0), loc("Portal", 4, 5, 6, -1)}))
	assert.Equal(t, []string{"Home", "Farm", "Portal"}, names(reg.List()))

	reloaded, err := Open(reg.Path())
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "Farm", "Portal"}, names(reloaded.List()))
}

func TestAddManyIsAllOrNothing(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")
	require.NoError(t, reg.Add(loc("Home", 0, 64, 0, 0)))
	before, err := os.ReadFile(reg.Path())
	require.NoError(t, err)

	testCases := []struct {
		name  string
		batch []models.Location
		want  error
	}{
		{"clashes with stored", []models.Location{loc("Farm", 0, 0, 0, 0), loc("Home", 0, 0, 0, 0)}, ErrDuplicateName},
		{"repeated in batch", []models.Location{loc("Farm", 0, 0, 0, 0), loc("Farm", 1, 1, 1, 0)}, ErrDuplicateName},
		{"invalid record", []models.Location{loc("Farm", 0, 0, 0, 0), loc("", 0, 0, 0, 0)}, models.ErrEmptyName},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := reg.AddMany(tc.batch)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, []string{"Home"}, names(reg.List()))

			after, err := os.ReadFile(reg.Path())
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestRemove(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")
	require.NoError(t, reg.Add(loc("A", 1, 1, 1, 0)))
	require.NoError(t, reg.Add(loc("B", 2, 2, 2, 0)))
	require.NoError(t, reg.Add(loc("C", 3, 3, 3, 0)))

	removed, ok, err := reg.Remove("B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "B", removed.Name)
	assert.Equal(t, []string{"A", "C"}, names(reg.List()))

	// index must follow the shifted positions
	got, ok := reg.Get("C")
	require.True(t, ok)
	assert.Equal(t, 3.0, got.Pos.X)

	_, ok, err = reg.Remove("B")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveAbsentDoesNotWrite(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")

	_, ok, err := reg.Remove("nothing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(reg.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestListReturnsCopy(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")
	require.NoError(t, reg.Add(models.Location{Name: "A", Desc: models.WithDesc("x")}))

	list := reg.List()
	list[0].Name = "changed"
	*list[0].Desc = "changed"

	got, ok := reg.Get("A")
	require.True(t, ok)
	assert.Equal(t, "x", got.Description())
}

func TestLoadMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		content string
	}{
		{"garbage json", "locations.json", "{not json"},
		{"object instead of array", "locations.json", `{"name":"A"}`},
		{"trailing data", "locations.json", `[] []`},
		{"empty name", "locations.json", `[{"name":"","dim":0,"pos":{"x":0,"y":0,"z":0}}]`},
		{"duplicate names", "locations.json", `[{"name":"A","dim":0,"pos":{"x":0,"y":0,"z":0}},{"name":"A","dim":1,"pos":{"x":0,"y":0,"z":0}}]`},
		{"string coordinate", "locations.json", `[{"name":"A","dim":0,"pos":{"x":"1","y":0,"z":0}}]`},
		{"garbage yaml", "locations.yaml", "- name: [unclosed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			reg, err := Open(path)
			assert.Nil(t, reg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedStorage)

			var malformed *MalformedStorageError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, path, malformed.Path)
		})
	}
}

func TestLoadFailureKeepsState(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")
	require.NoError(t, reg.Add(loc("Keep", 0, 0, 0, 0)))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))

	require.Error(t, reg.LoadFromFile(bad))
	assert.True(t, reg.Contains("Keep"))
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

	reg, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestLoadToleratesNullDesc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	content := `[
    {"name": "Old", "desc": null, "dim": 0, "pos": {"x": 1.5, "y": 2, "z": 3}},
    {"name": "New", "desc": "note", "dim": -1, "pos": {"x": 0, "y": 0, "z": 0}}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := Open(path)
	require.NoError(t, err)

	old, ok := reg.Get("Old")
	require.True(t, ok)
	assert.False(t, old.HasDesc())
	assert.Equal(t, 1.5, old.Pos.X)

	assert.Equal(t, []string{"Old", "New"}, names(reg.List()))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, file := range []string{"locations.json", "locations.yaml"} {
		t.Run(file, func(t *testing.T) {
			reg := newTestRegistry(t, file)
			want := []models.Location{
				loc("Home", 0, 64, 0, 0),
				{Name: "Portal", Desc: models.WithDesc("nether hub"), Dim: -1, Pos: models.Point{X: 10.25, Y: 70, Z: -5}},
				{Name: "Empty note", Desc: models.WithDesc(""), Dim: 1, Pos: models.Point{X: -1e6, Y: 0, Z: 1e-3}},
				loc("中文路標", 1, 2, 3, 7),
			}
			for _, l := range want {
				require.NoError(t, reg.Add(l))
			}

			copyPath := filepath.Join(t.TempDir(), file)
			require.NoError(t, reg.SaveToFile(copyPath))

			for _, path := range []string{reg.Path(), copyPath} {
				loaded, err := Open(path)
				require.NoError(t, err)
				got := loaded.List()
				require.Len(t, got, len(want))
				for i := range want {
					assert.True(t, want[i].Equal(got[i]), "record %d differs: %+v vs %+v", i, want[i], got[i])
				}
			}
		})
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	reg, err := Open(filepath.Join(dir, "locations.json"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, reg.Add(loc(fmt.Sprintf("wp_%d", i), float64(i), 0, 0, 0)))
	}
	_, _, err = reg.Remove("wp_2")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "locations.json", entries[0].Name())
}

func TestSaveCreatesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "location_marker", "locations.json")
	reg, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, reg.Add(loc("Home", 0, 64, 0, 0)))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

// breakDir replaces the directory holding the storage file with a regular
// file so every later write fails, even when running as root.
func breakDir(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("blocker"), 0o644))
}

func TestAddRollsBackOnPersistFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	reg, err := Open(filepath.Join(dir, "locations.json"))
	require.NoError(t, err)
	require.NoError(t, reg.Add(loc("Home", 0, 64, 0, 0)))

	breakDir(t, dir)

	err = reg.Add(loc("Lost", 1, 2, 3, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "save", perr.Op)

	assert.False(t, reg.Contains("Lost"))
	assert.Equal(t, []string{"Home"}, names(reg.List()))
}

func TestRemoveRollsBackOnPersistFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	reg, err := Open(filepath.Join(dir, "locations.json"))
	require.NoError(t, err)
	require.NoError(t, reg.Add(loc("A", 0, 0, 0, 0)))
	require.NoError(t, reg.Add(loc("B", 0, 0, 0, 0)))
	require.NoError(t, reg.Add(loc("C", 0, 0, 0, 0)))

	breakDir(t, dir)

	removed, ok, err := reg.Remove("B")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.False(t, ok)
	assert.Equal(t, "", removed.Name)

	assert.True(t, reg.Contains("B"))
	assert.Equal(t, []string{"A", "B", "C"}, names(reg.List()))
}

func TestSaveWithoutPath(t *testing.T) {
	reg := New("")
	err := reg.Add(loc("A", 0, 0, 0, 0))
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 0, reg.Len())
}

func TestWithCodecOverridesExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.db")
	reg := New(path, WithCodec(YAMLCodec{}), WithFileMode(0o600))
	require.NoError(t, reg.Add(loc("A", 1, 2, 3, 0)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: A")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := Open(path, WithCodec(YAMLCodec{}))
	require.NoError(t, err)
	assert.True(t, reopened.Contains("A"))
}

// countingCodec delegates to JSON and counts round trips
type countingCodec struct {
	json      JSONCodec
	marshal   int
	unmarshal int
}

func (c *countingCodec) Marshal(locs []models.Location) ([]byte, error) {
	c.marshal++
	return c.json.Marshal(locs)
}

func (c *countingCodec) Unmarshal(data []byte) ([]models.Location, error) {
	c.unmarshal++
	return c.json.Unmarshal(data)
}

func TestCustomCodec(t *testing.T) {
	codec := &countingCodec{}
	path := filepath.Join(t.TempDir(), "locations.yaml")

	reg, err := Open(path, WithCodec(codec))
	require.NoError(t, err)
	require.NoError(t, reg.Add(loc("A", 1, 2, 3, 0)))
	require.NoError(t, reg.Load())

	assert.Equal(t, 1, codec.marshal)
	assert.Equal(t, 1, codec.unmarshal, "a missing file is not decoded")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "A"`, "the codec wins over the .yaml extension")
}

func TestConcurrentAdds(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")

	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				assert.NoError(t, reg.Add(loc(fmt.Sprintf("w%d_%d", w, i), float64(w), float64(i), 0, 0)))
				_ = reg.List()
				_ = reg.Contains(fmt.Sprintf("w%d_0", w))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, reg.Len())

	reloaded, err := Open(reg.Path())
	require.NoError(t, err)
	assert.Equal(t, names(reg.List()), names(reloaded.List()))
}

func TestConcurrentDuplicateAdds(t *testing.T) {
	reg := newTestRegistry(t, "locations.json")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- reg.Add(loc("Same", 0, 0, 0, 0))
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrDuplicateName)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, reg.Len())
}

func TestHomeAndNetherPortal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	reg, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, reg.Add(loc("Home", 0, 64, 0, 0)))
	require.NoError(t, reg.Add(loc("Nether Portal", 10, 70, -5, -1)))
	assert.Equal(t, []string{"Home", "Nether Portal"}, names(reg.List()))

	removed, ok, err := reg.Remove("Home")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, loc("Home", 0, 64, 0, 0).Equal(removed))
	assert.Equal(t, []string{"Nether Portal"}, names(reg.List()))

	// simulated restart
	restarted, err := Open(path)
	require.NoError(t, err)
	got := restarted.List()
	require.Len(t, got, 1)
	assert.True(t, loc("Nether Portal", 10, 70, -5, -1).Equal(got[0]))
}

// TestContainsTracksNetEffect is a property-based test using rapid.
// Random add/remove sequences are checked against a plain map model.
func TestContainsTracksNetEffect(t *testing.T) {
	dir := t.TempDir()
	run := 0

	rapid.Check(t, func(r *rapid.T) {
		run++
		reg, err := Open(filepath.Join(dir, fmt.Sprintf("run_%d.json", run)))
		require.NoError(r, err)

		model := make(map[string]bool)
		order := []string{}
		nameGen := rapid.SampledFrom([]string{"a", "b", "c", "d", "Base1", "base1", "e f"})

		steps := rapid.IntRange(1, 30).Draw(r, "steps")
		for i := 0; i < steps; i++ {
			name := nameGen.Draw(r, "name")
			if rapid.Bool().Draw(r, "add") {
				err := reg.Add(loc(name, 0, 0, 0, 0))
				if model[name] {
					require.ErrorIs(r, err, ErrDuplicateName)
				} else {
					require.NoError(r, err)
					model[name] = true
					order = append(order, name)
				}
			} else {
				_, ok, err := reg.Remove(name)
				require.NoError(r, err)
				require.Equal(r, model[name], ok)
				if ok {
					delete(model, name)
					for j, n := range order {
						if n == name {
							order = append(order[:j], order[j+1:]...)
							break
						}
					}
				}
			}
		}

		for _, name := range []string{"a", "b", "c", "d", "Base1", "base1", "e f"} {
			require.Equal(r, model[name], reg.Contains(name), name)
		}
		require.Equal(r, order, names(reg.List()))

		reloaded, err := Open(reg.Path())
		require.NoError(r, err)
		require.Equal(r, names(reg.List()), names(reloaded.List()))
	})
}

func BenchmarkAdd(b *testing.B) {
	reg, err := Open(filepath.Join(b.TempDir(), "locations.json"))
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reg.Add(loc(fmt.Sprintf("wp_%d", i), float64(i), 64, 0, 0))
	}
}
