package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adalene/glyph/internal/storage/snapshot"
	"github.com/Adalene/glyph/pkg/types"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	f := snapshot.New(filepath.Join(t.TempDir(), "absent.json"), true)

	icons, err := f.Load()
	require.NoError(t, err)
	assert.NotNil(t, icons)
	assert.Empty(t, icons)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"`), 0o644))

	_, err := snapshot.New(path, false).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestLoad_PreservesFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.json")
	body := `[
  {"id": "zebra", "name": "Zebra", "category": "animals", "tags": ["stripes"], "path": "M1 1"},
  {"id": "apple", "name": "Apple", "category": "food", "tags": [], "path": "M2 2", "generated": true, "generatedAt": 42}
]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	icons, err := snapshot.New(path, false).Load()
	require.NoError(t, err)
	require.Len(t, icons, 2)
	assert.Equal(t, "zebra", icons[0].ID)
	assert.Equal(t, "apple", icons[1].ID)
	assert.True(t, icons[1].Generated)
	assert.Equal(t, int64(42), icons[1].GeneratedAt)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "icons.json")
	f := snapshot.New(path, true)

	want := []types.Icon{
		{ID: "cup", Name: "Cup", Category: "food", Tags: []string{"drink"}, Path: "M1 1"},
		{ID: "bolt", Name: "Bolt", Category: "objects", Tags: []string{}, Path: "M2 2", Generated: true, GeneratedAt: 99},
	}
	require.NoError(t, f.Save(want))

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"id\": \"cup\"", "file should be indented two spaces")
}

func TestSave_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.json")
	f := snapshot.New(path, false)

	err := f.Save([]types.Icon{{ID: "x", Path: "M1 1"}})
	assert.ErrorIs(t, err, snapshot.ErrReadOnly)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "read-only snapshot must not create the file")
	assert.False(t, f.Writable())
	assert.Equal(t, path, f.Path())
}
