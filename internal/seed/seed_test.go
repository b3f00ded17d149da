package seed_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Adalene/glyph/internal/seed"
	"github.com/Adalene/glyph/internal/storage/sqlite"
	"github.com/Adalene/glyph/pkg/types"
)

// batchStore records every UpsertBatch call and fails the ones listed in
// failOn (by call index).
type batchStore struct {
	batches [][]types.Icon
	failOn  map[int]bool
}

func (s *batchStore) List(context.Context) ([]types.Icon, error) { return nil, nil }
func (s *batchStore) Insert(context.Context, types.Icon) error { return nil }
func (s *batchStore) Ping(context.Context) error { return nil }
func (s *batchStore) Close() error { return nil }
func (s *batchStore) UpsertBatch(_ context.Context, icons []types.Icon) error {
	call := len(s.batches)
	s.batches = append(s.batches, append([]types.Icon(nil), icons...))
	if s.failOn[call] {
		return errors.New("request entity too large")
	}
	return nil
}

func makeIcons(n int) []types.Icon {
	icons := make([]types.Icon, n)
	for i := range icons {
		icons[i] = types.Icon{ID: fmt.Sprintf("icon-%d", i), Name: fmt.Sprintf("Icon %d", i), Path: "M0 0"}
	}
	return icons
}

func TestRun_Batches(t *testing.T) {
	store := &batchStore{}
	s := seed.New(store, 0, zaptest.NewLogger(t))

	report, err := s.Run(context.Background(), makeIcons(120))
	require.NoError(t, err)

	require.Len(t, store.batches, 3, "default batch size is 50")
	assert.Len(t, store.batches[0], 50)
	assert.Len(t, store.batches[1], 50)
	assert.Len(t, store.batches[2], 20)
	assert.Equal(t, "icon-50", store.batches[1][0].ID)

	assert.Equal(t, seed.Report{Total: 120, Uploaded: 120, Batches: 3}, report)
}

func TestRun_ContinuesAfterFailedBatch(t *testing.T) {
	store := &batchStore{failOn: map[int]bool{1: true}}
	s := seed.New(store, 10, zaptest.NewLogger(t))

	report, err := s.Run(context.Background(), makeIcons(25))
	require.NoError(t, err)

	assert.Len(t, store.batches, 3)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 15, report.Uploaded)
	assert.Equal(t, 10, report.Failed())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 10, report.Failures[0].Start)
	assert.Equal(t, 20, report.Failures[0].End)
	assert.EqualError(t, report.Failures[0], "batch 10-20: request entity too large")
}

func TestRun_SkipsInvalidAndNormalizes(t *testing.T) {
	store := &batchStore{}
	s := seed.New(store, 50, zaptest.NewLogger(t))

	icons := []types.Icon{
		{ID: "ok", Name: "Ok", Path: "M1 1"},
		{ID: "", Path: "M1 1"},
		{ID: "no-path"},
		{ID: "Bad Id", Path: "M1 1"},
		{ID: "kept", Name: "Kept", Category: "arrows", Tags: []string{"a"}, Path: "M2 2", Generated: true, GeneratedAt: 9},
	}
	report, err := s.Run(context.Background(), icons)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, 2, report.Uploaded)

	want := []types.Icon{
		{ID: "ok", Name: "Ok", Category: "objects", Tags: []string{}, Path: "M1 1"},
		{ID: "kept", Name: "Kept", Category: "arrows", Tags: []string{"a"}, Path: "M2 2", Generated: true, GeneratedAt: 9},
	}
	require.Len(t, store.batches, 1)
	if diff := cmp.Diff(want, store.batches[0]); diff != "" {
		t.Errorf("uploaded batch mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Empty(t *testing.T) {
	store := &batchStore{}
	report, err := seed.New(store, 50, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Batches)
	assert.Empty(t, store.batches)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &batchStore{}
	_, err := seed.New(store, 5, nil).Run(ctx, makeIcons(10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.batches)
}

func TestRun_SQLiteUpsert(t *testing.T) {
	store, err := sqlite.NewIconStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, types.Icon{ID: "icon-1", Name: "Old", Category: "objects", Tags: []string{}, Path: "M9 9"}))

	s := seed.New(store, 2, zaptest.NewLogger(t))
	report, err := s.Run(ctx, makeIcons(5))
	require.NoError(t, err)
	assert.Equal(t, 5, report.Uploaded)
	assert.Equal(t, 3, report.Batches)

	stored, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 5)
	for _, icon := range stored {
		if icon.ID == "icon-1" {
			assert.Equal(t, "Icon 1", icon.Name, "seeding overwrites existing ids")
			assert.Equal(t, "M0 0", icon.Path)
		}
	}
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "icons.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[
		{"id":"home","name":"Home","category":"objects","tags":["house"],"path":"M0 0"},
		{"id":"gen","name":"Gen","category":"objects","tags":[],"path":"M1 1","generated":true,"generatedAt":1700000000000}
	]`), 0o644))

	yamlPath := filepath.Join(dir, "icons.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
- id: home
  name: Home
  category: objects
  tags: [house]
  path: M0 0
- id: gen
  name: Gen
  category: objects
  tags: []
  path: M1 1
  generated: true
  generatedAt: 1700000000000
`), 0o644))

	want := []types.Icon{
		{ID: "home", Name: "Home", Category: "objects", Tags: []string{"house"}, Path: "M0 0"},
		{ID: "gen", Name: "Gen", Category: "objects", Tags: []string{}, Path: "M1 1", Generated: true, GeneratedAt: 1700000000000},
	}

	for _, path := range []string{jsonPath, yamlPath} {
		got, err := seed.LoadDataset(path)
		require.NoError(t, err, path)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", filepath.Base(path), diff)
		}
	}
}

func TestLoadDataset_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := seed.LoadDataset(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"id":"not-an-array"}`), 0o644))
	_, err = seed.LoadDataset(bad)
	assert.ErrorContains(t, err, "parse JSON dataset")

	badYAML := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(badYAML, []byte("id: [unterminated"), 0o644))
	_, err = seed.LoadDataset(badYAML)
	assert.ErrorContains(t, err, "parse YAML dataset")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	icons, err := seed.LoadDataset(empty)
	require.NoError(t, err)
	assert.Empty(t, icons)
}
