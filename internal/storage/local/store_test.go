package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/ecfr"
	"github.com/vitran/ecfr-analyzer/internal/storage"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T) (*Store, string, *fixedClock) {
	t.Helper()
	dir := t.TempDir()
	clock := &fixedClock{now: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)}
	st, err := New(Config{DataDir: dir}, clock, zap.NewNop())
	require.NoError(t, err)
	return st, dir, clock
}

func TestNew_RequiresDataDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, &fixedClock{}, zap.NewNop())
	require.Error(t, err)
}

func TestNew_CreatesNestedDataDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "processed")
	_, err := New(Config{DataDir: dir}, &fixedClock{}, zap.NewNop())
	require.NoError(t, err)
	require.DirExists(t, dir)
}

func TestSaveAndLoadTitles_RoundTrip(t *testing.T) {
	t.Parallel()

	st, dir, clock := newTestStore(t)
	ctx := context.Background()
	titles := []ecfr.Title{
		{Number: 1, Name: "General Provisions", Agency: "General Provisions", Content: "text", WordCount: 1},
		{Number: 35, Name: "Reserved", Reserved: true},
	}

	require.NoError(t, st.SaveTitles(ctx, titles))

	loaded, err := st.LoadTitles(ctx)
	require.NoError(t, err)
	require.Equal(t, titles, loaded)

	// Metadata reflects the save.
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	require.NoError(t, err)
	var meta storage.Metadata
	require.NoError(t, json.Unmarshal(data, &meta))
	require.Equal(t, 2, meta.TotalTitles)
	require.Equal(t, storage.SnapshotVersion, meta.Version)
	require.True(t, meta.LastUpdate.Equal(clock.now))
}

func TestSaveTitles_ReplacesPreviousSnapshot(t *testing.T) {
	t.Parallel()

	st, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveTitles(ctx, []ecfr.Title{{Number: 1}, {Number: 2}, {Number: 3}}))
	require.NoError(t, st.SaveTitles(ctx, []ecfr.Title{{Number: 9}}))

	loaded, err := st.LoadTitles(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, 9, loaded[0].Number)
}

func TestSaveTitles_LeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	st, dir, _ := newTestStore(t)
	require.NoError(t, st.SaveTitles(context.Background(), []ecfr.Title{{Number: 1}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestLoadTitles_MissingSnapshotIsEmpty(t *testing.T) {
	t.Parallel()

	st, _, _ := newTestStore(t)
	titles, err := st.LoadTitles(context.Background())
	require.NoError(t, err)
	require.Empty(t, titles)
}

func TestLoadTitles_CorruptSnapshotErrors(t *testing.T) {
	t.Parallel()

	st, dir, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ecfr-titles.json"), []byte("{not json"), 0o600))

	_, err := st.LoadTitles(context.Background())
	require.Error(t, err)
}

func TestHasExistingData(t *testing.T) {
	t.Parallel()

	st, _, _ := newTestStore(t)
	ctx := context.Background()

	has, err := st.HasExistingData(ctx)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, st.SaveTitles(ctx, []ecfr.Title{{Number: 1}}))
	has, err = st.HasExistingData(ctx)
	require.NoError(t, err)
	require.True(t, has)

	// An empty snapshot counts as no data.
	require.NoError(t, st.SaveTitles(ctx, []ecfr.Title{}))
	has, err = st.HasExistingData(ctx)
	require.NoError(t, err)
	require.False(t, has)
}

func TestLastUpdateTime(t *testing.T) {
	t.Parallel()

	st, _, clock := newTestStore(t)
	ctx := context.Background()

	_, ok, err := st.LastUpdateTime(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.SaveTitles(ctx, []ecfr.Title{{Number: 1}}))
	ts, ok, err := st.LastUpdateTime(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, ts.Equal(clock.now))
}

func TestSaveArtifact_WritesNamedJSON(t *testing.T) {
	t.Parallel()

	st, dir, _ := newTestStore(t)
	payload := map[string]int64{"Energy": 1200}
	require.NoError(t, st.SaveArtifact(context.Background(), "word-counts", payload))

	data, err := os.ReadFile(filepath.Join(dir, "word-counts.json"))
	require.NoError(t, err)
	var got map[string]int64
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, payload, got)
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	st, _, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, st.SaveTitles(ctx, nil))
	_, err := st.LoadTitles(ctx)
	require.Error(t, err)
}
