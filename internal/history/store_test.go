package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lms-sync/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.HistoryConfig{Dir: filepath.Join(t.TempDir(), "history"), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReport(start time.Time) types.RunReport {
	var rep types.RunReport
	rep.Started = start
	rep.Add(types.ItemResult{Status: types.StatusDownloaded, Course: "Biology 101", Kind: "file",
		Path: "bio/syllabus.pdf", Rendition: "bio/PDF_Versions/syllabus.pdf", At: start.Add(time.Second)})
	rep.Add(types.ItemResult{Status: types.StatusSkipped, Course: "Biology 101", Kind: "page",
		Path: "bio/Week 1.html", Reason: "up to date", At: start.Add(2 * time.Second)})
	rep.Add(types.ItemResult{Status: types.StatusFailed, Course: "Chemistry", Kind: "file",
		Path: "chem/lab.docx", Reason: "GET returned 500", At: start.Add(3 * time.Second)})
	rep.Finished = start.Add(time.Minute)
	return rep
}

// --- tests ---

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "history")
	store, err := NewStore(types.HistoryConfig{Dir: dir})
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(filepath.Join(dir, dbFile))
	assert.NoError(t, err)
	assert.Equal(t, defaultMaxResults, store.maxResults)
}

func TestSaveRun_RoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	id, err := store.SaveRun(ctx, sampleReport(start))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	runs, err := store.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Downloaded)
	assert.Equal(t, 1, runs[0].Skipped)
	assert.Equal(t, 1, runs[0].Failed)
	assert.True(t, runs[0].Started.Equal(start))
	assert.True(t, runs[0].Finished.Equal(start.Add(time.Minute)))

	items, err := store.Items(ctx, QueryOptions{RunID: id})
	require.NoError(t, err)
	require.Len(t, items, 3)
	// newest first
	assert.Equal(t, "chem/lab.docx", items[0].Path)
	assert.Equal(t, "bio/PDF_Versions/syllabus.pdf", items[2].Rendition)
}

func TestRuns_NewestFirstAndLimit(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.SaveRun(ctx, sampleReport(base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	runs, err := store.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(3), runs[0].ID)
	assert.Equal(t, int64(2), runs[1].ID)

	latest, err := store.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest)
}

func TestLatestRunID_Empty(t *testing.T) {
	store := testStore(t)
	id, err := store.LatestRunID(context.Background())
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestItems_Filters(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	_, err := store.SaveRun(ctx, sampleReport(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	tests := []struct {
		name  string
		opts  QueryOptions
		paths []string
	}{
		{"status", QueryOptions{Status: types.StatusFailed}, []string{"chem/lab.docx"}},
		{"course case-insensitive", QueryOptions{Course: "biology"}, []string{"bio/Week 1.html", "bio/syllabus.pdf"}},
		{"path substring", QueryOptions{Path: "syllabus"}, []string{"bio/syllabus.pdf"}},
		{"max results", QueryOptions{MaxResults: 1}, []string{"chem/lab.docx"}},
		{"unknown run", QueryOptions{RunID: 99}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := store.Items(ctx, tt.opts)
			require.NoError(t, err)
			var got []string
			for _, it := range items {
				got = append(got, it.Path)
			}
			assert.Equal(t, tt.paths, got)
		})
	}
}

func TestPrune(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.SaveRun(ctx, sampleReport(base))
		require.NoError(t, err)
	}

	n, err := store.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	runs, err := store.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(3), runs[0].ID)

	items, err := store.Items(ctx, QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, items, 3, "items of pruned runs cascade away")
}

func TestExportYAML(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	id, err := store.SaveRun(ctx, sampleReport(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	path, err := store.ExportYAML(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.dir, "run-1.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &entry))
	assert.Equal(t, id, entry.Run.ID)
	require.Len(t, entry.Items, 3)
	assert.Equal(t, "bio/syllabus.pdf", entry.Items[0].Path, "exports keep run order")
}

func TestExportJSON(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	id, err := store.SaveRun(ctx, sampleReport(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	path, err := store.ExportJSON(ctx, id)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry ExportEntry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, 1, entry.Run.Failed)
	assert.Len(t, entry.Items, 3)
}

func TestExport_UnknownRun(t *testing.T) {
	store := testStore(t)
	_, err := store.ExportJSON(context.Background(), 42)
	assert.Error(t, err)
}
