package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/menuprobe/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func report(name string, started time.Time, errMsg string) *types.Report {
	return &types.Report{
		Scenario:       name,
		URL:            "http://localhost:8083/index.html",
		StartedAt:      started,
		FinishedAt:     started.Add(4 * time.Second),
		Lines:          []string{"Found 3 sidebar items", "Found 3 cards in category 1"},
		Screenshot:     "/home/jules/verification/debug_category_click.png",
		ScreenshotSize: 48213,
		Error:          errMsg,
	}
}

func TestSaveAndListRuns(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	first := report("click", base, "")
	first.Diff = &types.Diff{Pixels: 12, Total: 921600}
	id, err := s.SaveRun(first)
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = s.SaveRun(report("sets", base.Add(time.Minute), ""))
	require.NoError(t, err)
	_, err = s.SaveRun(report("click", base.Add(2*time.Minute), "Count exploded"))
	require.NoError(t, err)

	runs, err := s.RecentRuns("", 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "Count exploded", runs[0].Error)
	assert.Equal(t, "sets", runs[1].Scenario)

	clicks, err := s.RecentRuns("click", 10)
	require.NoError(t, err)
	require.Len(t, clicks, 2)

	oldest := clicks[1]
	assert.Equal(t, id, oldest.ID)
	assert.True(t, oldest.StartedAt.Equal(base), oldest.StartedAt)
	assert.Equal(t, 4*time.Second, oldest.Duration())
	assert.Equal(t, first.Lines, oldest.Lines)
	assert.Equal(t, first.Screenshot, oldest.Screenshot)
	assert.Equal(t, int64(48213), oldest.ScreenshotSize)
	require.NotNil(t, oldest.Diff)
	assert.Equal(t, 12, oldest.Diff.Pixels)
	assert.Nil(t, clicks[0].Diff)

	limited, err := s.RecentRuns("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecentRunsSkipsCorruptLines(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	_, err := s.SaveRun(report("final", base, ""))
	require.NoError(t, err)
	bad, err := s.SaveRun(report("final", base.Add(time.Minute), ""))
	require.NoError(t, err)

	_, err = s.db.Exec(`UPDATE runs SET lines = ? WHERE id = ?`, `["Dynamic Heading: Sal`, bad)
	require.NoError(t, err)

	runs, err := s.RecentRuns("final", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.NotEqual(t, bad, runs[0].ID)
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.SaveRun(report("v3", base.Add(time.Duration(i)*24*time.Hour), ""))
		require.NoError(t, err)
	}

	n, err := s.Prune(base.Add(36 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	runs, err := s.RecentRuns("v3", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestReportCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	c := NewReportCache(dir)

	_, _, err := c.Latest()
	assert.Error(t, err)

	batch := []*types.Report{report("click", time.Now().UTC(), ""), report("sets", time.Now().UTC(), "boom")}
	path, err := c.Save(batch)
	require.NoError(t, err)
	assert.FileExists(t, path)

	// A newer file sorts last.
	newer := filepath.Join(dir, "9999-01-01T00-00-00.000.json")
	require.NoError(t, os.WriteFile(newer, []byte(`[{"scenario":"final","lines":["Dynamic Heading: Salads"]}]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	latest, latestPath, err := c.Latest()
	require.NoError(t, err)
	assert.Equal(t, newer, latestPath)
	require.Len(t, latest, 1)
	assert.Equal(t, "final", latest[0].Scenario)

	loaded, err := c.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "boom", loaded[1].Error)
	assert.Equal(t, batch[0].Lines, loaded[0].Lines)
}
