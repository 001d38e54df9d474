package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/menuprobe/internal/types"
)

func TestRender(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	dir := t.TempDir()
	start := time.Now()
	reports := []*types.Report{
		{
			Scenario:   "final",
			URL:        "http://localhost:8002/index.html",
			StartedAt:  start,
			FinishedAt: start.Add(1500 * time.Millisecond),
			Lines:      []string{"Dynamic Heading: Salads & <Bowls>"},
			Screenshot: filepath.Join(dir, "final_check.png"),
			Diff:       &types.Diff{Pixels: 25, Total: 1000},
		},
		{
			Scenario: "sets",
			URL:      "http://localhost:8084/index.html#/sets",
			Lines:    []string{"Error: boom"},
			Error:    "boom",
		},
	}

	out, err := b.Render(reports, dir)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `src="final_check.png"`)
	assert.Contains(t, html, "Dynamic Heading: Salads &amp; &lt;Bowls&gt;")
	assert.Contains(t, html, "baseline: 25 pixels differ (2.50%)")
	assert.Contains(t, html, `<span class="fail">failed</span>`)
	assert.Contains(t, html, "2 scenarios · 1 failed")
	assert.NotContains(t, html, `src=""`)
}

func TestRenderEmpty(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	_, err = b.Render(nil, t.TempDir())
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "verification")
	path, err := b.Write([]*types.Report{{Scenario: "v3"}}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "v3")
}

func TestDescribeDiff(t *testing.T) {
	assert.Empty(t, describeDiff(nil))
	assert.Equal(t, "baseline: identical", describeDiff(&types.Diff{Total: 10}))
	assert.Equal(t, "baseline: size changed from 8x8 to 8x12",
		describeDiff(&types.Diff{Error: "size changed from 8x8 to 8x12"}))
}
