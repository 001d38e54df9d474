package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ibeckermayer/menuprobe/internal/config"
	"github.com/ibeckermayer/menuprobe/internal/types"
)

// ReportCache stores each batch of reports as a timestamped JSON file.
type ReportCache struct {
	dir string
}

// NewReportCache creates a cache rooted at dir
func NewReportCache(dir string) *ReportCache {
	return &ReportCache{dir: dir}
}

// DefaultReportCacheDir returns the cache directory for batch reports.
// On Linux this is ~/.cache/menuprobe/reports/
func DefaultReportCacheDir() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "reports"), nil
}

// generateFilename creates a timestamped filename with the given extension.
func generateFilename(t time.Time, ext string) string {
	return t.Format("2006-01-02T15-04-05.000") + ext
}

// Save serializes reports to a new timestamped file and returns its path.
func (c *ReportCache) Save(reports []*types.Report) (string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report cache dir: %w", err)
	}

	path := filepath.Join(c.dir, generateFilename(time.Now(), ".json"))

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal reports: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write reports: %w", err)
	}

	return path, nil
}

// Load reads the reports stored at path.
func (c *ReportCache) Load(path string) ([]*types.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}

	var reports []*types.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reports: %w", err)
	}

	return reports, nil
}

// Latest loads the most recent batch and the path it came from.
func (c *ReportCache) Latest() ([]*types.Report, string, error) {
	path, err := c.LatestFile()
	if err != nil {
		return nil, "", err
	}

	reports, err := c.Load(path)
	if err != nil {
		return nil, "", err
	}
	return reports, path, nil
}

// LatestFile returns the path to the most recent batch file.
func (c *ReportCache) LatestFile() (string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no cached reports in %s", c.dir)
		}
		return "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			files = append(files, entry.Name())
		}
	}

	if len(files) == 0 {
		return "", fmt.Errorf("no cached reports in %s", c.dir)
	}

	return filepath.Join(c.dir, files[len(files)-1]), nil
}
