// Package imgdiff compares screenshots against a baseline directory.
package imgdiff

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/orisano/pixelmatch"

	"github.com/ibeckermayer/menuprobe/internal/types"
)

// Comparer diffs screenshots against same-named files in Dir.
type Comparer struct {
	Dir       string
	Threshold float64
}

// New creates a comparer. An empty dir disables comparison.
func New(dir string, threshold float64) *Comparer {
	return &Comparer{Dir: dir, Threshold: threshold}
}

// Enabled reports whether a baseline directory is configured.
func (c *Comparer) Enabled() bool {
	return c != nil && c.Dir != ""
}

// BaselinePath returns where the baseline for screenshot lives.
func (c *Comparer) BaselinePath(screenshot string) string {
	return filepath.Join(c.Dir, filepath.Base(screenshot))
}

// Compare diffs screenshot against its baseline. It returns nil without error
// when comparison is disabled or no baseline exists yet. Images of different
// sizes are reported in Diff.Error rather than compared.
func (c *Comparer) Compare(screenshot string) (*types.Diff, error) {
	if !c.Enabled() || screenshot == "" {
		return nil, nil
	}

	basePath := c.BaselinePath(screenshot)
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		return nil, nil
	}

	base, err := decodePNG(basePath)
	if err != nil {
		return nil, err
	}
	current, err := decodePNG(screenshot)
	if err != nil {
		return nil, err
	}

	diff := &types.Diff{Baseline: basePath}
	bb, cb := base.Bounds(), current.Bounds()
	if bb.Dx() != cb.Dx() || bb.Dy() != cb.Dy() {
		diff.Error = fmt.Sprintf("size changed from %dx%d to %dx%d", bb.Dx(), bb.Dy(), cb.Dx(), cb.Dy())
		return diff, nil
	}

	var opts []pixelmatch.MatchOption
	if c.Threshold > 0 {
		opts = append(opts, pixelmatch.Threshold(c.Threshold))
	}
	n, err := pixelmatch.MatchPixel(base, current, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s: %w", screenshot, err)
	}

	diff.Pixels = n
	diff.Total = cb.Dx() * cb.Dy()
	return diff, nil
}

// Promote copies screenshot into the baseline directory, replacing any
// previous baseline, and returns the baseline path.
func (c *Comparer) Promote(screenshot string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("no baseline directory configured")
	}
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create baseline dir: %w", err)
	}

	src, err := os.Open(screenshot)
	if err != nil {
		return "", err
	}
	defer src.Close()

	basePath := c.BaselinePath(screenshot)
	dst, err := os.Create(basePath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to copy baseline: %w", err)
	}
	return basePath, dst.Close()
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
