package types

import "time"

// Report is the outcome of one scenario run
type Report struct {
	Scenario       string    `json:"scenario"`
	URL            string    `json:"url"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Lines          []string  `json:"lines"`
	Screenshot     string    `json:"screenshot,omitempty"`
	ScreenshotSize int64     `json:"screenshot_size"`
	Error          string    `json:"error,omitempty"`
	Diff           *Diff     `json:"diff,omitempty"`
}

// Diff is the comparison of a screenshot against its baseline
type Diff struct {
	Baseline string `json:"baseline"`
	Pixels   int    `json:"pixels"`
	Total    int    `json:"total"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the run finished without error
func (r *Report) OK() bool {
	return r.Error == ""
}

// Duration is how long the run took, server startup and teardown included
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Ratio is the share of differing pixels, in [0, 1]
func (d *Diff) Ratio() float64 {
	if d == nil || d.Total == 0 {
		return 0
	}
	return float64(d.Pixels) / float64(d.Total)
}
