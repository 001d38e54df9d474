package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/ibeckermayer/menuprobe/internal/types"
)

// FileName is the gallery written next to the screenshots
const FileName = "report.html"

// Builder renders a batch of reports as an HTML gallery
type Builder struct {
	template *template.Template
}

// New creates a new report builder
func New() (*Builder, error) {
	tmpl, err := template.New("report").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Builder{template: tmpl}, nil
}

// GalleryData is the template data structure
type GalleryData struct {
	Title string
	Date  string
	Runs  []RunData
	Stats StatsData
}

// RunData represents one scenario in the gallery
type RunData struct {
	Scenario   string
	URL        string
	OK         bool
	Error      string
	Lines      []string
	Screenshot string
	Duration   string
	Diff       string
}

// StatsData contains batch statistics
type StatsData struct {
	Total  int
	Failed int
}

// Render builds the gallery HTML. Screenshot links are made relative to dir
// so the page works when opened from disk.
func (b *Builder) Render(reports []*types.Report, dir string) ([]byte, error) {
	if len(reports) == 0 {
		return nil, fmt.Errorf("no reports to render")
	}

	data := GalleryData{
		Title: "Menu probe results",
		Date:  time.Now().Format("Monday, January 2 15:04"),
		Runs:  make([]RunData, len(reports)),
		Stats: StatsData{Total: len(reports)},
	}

	for i, r := range reports {
		if !r.OK() {
			data.Stats.Failed++
		}
		data.Runs[i] = RunData{
			Scenario:   r.Scenario,
			URL:        r.URL,
			OK:         r.OK(),
			Error:      r.Error,
			Lines:      r.Lines,
			Screenshot: relative(dir, r.Screenshot),
			Duration:   r.Duration().Round(time.Millisecond).String(),
			Diff:       describeDiff(r.Diff),
		}
	}

	var buf bytes.Buffer
	if err := b.template.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders the gallery into dir and returns its path
func (b *Builder) Write(reports []*types.Report, dir string) (string, error) {
	html, err := b.Render(reports, dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, html, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func relative(dir, path string) string {
	if path == "" {
		return ""
	}
	if rel, err := filepath.Rel(dir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func describeDiff(d *types.Diff) string {
	switch {
	case d == nil:
		return ""
	case d.Error != "":
		return "baseline: " + d.Error
	case d.Pixels == 0:
		return "baseline: identical"
	}
	return fmt.Sprintf("baseline: %d pixels differ (%.2f%%)", d.Pixels, d.Ratio()*100)
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; background: #121212; color: #eee; }
        h1 { color: #FFC72C; margin-bottom: 5px; }
        .date { color: #999; margin-bottom: 20px; }
        .run { background: #1E1E1E; border-radius: 8px; padding: 16px; margin-bottom: 20px; }
        .name { font-weight: bold; font-size: 18px; }
        .ok { color: #4caf50; }
        .fail { color: #DA291C; }
        .meta { color: #999; font-size: 13px; margin: 4px 0 10px; }
        pre { background: #2C2C2C; padding: 10px; border-radius: 6px; white-space: pre-wrap; }
        img { max-width: 100%; border: 1px solid #2C2C2C; border-radius: 6px; }
        .footer { margin-top: 20px; color: #777; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <div class="date">{{.Date}}</div>

    {{range .Runs}}
    <div class="run">
        <div class="name">{{.Scenario}} {{if .OK}}<span class="ok">ok</span>{{else}}<span class="fail">failed</span>{{end}}</div>
        <div class="meta">{{.URL}} · {{.Duration}}{{if .Diff}} · {{.Diff}}{{end}}</div>
        {{if .Lines}}<pre>{{range .Lines}}{{.}}
{{end}}</pre>{{end}}
        {{if .Screenshot}}<a href="{{.Screenshot}}"><img src="{{.Screenshot}}" alt="{{.Scenario}} screenshot"></a>{{end}}
    </div>
    {{end}}

    <div class="footer">
        {{.Stats.Total}} scenarios · {{.Stats.Failed}} failed · Generated by menuprobe
    </div>
</body>
</html>`
