package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ibeckermayer/menuprobe/internal/fileserver"
	"github.com/ibeckermayer/menuprobe/internal/probe"
	"github.com/ibeckermayer/menuprobe/internal/types"
)

// AnyPort makes the runner bind a free port instead of the scenario's own.
const AnyPort = -1

// Launcher opens a browser page. onConsole is nil unless the scenario
// forwards console output.
type Launcher func(ctx context.Context, onConsole func(line string)) (Page, error)

// ProbeLauncher launches real chromedp sessions with the given options.
func ProbeLauncher(opts probe.Options) Launcher {
	return func(ctx context.Context, onConsole func(string)) (Page, error) {
		o := opts
		o.OnConsole = onConsole
		s, err := probe.Launch(ctx, o)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Runner executes scenarios one at a time.
type Runner struct {
	// Root is the directory the file server serves.
	Root string
	Host string

	// OutDir receives the screenshots.
	OutDir string

	// StartupDelay is the pause between starting the server and the browser.
	StartupDelay time.Duration

	// Port overrides every scenario's port when non-zero. AnyPort picks a
	// free one.
	Port int

	AccessLog bool

	Launch Launcher

	// Out receives every printed line as it happens. Nil discards.
	Out io.Writer

	// Pause replaces the real sleep between steps when set.
	Pause func(ctx context.Context, d time.Duration) error
}

func (r *Runner) port(sc Scenario) int {
	switch {
	case r.Port == AnyPort:
		return 0
	case r.Port > 0:
		return r.Port
	}
	return sc.Port
}

// Run executes sc from server start to teardown. It never returns nil and
// never panics on a failing step: the first error ends the interaction phase,
// is printed as "Error: ..." and recorded, and teardown runs regardless.
func (r *Runner) Run(ctx context.Context, sc Scenario) *types.Report {
	report := &types.Report{Scenario: sc.Name, StartedAt: time.Now()}
	rec := &recorder{out: r.Out, report: report}

	sleep := r.Pause
	if sleep == nil {
		sleep = sleepCtx
	}

	r.removeStale(sc)

	var opts []fileserver.Option
	if r.AccessLog {
		opts = append(opts, fileserver.WithAccessLog(true))
	}
	srv := fileserver.New(r.Root, r.Host, r.port(sc), opts...)
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("[runner] %s: server shutdown: %v", sc.Name, err)
		}
		report.FinishedAt = time.Now()
	}()

	if err := srv.Start(); err != nil {
		rec.fail(err)
		return report
	}
	report.URL = srv.URL(sc.Target())

	if err := sleep(ctx, r.StartupDelay); err != nil {
		rec.fail(err)
		return report
	}

	if r.Launch == nil {
		rec.fail(errors.New("no browser launcher configured"))
		return report
	}

	var onConsole func(string)
	if sc.Console {
		onConsole = func(line string) { rec.Printf("%s", line) }
	}
	page, err := r.Launch(ctx, onConsole)
	if err != nil {
		rec.fail(err)
		return report
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Printf("[runner] %s: browser shutdown: %v", sc.Name, err)
		}
	}()

	env := &Env{
		Page:   page,
		OutDir: r.OutDir,
		printf: rec.Printf,
		sleep:  sleep,
		shot:   rec.shot,
	}

	if err := page.Navigate(ctx, report.URL, sc.WaitIdle); err != nil {
		rec.fail(err)
		return report
	}
	if err := runSteps(ctx, env, sc.Steps); err != nil {
		rec.fail(err)
	}
	return report
}

// RunAll runs scenarios sequentially and returns their reports in order.
// A canceled ctx stops before the next scenario starts.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []*types.Report {
	reports := make([]*types.Report, 0, len(scenarios))
	for _, sc := range scenarios {
		if ctx.Err() != nil {
			break
		}
		log.Printf("[runner] running %s", sc.Name)
		rep := r.Run(ctx, sc)
		log.Printf("[runner] %s finished in %v (ok=%v)", sc.Name, rep.Duration().Round(time.Millisecond), rep.OK())
		reports = append(reports, rep)
	}
	return reports
}

// removeStale deletes screenshots left by an earlier run so the files on disk
// always belong to the latest one.
func (r *Runner) removeStale(sc Scenario) {
	for _, file := range sc.Screenshots() {
		path := filepath.Join(r.OutDir, file)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[runner] could not remove stale screenshot %s: %v", path, err)
		}
	}
}

// recorder serializes output from the step chain and the console listener.
type recorder struct {
	mu     sync.Mutex
	out    io.Writer
	report *types.Report
}

func (r *recorder) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Lines = append(r.report.Lines, line)
	if r.out != nil {
		fmt.Fprintln(r.out, line)
	}
}

func (r *recorder) fail(err error) {
	r.Printf("Error: %v", err)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Error = err.Error()
}

func (r *recorder) shot(path string, size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Screenshot = path
	r.report.ScreenshotSize = size
}
