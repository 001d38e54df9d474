package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ibeckermayer/menuprobe/internal/browser"
	"github.com/ibeckermayer/menuprobe/internal/config"
	"github.com/ibeckermayer/menuprobe/internal/imgdiff"
	"github.com/ibeckermayer/menuprobe/internal/probe"
	"github.com/ibeckermayer/menuprobe/internal/report"
	"github.com/ibeckermayer/menuprobe/internal/scenario"
	"github.com/ibeckermayer/menuprobe/internal/scheduler"
	"github.com/ibeckermayer/menuprobe/internal/store"
	"github.com/ibeckermayer/menuprobe/internal/types"
)

// watchJobTimeout bounds one scheduled batch.
const watchJobTimeout = 30 * time.Minute

// Overrides are command line values that win over the config file. They
// survive ReloadConfig.
type Overrides struct {
	Root    string
	OutDir  string
	Port    int
	Headful bool
}

func (o Overrides) apply(cfg config.Config) config.Config {
	if o.Root != "" {
		cfg.Server.Root = o.Root
	}
	if o.OutDir != "" {
		cfg.Output.Dir = o.OutDir
	}
	if o.Headful {
		cfg.Browser.Headless = false
	}
	return cfg
}

// App holds the application state.
type App struct {
	mu sync.RWMutex
	// runMu keeps batches from overlapping; scenarios share fixed ports.
	runMu sync.Mutex

	// Replaced by ReloadConfig - use Config() for concurrent access.
	config *config.Config

	configPath  string
	overrides   Overrides
	out         io.Writer
	launch      scenario.Launcher
	pause       func(ctx context.Context, d time.Duration) error
	historyPath string
	cacheDir    string

	// Set while Watch runs so ReloadConfig can move the schedule.
	watchMu       sync.Mutex
	watchSched    *scheduler.Scheduler
	watchSchedule string
	watchJob      scheduler.Job
}

// Option configures an App.
type Option func(*App)

// WithConfigPath sets the file ReloadConfig reads. Empty means the default
// location.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// WithOverrides applies command line overrides on top of the config.
func WithOverrides(o Overrides) Option {
	return func(a *App) { a.overrides = o }
}

// WithOutput sets where scenario lines are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithLauncher replaces the chromedp launcher.
func WithLauncher(l scenario.Launcher) Option {
	return func(a *App) { a.launch = l }
}

// WithPause replaces the real sleeps between steps.
func WithPause(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(a *App) { a.pause = fn }
}

// WithHistoryPath sets the history database location.
func WithHistoryPath(path string) Option {
	return func(a *App) { a.historyPath = path }
}

// WithReportCacheDir sets where report batches are cached.
func WithReportCacheDir(dir string) Option {
	return func(a *App) { a.cacheDir = dir }
}

// New creates a new App instance.
func New(cfg *config.Config, opts ...Option) *App {
	a := &App{config: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the effective configuration, overrides applied.
func (a *App) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.overrides.apply(*a.config)
}

// ReloadConfig reloads the configuration from disk. A batch already running
// keeps the config it started with.
func (a *App) ReloadConfig() error {
	cfg, err := config.LoadOrCreate(a.configPath)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.config = cfg
	a.mu.Unlock()

	log.Println("Configuration reloaded")
	return a.reschedule(cfg.Watch.Schedule)
}

// reschedule moves a running watch onto schedule when it changed.
func (a *App) reschedule(schedule string) error {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	if a.watchSched == nil || schedule == a.watchSchedule {
		return nil
	}
	if err := a.watchSched.Reschedule("watch", schedule, a.watchJob); err != nil {
		return fmt.Errorf("keeping watch schedule %s: %w", a.watchSchedule, err)
	}
	log.Printf("Watch schedule changed from %s to %s", a.watchSchedule, schedule)
	a.watchSchedule = schedule
	return nil
}

func (a *App) runner(cfg config.Config) *scenario.Runner {
	launch := a.launch
	if launch == nil {
		launch = scenario.ProbeLauncher(probe.Options{
			Allocator:   browser.Options(cfg.Browser),
			StepTimeout: cfg.StepTimeoutDuration(),
		})
	}

	return &scenario.Runner{
		Root:         cfg.Server.Root,
		Host:         cfg.Server.Host,
		OutDir:       cfg.Output.Dir,
		StartupDelay: cfg.StartupDelayDuration(),
		Port:         a.overrides.Port,
		AccessLog:    cfg.Server.AccessLog,
		Launch:       launch,
		Out:          a.out,
		Pause:        a.pause,
	}
}

// RunScenarios runs the named scenarios (all of them when names is empty)
// one after another, then compares baselines, records history, caches the
// batch and writes the gallery. Only an unknown scenario name is an error;
// failed runs are reported in their Report.
func (a *App) RunScenarios(ctx context.Context, names []string) ([]*types.Report, error) {
	scenarios, err := scenario.Select(names)
	if err != nil {
		return nil, err
	}

	a.runMu.Lock()
	defer a.runMu.Unlock()

	cfg := a.Config()
	reports := a.runner(cfg).RunAll(ctx, scenarios)

	a.compareBaselines(cfg, reports)
	a.recordHistory(cfg, reports)
	a.cacheReports(reports)
	if cfg.Output.Report && len(reports) > 0 {
		if path, err := a.writeGallery(cfg, reports); err != nil {
			log.Printf("Failed to write report: %v", err)
		} else {
			log.Printf("Report saved to: %s", path)
		}
	}

	return reports, nil
}

// Failed counts the reports that ended in an error.
func Failed(reports []*types.Report) int {
	n := 0
	for _, r := range reports {
		if !r.OK() {
			n++
		}
	}
	return n
}

func (a *App) compareBaselines(cfg config.Config, reports []*types.Report) {
	cmp := imgdiff.New(cfg.Baseline.Dir, cfg.Baseline.Threshold)
	if !cmp.Enabled() {
		return
	}

	for _, r := range reports {
		if r.Screenshot == "" {
			continue
		}
		diff, err := cmp.Compare(r.Screenshot)
		if err != nil {
			log.Printf("Baseline compare failed for %s: %v", r.Scenario, err)
			continue
		}
		if diff == nil {
			log.Printf("No baseline for %s", r.Scenario)
			continue
		}
		r.Diff = diff
		if diff.Error != "" {
			log.Printf("Baseline %s: %s", r.Scenario, diff.Error)
		} else {
			log.Printf("Baseline %s: %d of %d pixels differ", r.Scenario, diff.Pixels, diff.Total)
		}
	}
}

func (a *App) openStore() (*store.Store, error) {
	path := a.historyPath
	if path == "" {
		var err error
		if path, err = store.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return store.New(path)
}

func (a *App) recordHistory(cfg config.Config, reports []*types.Report) {
	if !cfg.History.Enabled || len(reports) == 0 {
		return
	}

	st, err := a.openStore()
	if err != nil {
		log.Printf("Failed to open history: %v", err)
		return
	}
	defer st.Close()

	for _, r := range reports {
		if _, err := st.SaveRun(r); err != nil {
			log.Printf("Failed to record %s: %v", r.Scenario, err)
		}
	}

	if keep := cfg.HistoryKeepDuration(); keep > 0 {
		if n, err := st.Prune(time.Now().Add(-keep)); err != nil {
			log.Printf("Failed to prune history: %v", err)
		} else if n > 0 {
			log.Printf("Pruned %d runs older than %v", n, keep)
		}
	}
}

func (a *App) reportCache() (*store.ReportCache, error) {
	dir := a.cacheDir
	if dir == "" {
		var err error
		if dir, err = store.DefaultReportCacheDir(); err != nil {
			return nil, err
		}
	}
	return store.NewReportCache(dir), nil
}

func (a *App) cacheReports(reports []*types.Report) {
	if len(reports) == 0 {
		return
	}

	cache, err := a.reportCache()
	if err != nil {
		log.Printf("Failed to locate report cache: %v", err)
		return
	}
	if path, err := cache.Save(reports); err != nil {
		log.Printf("Failed to cache reports: %v", err)
	} else {
		log.Printf("Cached reports to: %s", path)
	}
}

func (a *App) writeGallery(cfg config.Config, reports []*types.Report) (string, error) {
	b, err := report.New()
	if err != nil {
		return "", err
	}
	return b.Write(reports, cfg.Output.Dir)
}

// History returns recorded runs, newest first.
func (a *App) History(name string, limit int) ([]store.Run, error) {
	if name != "" {
		if _, ok := scenario.Lookup(name); !ok {
			return nil, fmt.Errorf("unknown scenario: %s", name)
		}
	}

	st, err := a.openStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer st.Close()

	return st.RecentRuns(name, limit)
}

// LatestReports returns the most recently cached batch.
func (a *App) LatestReports() ([]*types.Report, string, error) {
	cache, err := a.reportCache()
	if err != nil {
		return nil, "", err
	}
	return cache.Latest()
}

// PromoteBaselines copies the current screenshots of the named scenarios
// into the baseline directory. Scenarios without a screenshot on disk are
// skipped.
func (a *App) PromoteBaselines(names []string) ([]string, error) {
	scenarios, err := scenario.Select(names)
	if err != nil {
		return nil, err
	}

	cfg := a.Config()
	cmp := imgdiff.New(cfg.Baseline.Dir, cfg.Baseline.Threshold)
	if !cmp.Enabled() {
		return nil, fmt.Errorf("baseline.dir is not configured")
	}

	var promoted []string
	for _, sc := range scenarios {
		for _, file := range sc.Screenshots() {
			shot := filepath.Join(cfg.Output.Dir, file)
			if _, err := os.Stat(shot); err != nil {
				log.Printf("Skipping %s: %v", sc.Name, err)
				continue
			}
			path, err := cmp.Promote(shot)
			if err != nil {
				return promoted, err
			}
			promoted = append(promoted, path)
		}
	}
	return promoted, nil
}

// Watch runs the watch scenarios once, then on the configured schedule until
// ctx is done. ReloadConfig picks up changes to both the schedule and the
// scenario list.
func (a *App) Watch(ctx context.Context) error {
	cfg := a.Config()
	if _, err := scenario.Select(cfg.Watch.Scenarios); err != nil {
		return err
	}

	sched, err := scheduler.New("", watchJobTimeout)
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		// Re-read the scenario list so a reload picks up changes.
		reports, err := a.RunScenarios(ctx, a.Config().Watch.Scenarios)
		if err != nil {
			return err
		}
		if n := Failed(reports); n > 0 {
			return fmt.Errorf("%d of %d scenarios failed", n, len(reports))
		}
		return nil
	}

	if err := sched.AddWatchJob(cfg.Watch.Schedule, job); err != nil {
		return err
	}

	a.watchMu.Lock()
	a.watchSched, a.watchSchedule, a.watchJob = sched, cfg.Watch.Schedule, job
	a.watchMu.Unlock()
	defer func() {
		a.watchMu.Lock()
		a.watchSched, a.watchJob = nil, nil
		a.watchMu.Unlock()
	}()

	if err := sched.RunNow(ctx, "watch", job); err != nil {
		log.Printf("Initial run failed: %v", err)
	}

	sched.Start()
	for _, j := range sched.ListJobs() {
		log.Printf("Next %s run at %s", j.Name, j.NextRun.Format(time.Kitchen))
	}

	<-ctx.Done()
	<-sched.Stop().Done()
	return nil
}
