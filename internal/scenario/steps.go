package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Step is one action in a scenario.
type Step interface {
	Run(ctx context.Context, env *Env) error
}

// Env is the state a step sees during a run.
type Env struct {
	Page   Page
	OutDir string

	printf func(format string, args ...any)
	sleep  func(ctx context.Context, d time.Duration) error
	shot   func(path string, size int64)
}

// Printf writes one diagnostic line to the run output.
func (e *Env) Printf(format string, args ...any) {
	e.printf(format, args...)
}

// Sleep pauses for a fixed duration, giving client-side rendering time to settle.
type Sleep time.Duration

func (s Sleep) Run(ctx context.Context, env *Env) error {
	return env.sleep(ctx, time.Duration(s))
}

// Count prints how many elements match Selector, then optionally the first
// Excerpts of them cut to ExcerptLen characters.
//
// Format receives the count. ExcerptFormat receives the 0-based index and the
// excerpt, so it may use explicit argument indexes such as "%[2]s".
type Count struct {
	Selector      string
	Format        string
	Excerpts      int
	ExcerptLen    int
	ExcerptFormat string
}

func (c Count) Run(ctx context.Context, env *Env) error {
	n, err := env.Page.Count(ctx, c.Selector)
	if err != nil {
		return err
	}
	env.Printf(c.Format, n)

	if c.Excerpts <= 0 || n == 0 {
		return nil
	}

	texts, err := env.Page.Texts(ctx, c.Selector, c.Excerpts)
	if err != nil {
		return err
	}
	for i, text := range texts {
		env.Printf(c.ExcerptFormat, i, Excerpt(text, c.ExcerptLen))
	}
	return nil
}

// ClickNth clicks the Index-th match of Selector when at least Min elements
// match, then runs Then. With fewer matches the step and Then are skipped.
type ClickNth struct {
	Selector string
	Index    int
	Min      int
	Then     []Step
}

func (c ClickNth) Run(ctx context.Context, env *Env) error {
	n, err := env.Page.Count(ctx, c.Selector)
	if err != nil {
		return err
	}
	if n < c.Min || n <= c.Index {
		return nil
	}

	if err := env.Page.ClickNth(ctx, c.Selector, c.Index); err != nil {
		return err
	}
	return runSteps(ctx, env, c.Then)
}

// ClickText clicks the first element whose rendered text contains Text.
type ClickText struct {
	Text string
}

func (c ClickText) Run(ctx context.Context, env *Env) error {
	return env.Page.ClickText(ctx, c.Text)
}

// ReadText prints the rendered text of the first element matching Selector.
type ReadText struct {
	Selector string
	Format   string
}

func (r ReadText) Run(ctx context.Context, env *Env) error {
	text, err := env.Page.InnerText(ctx, r.Selector)
	if err != nil {
		return err
	}
	env.Printf(r.Format, text)
	return nil
}

// ContentCheck prints Message when the page HTML contains Contains.
type ContentCheck struct {
	Contains string
	Message  string
}

func (c ContentCheck) Run(ctx context.Context, env *Env) error {
	html, err := env.Page.HTML(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(html, c.Contains) {
		env.Printf("%s", c.Message)
	}
	return nil
}

// Screenshot writes a PNG named File into the output directory. Full captures
// the whole scrollable page instead of the viewport.
type Screenshot struct {
	File string
	Full bool
}

func (s Screenshot) Run(ctx context.Context, env *Env) error {
	buf, err := env.Page.Screenshot(ctx, s.Full)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(env.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(env.OutDir, s.File)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}

	env.shot(path, int64(len(buf)))
	return nil
}

func runSteps(ctx context.Context, env *Env, steps []Step) error {
	for _, st := range steps {
		if err := st.Run(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

// Excerpt returns the first n characters of s. n <= 0 returns s unchanged.
func Excerpt(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
