// Package probe drives a single headless browser tab against the menu page.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Options configures a browser session.
type Options struct {
	// Allocator is passed to chromedp.NewExecAllocator.
	Allocator []chromedp.ExecAllocatorOption

	// StepTimeout bounds each browser call. Zero means no bound besides the
	// caller's context.
	StepTimeout time.Duration

	// OnConsole receives "PAGE LOG: ..." and "PAGE ERROR: ..." lines in the
	// order the page emitted them. Nil disables forwarding.
	OnConsole func(line string)
}

// Session is one browser with one tab.
type Session struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	stepTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Launch starts a browser and opens a blank tab.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts.Allocator...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         tabCtx,
		cancelTab:   tabCancel,
		cancelAlloc: allocCancel,
		stepTimeout: opts.StepTimeout,
	}

	if opts.OnConsole != nil {
		chromedp.ListenTarget(tabCtx, consoleListener(opts.OnConsole))
	}

	// The first Run allocates the browser and the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return s, nil
}

// run executes actions on the tab, bounded by the step timeout and by ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if s.stepTimeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, s.stepTimeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads url and waits for the load event. With waitIdle it also
// waits for the page's network to go idle.
func (s *Session) Navigate(ctx context.Context, url string, waitIdle bool) error {
	if !waitIdle {
		if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", url, err)
		}
		return nil
	}

	watcher := newIdleWatcher()
	listenCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	chromedp.ListenTarget(listenCtx, watcher.handle)

	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-watcher.idle:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed waiting for network idle on %s: %w", url, err)
	}
	return nil
}

// Count returns how many elements match sel right now. It never waits for a
// match to appear.
func (s *Session) Count(ctx context.Context, sel string) (int, error) {
	var n int
	js := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(sel))
	if err := s.run(ctx, chromedp.Evaluate(js, &n)); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", sel, err)
	}
	return n, nil
}

// Texts returns the rendered text of the first limit elements matching sel.
// A negative limit returns all of them.
func (s *Session) Texts(ctx context.Context, sel string, limit int) ([]string, error) {
	end := "undefined"
	if limit >= 0 {
		end = strconv.Itoa(limit)
	}
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).slice(0, %s).map(el => el.innerText)`,
		jsString(sel), end)

	var texts []string
	if err := s.run(ctx, chromedp.Evaluate(js, &texts)); err != nil {
		return nil, fmt.Errorf("failed to read text of %s: %w", sel, err)
	}
	return texts, nil
}

// ClickNth clicks the n-th (0-based) element matching sel.
func (s *Session) ClickNth(ctx context.Context, sel string, n int) error {
	var nodes []*cdp.Node
	err := s.run(ctx,
		chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if n < 0 || n >= len(nodes) {
				return fmt.Errorf("only %d elements match", len(nodes))
			}
			return chromedp.MouseClickNode(nodes[n]).Do(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to click %s[%d]: %w", sel, n, err)
	}
	return nil
}

// ClickText clicks the innermost visible element whose text contains text.
func (s *Session) ClickText(ctx context.Context, text string) error {
	if err := s.run(ctx, chromedp.Click(textXPath(text), chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click text %q: %w", text, err)
	}
	return nil
}

// InnerText returns the innerText of the first element matching sel, waiting
// for it to exist. Hidden elements report their text content.
func (s *Session) InnerText(ctx context.Context, sel string) (string, error) {
	var text string
	js := fmt.Sprintf(`document.querySelector(%s).innerText`, jsString(sel))
	err := s.run(ctx,
		chromedp.WaitReady(sel, chromedp.ByQuery),
		chromedp.Evaluate(js, &text),
	)
	if err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", sel, err)
	}
	return text, nil
}

// HTML returns the serialized document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

// Screenshot captures a PNG of the whole page, or only the viewport when full
// is false.
func (s *Session) Screenshot(ctx context.Context, full bool) ([]byte, error) {
	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if full {
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := s.run(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Close closes the tab and shuts the browser down. Safe to call repeatedly.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancelTab()
		s.cancelAlloc()
	})
	return s.closeErr
}

// idleWatcher closes idle once the first document loaded after it was
// registered reports networkIdle.
type idleWatcher struct {
	mu     sync.Mutex
	loader cdp.LoaderID
	once   sync.Once
	idle   chan struct{}
}

func newIdleWatcher() *idleWatcher {
	return &idleWatcher{idle: make(chan struct{})}
}

func (w *idleWatcher) handle(ev interface{}) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch e.Name {
	case "init":
		if w.loader == "" {
			w.loader = e.LoaderID
		}
	case "networkIdle":
		if w.loader != "" && e.LoaderID == w.loader {
			w.once.Do(func() { close(w.idle) })
		}
	}
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
