package scenario

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// fakePage is an in-memory menu page: element texts per selector and a click
// table that swaps them.
type fakePage struct {
	mu sync.Mutex

	elements map[string][]string
	html     string
	onClick  map[string]map[string][]string

	navigated []string
	waitIdle  bool
	clicks    []string
	closed    int

	// failOn makes the named method return an error.
	failOn string
	// console is emitted from Navigate.
	console []string
	emit    func(string)
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: map[string][]string{},
		onClick:  map[string]map[string][]string{},
	}
}

func (p *fakePage) err(method string) error {
	if p.failOn == method {
		return errors.New(method + " exploded")
	}
	return nil
}

func (p *fakePage) Navigate(ctx context.Context, url string, waitIdle bool) error {
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	p.waitIdle = waitIdle
	p.mu.Unlock()
	for _, line := range p.console {
		if p.emit != nil {
			p.emit(line)
		}
	}
	return p.err("Navigate")
}

func (p *fakePage) Count(ctx context.Context, sel string) (int, error) {
	if err := p.err("Count"); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.elements[sel]), nil
}

func (p *fakePage) Texts(ctx context.Context, sel string, limit int) ([]string, error) {
	if err := p.err("Texts"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	texts := p.elements[sel]
	if limit >= 0 && limit < len(texts) {
		texts = texts[:limit]
	}
	return append([]string(nil), texts...), nil
}

func (p *fakePage) click(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, key)
	for sel, texts := range p.onClick[key] {
		p.elements[sel] = texts
	}
	return nil
}

func (p *fakePage) ClickNth(ctx context.Context, sel string, n int) error {
	if err := p.err("ClickNth"); err != nil {
		return err
	}
	p.mu.Lock()
	items := p.elements[sel]
	p.mu.Unlock()
	if n >= len(items) {
		return errors.New("no such element")
	}
	return p.click(items[n])
}

func (p *fakePage) ClickText(ctx context.Context, text string) error {
	if err := p.err("ClickText"); err != nil {
		return err
	}
	if !strings.Contains(p.html, text) {
		return errors.New("text not found: " + text)
	}
	return p.click(text)
}

func (p *fakePage) InnerText(ctx context.Context, sel string) (string, error) {
	if err := p.err("InnerText"); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.elements[sel]) == 0 {
		return "", errors.New("waiting for " + sel + ": context deadline exceeded")
	}
	return p.elements[sel][0], nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	if err := p.err("HTML"); err != nil {
		return "", err
	}
	return p.html, nil
}

func (p *fakePage) Screenshot(ctx context.Context, full bool) ([]byte, error) {
	if err := p.err("Screenshot"); err != nil {
		return nil, err
	}
	if full {
		return []byte("\x89PNG full"), nil
	}
	return []byte("\x89PNG view"), nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}
