// Package scenario describes the menu page probes and runs them.
package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/ibeckermayer/menuprobe/internal/probe"
)

// Page is the browser surface a scenario drives. *probe.Session implements it.
type Page interface {
	Navigate(ctx context.Context, url string, waitIdle bool) error
	Count(ctx context.Context, sel string) (int, error)
	Texts(ctx context.Context, sel string, limit int) ([]string, error)
	ClickNth(ctx context.Context, sel string, n int) error
	ClickText(ctx context.Context, text string) error
	InnerText(ctx context.Context, sel string) (string, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, full bool) ([]byte, error)
	Close() error
}

var _ Page = (*probe.Session)(nil)

// Scenario is one linear probe: serve, load, poke, screenshot, tear down.
type Scenario struct {
	Name        string
	Description string

	// Port is the fixed local port the file server binds.
	Port int

	// Path is the page to load, relative to the site root.
	Path string

	// Route is an optional client-side fragment such as "#/sets".
	Route string

	// WaitIdle waits for network idle after navigation instead of only the
	// load event.
	WaitIdle bool

	// Console forwards page console output and uncaught errors.
	Console bool

	Steps []Step
}

// Target returns the page and route requested from the file server.
func (s Scenario) Target() string {
	path := s.Path
	if path == "" {
		path = probe.IndexPage
	}
	return path + s.Route
}

// Screenshots lists the file names the scenario writes, nested steps included.
func (s Scenario) Screenshots() []string {
	var files []string
	var walk func([]Step)
	walk = func(steps []Step) {
		for _, st := range steps {
			switch st := st.(type) {
			case Screenshot:
				files = append(files, st.File)
			case ClickNth:
				walk(st.Then)
			}
		}
	}
	walk(s.Steps)
	return files
}

// Lookup finds a built-in scenario by name.
func Lookup(name string) (Scenario, bool) {
	for _, sc := range Catalog() {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}

// Select resolves names against the catalogue, keeping the given order. No
// names selects the whole catalogue.
func Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return Catalog(), nil
	}

	var (
		selected []Scenario
		unknown  []string
	)
	for _, name := range names {
		sc, ok := Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, sc)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown scenario(s): %s", strings.Join(unknown, ", "))
	}
	return selected, nil
}
