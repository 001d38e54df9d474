package scenario

import (
	"time"

	"github.com/ibeckermayer/menuprobe/internal/probe"
)

// Catalog returns the built-in probes. Each call returns a fresh slice.
func Catalog() []Scenario {
	return []Scenario{
		{
			Name:        "products",
			Description: "Count product cards and print the first five",
			Port:        8081,
			Steps: []Step{
				Sleep(3 * time.Second),
				Count{
					Selector:      probe.ProductCard,
					Format:        "Found %d cards",
					Excerpts:      5,
					ExcerptLen:    50,
					ExcerptFormat: "Card %d text: %s...",
				},
				Screenshot{File: "debug_products_py.png", Full: true},
			},
		},
		{
			Name:        "products-js",
			Description: "Count product cards and flag a page stuck on its loading state",
			Port:        8081,
			Steps: []Step{
				Sleep(2 * time.Second),
				Count{Selector: probe.ProductCard, Format: "Found %d product cards."},
				ContentCheck{Contains: "Loading...", Message: "Still loading..."},
				Screenshot{File: "debug_products.png", Full: true},
			},
		},
		{
			Name:        "products-v2",
			Description: "Forward page console output and count product articles",
			Port:        8082,
			Console:     true,
			Steps: []Step{
				Sleep(5 * time.Second),
				Count{Selector: probe.Article, Format: "Found %d product articles"},
				Screenshot{File: "debug_products_v2.png", Full: true},
			},
		},
		{
			Name:        "click",
			Description: "Click the second sidebar category and inspect its cards",
			Port:        8083,
			Steps: []Step{
				Sleep(3 * time.Second),
				Count{Selector: probe.SidebarItem, Format: "Found %d sidebar items"},
				ClickNth{
					Selector: probe.SidebarItem,
					Index:    1,
					Min:      2,
					Then: []Step{
						Sleep(1 * time.Second),
						Count{
							Selector:      probe.Article,
							Format:        "Found %d cards in category 1",
							Excerpts:      1,
							ExcerptLen:    50,
							ExcerptFormat: "First card text: %[2]s",
						},
					},
				},
				Screenshot{File: "debug_category_click.png", Full: true},
			},
		},
		{
			Name:        "sets",
			Description: "Load the sets route and count set cards",
			Port:        8084,
			Route:       probe.SetsRoute,
			Steps: []Step{
				Sleep(3 * time.Second),
				Count{Selector: probe.SetCard, Format: "Found %d set cards"},
				Screenshot{File: "debug_sets.png", Full: true},
			},
		},
		{
			Name:        "v3",
			Description: "Give the page five seconds and take a screenshot",
			Port:        8085,
			Steps: []Step{
				Sleep(5 * time.Second),
				Screenshot{File: "debug_products_v3.png", Full: true},
			},
		},
		{
			Name:        "final",
			Description: "Click the Salads category and print the heading it renders",
			Port:        8002,
			WaitIdle:    true,
			Steps: []Step{
				ClickText{Text: "Salads"},
				Sleep(1 * time.Second),
				ReadText{Selector: probe.CategoryHeading, Format: "Dynamic Heading: %s"},
				Screenshot{File: "final_check.png"},
			},
		},
	}
}
