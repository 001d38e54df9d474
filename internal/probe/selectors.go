package probe

// Menu page DOM selectors
// These are isolated here because the page markup is still moving
// Update these when a probe starts reporting zero matches

const (
	// Product grid
	ProductCard = `.bg-white.rounded-2xl`
	Article     = `article`

	// Navigation
	SidebarItem = `.sidebar-item`

	// Sets route
	SetCard = `.bg-brand-surface`

	// Category heading rendered after a sidebar click
	CategoryHeading = `h3`
)

// IndexPage is the page every probe loads
const IndexPage = "index.html"

// SetsRoute is the client-side route fragment for the sets view
const SetsRoute = "#/sets"
