package binding

// Page identifies a storefront page. The page decides which bindings exist;
// nothing probes for elements at render time.
type Page string

const (
	PageHome    Page = "home"
	PageShop    Page = "shop"
	PageGallery Page = "gallery"
	PageContact Page = "contact"
)

// Capabilities lists the collection-bound widgets a page carries.
type Capabilities struct {
	NavBadges    bool `json:"nav_badges"`
	CartPanel    bool `json:"cart_panel"`
	ProductCards bool `json:"product_cards"`
}

var pageCapabilities = map[Page]Capabilities{
	PageHome:    {NavBadges: true, CartPanel: true, ProductCards: true},
	PageShop:    {NavBadges: true, CartPanel: true, ProductCards: true},
	PageGallery: {NavBadges: true, CartPanel: true},
	PageContact: {NavBadges: true, CartPanel: true},
}

// ParsePage resolves a page name.
func ParsePage(name string) (Page, bool) {
	p := Page(name)
	_, ok := pageCapabilities[p]
	return p, ok
}

// Capabilities returns what p renders. Unknown pages render nothing.
func (p Page) Capabilities() Capabilities {
	return pageCapabilities[p]
}

// PageView is everything collection-derived that one page shows.
type PageView struct {
	Page         Page         `json:"page"`
	Capabilities Capabilities `json:"capabilities"`
	CartBadge    *Badge       `json:"cart_badge,omitempty"`
	WishBadge    *Badge       `json:"wishlist_badge,omitempty"`
	CartPanel    *View        `json:"cart_panel,omitempty"`
	Wishlisted   []string     `json:"wishlisted,omitempty"`
}

// Compose assembles the page view from the current cart and wishlist views,
// filling only the parts the page has.
func (p Page) Compose(cart, wishlist View) PageView {
	caps := p.Capabilities()
	pv := PageView{Page: p, Capabilities: caps}

	if caps.NavBadges {
		cb, wb := cart.Badge, wishlist.Badge
		pv.CartBadge, pv.WishBadge = &cb, &wb
	}
	if caps.CartPanel {
		panel := cart
		pv.CartPanel = &panel
	}
	if caps.ProductCards {
		pv.Wishlisted = make([]string, 0, len(wishlist.Items))
		for _, it := range wishlist.Items {
			pv.Wishlisted = append(pv.Wishlisted, it.ProductID)
		}
	}
	return pv
}
