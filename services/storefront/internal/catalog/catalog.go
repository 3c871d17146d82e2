// Package catalog holds the storefront's fixed product table.
package catalog

import (
	"sort"
	"strconv"
	"strings"
)

// MinLiveQueryLength is the shortest query the live search box acts on.
const MinLiveQueryLength = 2

// Product is an immutable catalog entry. Price is in whole rupees.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

// Lookup resolves a product id. Implementations must be safe for concurrent use.
type Lookup interface {
	Lookup(id string) (Product, bool)
}

// Static is an in-memory catalog that never changes after construction.
type Static struct {
	byID  map[string]Product
	order []Product
}

// NewStatic builds a catalog from products. Later duplicates of an id are ignored.
func NewStatic(products []Product) *Static {
	s := &Static{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		if _, dup := s.byID[p.ID]; dup {
			continue
		}
		s.byID[p.ID] = p
		s.order = append(s.order, p)
	}
	sort.SliceStable(s.order, func(i, j int) bool { return lessID(s.order[i].ID, s.order[j].ID) })
	return s
}

// Default returns the nine sarees sold by the Silk Elegance storefront.
func Default() *Static {
	return NewStatic(defaultProducts)
}

// Lookup returns the product with the given id.
func (s *Static) Lookup(id string) (Product, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// List returns every product ordered by id.
func (s *Static) List() []Product {
	out := make([]Product, len(s.order))
	copy(out, s.order)
	return out
}

// Search returns products whose name or category contains query,
// case-insensitively. A blank query matches nothing.
func (s *Static) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Product{}
	}

	out := []Product{}
	for _, p := range s.order {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

// lessID orders numeric ids numerically and everything else lexically.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

const imageParams = "?ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D&auto=format&fit=crop&w=500&q=80"

var (
	imageBanarasi  = "https://images.unsplash.com/photo-1585487000113-679b4c1d2d28" + imageParams
	imageKanjivram = "https://images.unsplash.com/photo-1595777457583-95e059d581b8" + imageParams
	imageChanderi  = "https://images.unsplash.com/photo-1631148557880-e003a16bf70d" + imageParams
	imageDesigner  = "https://images.unsplash.com/photo-1572804013309-59a88b7e92f1" + imageParams
)

var defaultProducts = []Product{
	{ID: "1", Name: "Banarasi Silk Saree", Price: 8999, Image: imageBanarasi, Category: "silk"},
	{ID: "2", Name: "Kanjivaram Silk", Price: 12499, Image: imageKanjivram, Category: "silk"},
	{ID: "3", Name: "Chanderi Cotton Saree", Price: 4999, Image: imageChanderi, Category: "cotton"},
	{ID: "4", Name: "Designer Georgette", Price: 6499, Image: imageDesigner, Category: "designer"},
	{ID: "5", Name: "Bridal Silk Saree", Price: 15999, Image: imageBanarasi, Category: "bridal"},
	{ID: "6", Name: "Printed Cotton Saree", Price: 3499, Image: imageKanjivram, Category: "cotton"},
	{ID: "7", Name: "Embroidered Silk", Price: 9999, Image: imageChanderi, Category: "silk"},
	{ID: "8", Name: "Party Wear Saree", Price: 7499, Image: imageDesigner, Category: "designer"},
	{ID: "9", Name: "Traditional Silk", Price: 11999, Image: imageBanarasi, Category: "silk"},
}
