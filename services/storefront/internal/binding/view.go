// Package binding projects collections into the read models the storefront
// UI renders: nav badges, the itemized panel and product-card markers.
package binding

import (
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
)

// Badge is the counter shown next to a cart or wishlist icon.
type Badge struct {
	Count   int  `json:"count"`
	Visible bool `json:"visible"`
}

// ItemView is one row of the itemized panel.
type ItemView struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

// View is the full projection of one collection.
type View struct {
	Kind  domain.Kind `json:"kind"`
	Badge Badge       `json:"badge"`
	Items []ItemView  `json:"items"`
	Total int64       `json:"total"`
	Empty bool        `json:"empty"`
}

// Project computes the view of c. It is a pure function of c's state.
func Project(c *domain.Collection) View {
	items := c.Items()
	v := View{
		Kind:  c.Kind(),
		Items: make([]ItemView, 0, len(items)),
		Total: c.TotalPrice(),
		Empty: len(items) == 0,
	}
	for _, it := range items {
		v.Items = append(v.Items, ItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}
	count := c.TotalItemCount()
	v.Badge = Badge{Count: count, Visible: count > 0}
	return v
}
