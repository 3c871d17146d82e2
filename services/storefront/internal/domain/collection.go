package domain

import (
	"errors"
	"fmt"

	apperrors "github.com/NivraTech-Teams/Silk-Elegance/pkg/errors"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/catalog"
)

// Kind distinguishes the two collection flavours. They share storage layout
// and differ only in how repeated adds and quantities behave.
type Kind string

const (
	KindCart     Kind = "cart"
	KindWishlist Kind = "wishlist"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindCart || k == KindWishlist
}

// Outcome describes what a mutation did.
type Outcome string

const (
	OutcomeAdded       Outcome = "added"
	OutcomeIncremented Outcome = "incremented"
	OutcomeUpdated     Outcome = "updated"
	OutcomeRemoved     Outcome = "removed"
	OutcomeCleared     Outcome = "cleared"
	// OutcomeUnchanged: the wishlist already held the product, the quantity
	// already had the requested value, or a cart line is at MaxQuantity.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeAbsent: remove or set-quantity targeted a product not in the collection.
	OutcomeAbsent Outcome = "absent"
	// OutcomeNotFound: the product id is not in the catalog.
	OutcomeNotFound Outcome = "not_found"
)

// Changed reports whether the outcome altered the collection.
func (o Outcome) Changed() bool {
	switch o {
	case OutcomeAdded, OutcomeIncremented, OutcomeUpdated, OutcomeRemoved, OutcomeCleared:
		return true
	default:
		return false
	}
}

// Bounds on a single line. Totals are int64 rupees and stay far from
// overflow inside these limits.
const (
	MaxQuantity = 999
	MaxPrice    = 10_000_000
)

// Hydration errors.
var (
	ErrDuplicateItem   = errors.New("duplicate product id")
	ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)
	ErrInvalidPrice    = fmt.Errorf("price must be between 0 and %d", MaxPrice)
	ErrMissingID       = errors.New("line item has no product id")
)

// LineItem is a snapshot of a product taken when it was added, plus a quantity.
// The JSON names are the persisted layout.
type LineItem struct {
	ProductID string `json:"id" validate:"required"`
	Name      string `json:"name"`
	Price     int64  `json:"price" validate:"gte=0,lte=10000000"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=999"`
}

// LineTotal is price times quantity.
func (li LineItem) LineTotal() int64 {
	return li.Price * int64(li.Quantity)
}

// ItemFromProduct snapshots p with quantity 1.
func ItemFromProduct(p catalog.Product) LineItem {
	return LineItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image, Quantity: 1}
}

// Collection is an insertion-ordered list of line items, unique by product id.
// It is not safe for concurrent use; the owning service serialises access.
type Collection struct {
	kind  Kind
	items []LineItem
}

// NewCollection returns an empty collection of the given kind.
func NewCollection(kind Kind) *Collection {
	return &Collection{kind: kind, items: []LineItem{}}
}

// Hydrate rebuilds a collection from persisted items. It rejects repeated
// product ids, missing ids, and quantities or prices out of bounds. Wishlist quantities are
// normalised to 1.
func Hydrate(kind Kind, items []LineItem) (*Collection, error) {
	c := NewCollection(kind)
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.ProductID == "" {
			return nil, fmt.Errorf("item %d: %w", i, ErrMissingID)
		}
		if it.Quantity < 1 || it.Quantity > MaxQuantity {
			return nil, fmt.Errorf("item %d (%s): %w", i, it.ProductID, ErrInvalidQuantity)
		}
		if it.Price < 0 || it.Price > MaxPrice {
			return nil, fmt.Errorf("item %d (%s): %w", i, it.ProductID, ErrInvalidPrice)
		}
		if _, dup := seen[it.ProductID]; dup {
			return nil, fmt.Errorf("item %d (%s): %w", i, it.ProductID, ErrDuplicateItem)
		}
		seen[it.ProductID] = struct{}{}
		if kind == KindWishlist {
			it.Quantity = 1
		}
		c.items = append(c.items, it)
	}
	return c, nil
}

// Kind returns the collection kind.
func (c *Collection) Kind() Kind { return c.kind }

// Len returns the number of distinct products.
func (c *Collection) Len() int { return len(c.items) }

// Items returns a copy of the line items in insertion order.
func (c *Collection) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Contains reports whether productID is present.
func (c *Collection) Contains(productID string) bool {
	return c.indexOf(productID) >= 0
}

// Item returns the line item for productID.
func (c *Collection) Item(productID string) (LineItem, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

// Clone returns a deep copy.
func (c *Collection) Clone() *Collection {
	return &Collection{kind: c.kind, items: c.Items()}
}

// Add appends p with quantity 1. When p is already present a cart increments
// its quantity, up to MaxQuantity, and a wishlist leaves it alone.
func (c *Collection) Add(p catalog.Product) Outcome {
	if i := c.indexOf(p.ID); i >= 0 {
		if c.kind == KindWishlist || c.items[i].Quantity >= MaxQuantity {
			return OutcomeUnchanged
		}
		c.items[i].Quantity++
		return OutcomeIncremented
	}
	c.items = append(c.items, ItemFromProduct(p))
	return OutcomeAdded
}

// Remove deletes productID, keeping the order of the remaining items.
func (c *Collection) Remove(productID string) Outcome {
	i := c.indexOf(productID)
	if i < 0 {
		return OutcomeAbsent
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return OutcomeRemoved
}

// SetQuantity sets the cart quantity of productID to exactly n. n below 1
// removes the item; n above MaxQuantity is rejected.
func (c *Collection) SetQuantity(productID string, n int) (Outcome, error) {
	if c.kind != KindCart {
		return "", apperrors.Unsupported("set quantity", string(c.kind))
	}
	if n > MaxQuantity {
		return "", apperrors.InvalidInput(fmt.Sprintf("quantity must be at most %d", MaxQuantity))
	}
	if n < 1 {
		return c.Remove(productID), nil
	}
	i := c.indexOf(productID)
	if i < 0 {
		return OutcomeAbsent, nil
	}
	if c.items[i].Quantity == n {
		return OutcomeUnchanged, nil
	}
	c.items[i].Quantity = n
	return OutcomeUpdated, nil
}

// Toggle flips wishlist membership of p.
func (c *Collection) Toggle(p catalog.Product) (Outcome, error) {
	if c.kind != KindWishlist {
		return "", apperrors.Unsupported("toggle", string(c.kind))
	}
	if c.Contains(p.ID) {
		return c.Remove(p.ID), nil
	}
	return c.Add(p), nil
}

// Clear empties the collection.
func (c *Collection) Clear() Outcome {
	c.items = []LineItem{}
	return OutcomeCleared
}

// TotalItemCount is the sum of quantities. For a wishlist that equals the
// number of entries.
func (c *Collection) TotalItemCount() int {
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the flat sum of price times quantity.
func (c *Collection) TotalPrice() int64 {
	var total int64
	for _, it := range c.items {
		total += it.LineTotal()
	}
	return total
}

func (c *Collection) indexOf(productID string) int {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
