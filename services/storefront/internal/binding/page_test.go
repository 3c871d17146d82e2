package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/catalog"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
)

func TestParsePage(t *testing.T) {
	for _, name := range []string{"home", "shop", "gallery", "contact"} {
		p, ok := ParsePage(name)
		assert.True(t, ok, name)
		assert.True(t, p.Capabilities().NavBadges, name)
	}

	_, ok := ParsePage("checkout")
	assert.False(t, ok)
	assert.Equal(t, Capabilities{}, Page("checkout").Capabilities())
}

func TestPage_Compose(t *testing.T) {
	cart := Project(cartWith(t, "1"))
	w := domain.NewCollection(domain.KindWishlist)
	p, _ := catalog.Default().Lookup("7")
	w.Add(p)
	wish := Project(w)

	shop := PageShop.Compose(cart, wish)
	require.NotNil(t, shop.CartBadge)
	require.NotNil(t, shop.WishBadge)
	assert.Equal(t, 1, shop.CartBadge.Count)
	assert.Equal(t, 1, shop.WishBadge.Count)
	assert.Equal(t, []string{"7"}, shop.Wishlisted)
	require.NotNil(t, shop.CartPanel)
	assert.Equal(t, int64(8999), shop.CartPanel.Total)

	gallery := PageGallery.Compose(cart, wish)
	assert.NotNil(t, gallery.CartBadge)
	assert.Nil(t, gallery.Wishlisted, "gallery has no product cards")

	unknown := Page("nope").Compose(cart, wish)
	assert.Nil(t, unknown.CartBadge)
	assert.Nil(t, unknown.CartPanel)
}
