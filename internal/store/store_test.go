package store_test

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSessionRoundTrip(t *testing.T) {
	st := newStore(t)

	_, ok, err := st.LoadSession()
	require.NoError(t, err)
	require.False(t, ok)

	sess := models.Session{
		Token:    "tok-123",
		UserID:   "alice@example.com",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleMerchant,
		Store:    &models.StoreRef{ID: uuid.New(), Name: "alice's shop"},
	}
	require.NoError(t, st.SaveSession(sess))

	loaded, ok, err := st.LoadSession()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sess, loaded)

	// Saving again overwrites the single row.
	sess.Token = "tok-456"
	sess.Store = nil
	require.NoError(t, st.SaveSession(sess))
	loaded, ok, err = st.LoadSession()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "tok-456", loaded.Token)
	require.Nil(t, loaded.Store)
}

func TestCartRoundTrip(t *testing.T) {
	st := newStore(t)

	items := []models.CartItem{
		{
			ID:                7,
			ProductID:         uuid.New(),
			ProductName:       "boots",
			UnitPrice:         decimal.RequireFromString("59.90"),
			Quantity:          2,
			AvailableQuantity: 5,
		},
	}
	require.NoError(t, st.ReplaceCart(items))

	loaded, err := st.LoadCart()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, items[0].ProductID, loaded[0].ProductID)
	require.Equal(t, uint(2), loaded[0].Quantity)
	require.True(t, loaded[0].UnitPrice.Equal(items[0].UnitPrice))

	require.NoError(t, st.ReplaceCart(nil))
	loaded, err = st.LoadCart()
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestWishlistRoundTrip(t *testing.T) {
	st := newStore(t)

	items := []models.WishlistItem{
		{ProductID: uuid.New(), ProductName: "scarf", UnitPrice: decimal.RequireFromString("19.99")},
	}
	require.NoError(t, st.ReplaceWishlist(items))

	loaded, err := st.LoadWishlist()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, items[0].ProductID, loaded[0].ProductID)
}

func TestLatestOrderRoundTrip(t *testing.T) {
	st := newStore(t)

	_, ok, err := st.LoadLatestOrder()
	require.NoError(t, err)
	require.False(t, ok)

	order := models.LatestOrder{
		OrderID:         uuid.New(),
		Message:         "Order created successfully",
		ShippingAddress: "12 Main St",
		DiscountPrice:   decimal.RequireFromString("5.00"),
	}
	require.NoError(t, st.SaveLatestOrder(order))

	loaded, ok, err := st.LoadLatestOrder()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, order.OrderID, loaded.OrderID)
	require.True(t, loaded.DiscountPrice.Equal(order.DiscountPrice))
}

func TestPurgeDropsEverything(t *testing.T) {
	st := newStore(t)

	require.NoError(t, st.SaveSession(models.Session{Token: "tok", Role: models.RoleCustomer}))
	require.NoError(t, st.ReplaceCart([]models.CartItem{{ID: 1, ProductID: uuid.New(), Quantity: 1}}))
	require.NoError(t, st.ReplaceWishlist([]models.WishlistItem{{ProductID: uuid.New()}}))
	require.NoError(t, st.SaveLatestOrder(models.LatestOrder{OrderID: uuid.New()}))

	require.NoError(t, st.Purge())

	_, ok, err := st.LoadSession()
	require.NoError(t, err)
	require.False(t, ok)

	cart, err := st.LoadCart()
	require.NoError(t, err)
	require.Empty(t, cart)

	wishlist, err := st.LoadWishlist()
	require.NoError(t, err)
	require.Empty(t, wishlist)

	_, ok, err = st.LoadLatestOrder()
	require.NoError(t, err)
	require.False(t, ok)
}
