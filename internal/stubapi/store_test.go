package stubapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/model"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	require.NoError(t, Seed(store))
	return store
}

func buyerID(t *testing.T, store *Store) string {
	t.Helper()
	profile, _, err := store.AccountByEmail("buyer@shopfront.test")
	require.NoError(t, err)
	return profile.ID
}

func productNamed(t *testing.T, store *Store, name string) model.Product {
	t.Helper()
	page := store.ListProducts(1, 50, ProductFilter{Query: name})
	require.NotEmpty(t, page.Items, "seed product %q", name)
	return page.Items[0]
}

func TestCreateOrderAppliesCouponAndTax(t *testing.T) {
	store := seededStore(t)
	buyer := buyerID(t, store)
	earbuds := productNamed(t, store, "Wireless Earbuds")

	cart, err := store.AddCartItem(buyer, earbuds.ID, 2)
	require.NoError(t, err)

	order, err := store.CreateOrder(buyer, cart.ID, "WELCOME10", "1 Main St")
	require.NoError(t, err)

	// 59.98 - 10% = 53.98, + 8% tax (4.32) = 58.30
	assert.Equal(t, "58.30", order.Total.StringFixed(2))
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, "WELCOME10", order.CouponCode)
	require.Len(t, order.Items, 1)

	assert.Empty(t, store.CartForUser(buyer).Items, "order consumes the cart")

	restocked, _ := store.ProductByID(earbuds.ID)
	assert.Equal(t, earbuds.Stock-2, restocked.Stock)
}

func TestCreateOrderRejectsInvalidCoupon(t *testing.T) {
	store := seededStore(t)
	buyer := buyerID(t, store)
	earbuds := productNamed(t, store, "Wireless Earbuds")

	cart, err := store.AddCartItem(buyer, earbuds.ID, 1)
	require.NoError(t, err)

	_, err = store.CreateOrder(buyer, cart.ID, "BOGUS", "")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
	assert.Len(t, store.CartForUser(buyer).Items, 1, "cart untouched")
}

func TestCreateOrderRequiresNonEmptyCart(t *testing.T) {
	store := seededStore(t)
	buyer := buyerID(t, store)
	cart := store.CartForUser(buyer)

	_, err := store.CreateOrder(buyer, cart.ID, "", "")
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestAddCartItemChecksStock(t *testing.T) {
	store := seededStore(t)
	buyer := buyerID(t, store)
	book := productNamed(t, store, "Go Programming")

	_, err := store.AddCartItem(buyer, book.ID, book.Stock+1)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestCartResolvesDeletedProductToNilSummary(t *testing.T) {
	store := seededStore(t)
	buyer := buyerID(t, store)
	charger := productNamed(t, store, "USB-C Charger")

	_, err := store.AddCartItem(buyer, charger.ID, 1)
	require.NoError(t, err)
	require.NoError(t, store.DeleteProduct(charger.ID))

	cart := store.CartForUser(buyer)
	require.Len(t, cart.Items, 1)
	assert.Nil(t, cart.Items[0].Product)
	assert.Equal(t, "Unavailable product", cart.Items[0].DisplayName())
}

func TestOrderTransitions(t *testing.T) {
	store := seededStore(t)
	buyer := buyerID(t, store)
	earbuds := productNamed(t, store, "Wireless Earbuds")

	cart, err := store.AddCartItem(buyer, earbuds.ID, 1)
	require.NoError(t, err)
	order, err := store.CreateOrder(buyer, cart.ID, "", "")
	require.NoError(t, err)

	order, err = store.TransitionOrder(order.ID, model.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)

	_, err = store.TransitionOrder(order.ID, model.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrBadTransition, "paid cannot jump to delivered")

	order, err = store.TransitionOrder(order.ID, model.OrderStatusShipped)
	require.NoError(t, err)
	order, err = store.TransitionOrder(order.ID, model.OrderStatusDelivered)
	require.NoError(t, err)

	_, err = store.TransitionOrder(order.ID, model.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrBadTransition, "delivered is terminal")
}

func TestRotateSessionRejectsWrongToken(t *testing.T) {
	store := seededStore(t)
	buyer := buyerID(t, store)

	sessionID := store.CreateSession(buyer, []byte("hash-a"), time.Hour)

	_, err := store.RotateSession(sessionID, []byte("hash-b"), []byte("hash-c"), time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)

	userID, err := store.RotateSession(sessionID, []byte("hash-a"), []byte("hash-c"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, buyer, userID)

	_, err = store.RotateSession(sessionID, []byte("hash-a"), []byte("hash-d"), time.Hour)
	assert.ErrorIs(t, err, ErrNotFound, "the previous token is spent after rotation")
}

func TestJanitorPurges(t *testing.T) {
	store := seededStore(t)
	buyer := buyerID(t, store)
	earbuds := productNamed(t, store, "Wireless Earbuds")

	store.CreateSession(buyer, []byte("hash"), time.Minute)
	_, err := store.AddCartItem(buyer, earbuds.ID, 1)
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	assert.Equal(t, 1, store.PurgeExpiredSessions())
	assert.Equal(t, 1, store.PurgeStaleCarts(24*time.Hour))
	assert.Empty(t, store.CartForUser(buyer).Items)
}

func TestCreateAccountRejectsDuplicateEmail(t *testing.T) {
	store := seededStore(t)

	_, err := store.CreateAccount("Other Buyer", "BUYER@shopfront.test", []byte("hash"), model.UserRoleBuyer)
	assert.ErrorIs(t, err, ErrEmailTaken, "emails are case-insensitive")
}

func TestPaginate(t *testing.T) {
	store := seededStore(t)

	page := store.ListProducts(1, 3, ProductFilter{})
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 4, page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	page = store.ListProducts(2, 3, ProductFilter{})
	assert.Len(t, page.Items, 1)

	page = store.ListProducts(9, 3, ProductFilter{})
	assert.Empty(t, page.Items, "past-the-end pages are empty, not an error")
}
