package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/model"
	"shopfront/transport"
)

type doerFunc func(ctx context.Context, method, path string, body any, out any) error

func (f doerFunc) Do(ctx context.Context, method, path string, body any, out any) error {
	return f(ctx, method, path, body, out)
}

func noNetwork(t *testing.T) transport.Doer {
	t.Helper()
	return doerFunc(func(ctx context.Context, method, path string, body any, out any) error {
		t.Fatalf("unexpected %s %s", method, path)
		return nil
	})
}

func serverCart() model.Cart {
	return model.Cart{
		ID: "cart-1",
		Items: []model.CartItem{{
			Product:   &model.ProductSummary{ID: "p1", Name: "Wireless Earbuds"},
			ProductID: "p1",
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("29.99"),
		}},
	}
}

func TestAddToCartReplacesLocalState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/"+addPath, r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["productId"])
		assert.Equal(t, float64(2), body["quantity"])

		_ = json.NewEncoder(w).Encode(serverCart())
	}))
	defer server.Close()

	store := New(transport.NewClient(server.URL, transport.NewCookieStore()))

	got, err := store.AddToCart(context.Background(), "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, "cart-1", got.ID)

	current := store.Current()
	require.Len(t, current.Items, 1)
	assert.Equal(t, 2, current.Items[0].Quantity)
}

func TestAddToCartKeepsStateOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"insufficient stock"}`))
	}))
	defer server.Close()

	store := New(transport.NewClient(server.URL, transport.NewCookieStore()))
	store.replace(serverCart())

	_, err := store.AddToCart(context.Background(), "p2", 100)
	require.True(t, transport.IsStatus(err, http.StatusConflict))
	assert.Len(t, store.Current().Items, 1, "local state untouched on failure")
}

func TestUpdateQuantitySendsPut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/carts/updateCart/p1", r.URL.Path)

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3, body["quantity"])

		updated := serverCart()
		updated.Items[0].Quantity = 3
		_ = json.NewEncoder(w).Encode(updated)
	}))
	defer server.Close()

	store := New(transport.NewClient(server.URL, transport.NewCookieStore()))

	require.NoError(t, store.UpdateQuantity(context.Background(), "p1", 3))
	assert.Equal(t, 3, store.Current().Items[0].Quantity)
}

func TestUpdateQuantityBelowOneIsSilentNoOp(t *testing.T) {
	store := New(noNetwork(t))
	store.replace(serverCart())

	require.NoError(t, store.UpdateQuantity(context.Background(), "p1", 0))
	require.NoError(t, store.UpdateQuantity(context.Background(), "p1", -5))

	assert.Equal(t, 2, store.Current().Items[0].Quantity, "state unchanged")
}

func TestRemoveFromCartReturnsProductID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/carts/deleteProduct/p1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(model.Cart{ID: "cart-1"})
	}))
	defer server.Close()

	store := New(transport.NewClient(server.URL, transport.NewCookieStore()))
	store.replace(serverCart())

	removed, err := store.RemoveFromCart(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", removed, "echoes the requested product, not the response body")
	assert.Empty(t, store.Current().Items)
}

func TestRefreshUnwrapsCartArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/"+getPath, r.URL.Path)
		_ = json.NewEncoder(w).Encode([]model.Cart{serverCart()})
	}))
	defer server.Close()

	store := New(transport.NewClient(server.URL, transport.NewCookieStore()))

	got, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cart-1", got.ID)
	require.Len(t, store.Current().Items, 1)
}

func TestRefreshWithNoCartsResetsState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	store := New(transport.NewClient(server.URL, transport.NewCookieStore()))
	store.replace(serverCart())

	got, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.ID)
	assert.Empty(t, store.Current().Items)
}

func TestClearIsLocalOnly(t *testing.T) {
	store := New(noNetwork(t))
	store.replace(serverCart())

	store.Clear()
	assert.Empty(t, store.Current().Items)
}

func TestCurrentReturnsSnapshot(t *testing.T) {
	store := New(noNetwork(t))
	store.replace(serverCart())

	snapshot := store.Current()
	snapshot.Items[0].Quantity = 99

	assert.Equal(t, 2, store.Current().Items[0].Quantity)
}
