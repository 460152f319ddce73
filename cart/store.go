// Package cart owns the server-synced cart: a list of line items replaced
// wholesale on every successful fetch or mutation response. The client holds
// no merge logic of its own.
package cart

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"shopfront/model"
	"shopfront/transport"
)

const (
	addPath    = "carts/addtocart"
	updatePath = "carts/updateCart/%s"
	removePath = "carts/deleteProduct/%s"
	getPath    = "carts/getcarts"
)

type Store struct {
	api transport.Doer
	log zerolog.Logger

	mu   sync.Mutex
	cart model.Cart
}

type Option func(*Store)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func New(api transport.Doer, opts ...Option) *Store {
	s := &Store{
		api: api,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddToCart posts a new line item and replaces local state with the backend's
// response. Failures carry the backend payload for display.
func (s *Store) AddToCart(ctx context.Context, productID string, quantity int) (*model.Cart, error) {
	body := struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}{ProductID: productID, Quantity: quantity}

	var cart model.Cart
	if err := s.api.Do(ctx, http.MethodPost, addPath, body, &cart); err != nil {
		return nil, err
	}
	s.replace(cart)
	return &cart, nil
}

// UpdateQuantity sets a line item's quantity. Quantities below 1 are silently
// ignored: no network call is issued and local state is untouched.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return nil
	}

	body := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}

	var cart model.Cart
	if err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf(updatePath, productID), body, &cart); err != nil {
		return err
	}
	s.replace(cart)
	return nil
}

// RemoveFromCart deletes a line item and returns the removed productID,
// independent of the response body shape.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) (string, error) {
	var cart model.Cart
	if err := s.api.Do(ctx, http.MethodDelete, fmt.Sprintf(removePath, productID), nil, &cart); err != nil {
		return "", err
	}
	s.replace(cart)
	return productID, nil
}

// Refresh fetches the cart and replaces local state wholesale. The backend
// responds with an array wrapping the session's single cart.
func (s *Store) Refresh(ctx context.Context) (*model.Cart, error) {
	var carts []model.Cart
	if err := s.api.Do(ctx, http.MethodGet, getPath, nil, &carts); err != nil {
		return nil, err
	}

	var cart model.Cart
	if len(carts) > 0 {
		cart = carts[0]
	}
	s.replace(cart)
	return &cart, nil
}

// Clear resets the cart locally without a network call, used after logout and
// after order placement.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cart = model.Cart{}
	s.mu.Unlock()
}

// Current returns a snapshot of the local cart state.
func (s *Store) Current() model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.cart
	snapshot.Items = append([]model.CartItem(nil), s.cart.Items...)
	return snapshot
}

func (s *Store) replace(cart model.Cart) {
	s.mu.Lock()
	s.cart = cart
	s.mu.Unlock()
	s.log.Debug().Str("cart_id", cart.ID).Int("items", len(cart.Items)).Msg("cart state replaced")
}
