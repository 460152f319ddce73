package panel

import (
	"context"
	"net/http"
	"net/url"

	"shopfront/model"
	"shopfront/transport"
)

// Console bundles the CRUD panels of the admin console.
type Console struct {
	Users      *Panel[model.UserProfile]
	Categories *Panel[model.Category]
	Products   *Panel[model.Product]
	Reviews    *Panel[model.Review]
	Orders     *OrdersPanel
}

func NewConsole(api transport.Doer) *Console {
	return &Console{
		Users:      New[model.UserProfile](api, "users"),
		Categories: New[model.Category](api, "categories"),
		Products:   New[model.Product](api, "products"),
		Reviews:    New[model.Review](api, "reviews"),
		Orders:     NewOrdersPanel(api),
	}
}

// NewSellerProducts returns the products panel scoped to the calling seller.
func NewSellerProducts(api transport.Doer) *Panel[model.Product] {
	return New[model.Product](api, "seller/products")
}

// OrdersPanel extends the generic panel with the seller-side status
// transition; clients never mutate an order body directly.
type OrdersPanel struct {
	*Panel[model.Order]
	api transport.Doer
}

func NewOrdersPanel(api transport.Doer) *OrdersPanel {
	return &OrdersPanel{
		Panel: New[model.Order](api, "orders"),
		api:   api,
	}
}

// UpdateStatus requests an order status transition and returns the
// server-confirmed order.
func (p *OrdersPanel) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (model.Order, error) {
	body := struct {
		Status model.OrderStatus `json:"status"`
	}{Status: status}

	var order model.Order
	if err := p.api.Do(ctx, http.MethodPut, "orders/"+url.PathEscape(id)+"/status", body, &order); err != nil {
		return model.Order{}, err
	}
	p.refetch(ctx)
	return order, nil
}
