package model

import "github.com/shopspring/decimal"

// CartItem is one line of a cart. Product is nil when the referenced product
// was deleted server-side; consumers must render a fallback label.
type CartItem struct {
	Product   *ProductSummary `json:"product"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// DisplayName returns the product name or a fallback for deleted products.
func (i CartItem) DisplayName() string {
	if i.Product != nil && i.Product.Name != "" {
		return i.Product.Name
	}
	return "Unavailable product"
}

// Cart is the server-tracked collection of line items, one per session.
// It is always replaced wholesale from backend responses, never merged.
type Cart struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
}
