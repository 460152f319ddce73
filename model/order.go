package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is created server-side from a cart snapshot. Clients never mutate an
// order directly; they request creation (buyer) or status transitions (seller).
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []CartItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	CouponCode      string          `json:"couponCode,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}
