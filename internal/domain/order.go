package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusProcessed OrderStatus = "processed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusProcessed, OrderStatusCancelled},
	OrderStatusProcessed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ID        int64  `json:"order_item_id"`
	CropID    int64  `json:"crop_id"`
	Name      string `json:"name"`
	FarmerID  int64  `json:"farmer_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
	LineTotal Money  `json:"line_total"`
}

type Order struct {
	ID         int64       `json:"order_id"`
	CustomerID *int64      `json:"customer_id"`
	TotalPrice Money       `json:"total_price"`
	Status     OrderStatus `json:"order_status"`
	CreatedAt  time.Time   `json:"created_at"`
	Items      []OrderItem `json:"items"`
}

// OrderTotal sums quantity × unit price over all items and rounds once,
// so per-line rounding never leaks into the stored total.
func OrderTotal(items []OrderItem) Money {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return NewMoney(total)
}

// ItemInput is one requested line of an explicitly created or replaced order.
type ItemInput struct {
	CropID   int64 `json:"crop_id"`
	Quantity int   `json:"quantity"`
}
