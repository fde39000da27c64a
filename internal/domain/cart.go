package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartLine struct {
	CartItemID  int64     `json:"cart_item_id"`
	CropID      int64     `json:"crop_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Price       Money     `json:"price"`
	LineTotal   Money     `json:"line_total"`
	IsAvailable bool      `json:"is_available"`
	FarmerID    int64     `json:"farmer_id"`
	FarmerName  string    `json:"farmer_name,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

type CartSummary struct {
	Items         []CartLine `json:"items"`
	ItemCount     int        `json:"item_count"`
	TotalQuantity int        `json:"total_quantity"`
	Subtotal      Money      `json:"subtotal"`
}

func Summarize(lines []CartLine) CartSummary {
	if lines == nil {
		lines = []CartLine{}
	}
	quantity := 0
	subtotal := decimal.Zero
	for _, l := range lines {
		quantity += l.Quantity
		subtotal = subtotal.Add(l.LineTotal.Decimal)
	}
	return CartSummary{
		Items:         lines,
		ItemCount:     len(lines),
		TotalQuantity: quantity,
		Subtotal:      NewMoney(subtotal),
	}
}
