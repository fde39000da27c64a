package domain

import "time"

const EventOrderPlaced = "order.placed"

type OrderPlacedEvent struct {
	EventID    string      `json:"event_id"`
	OrderID    int64       `json:"order_id"`
	CustomerID *int64      `json:"customer_id"`
	TotalPrice Money       `json:"total_price"`
	Items      []OrderItem `json:"items"`
	Source     string      `json:"source"`
	Timestamp  time.Time   `json:"timestamp"`
}

// FarmerIDs returns the distinct farmers whose crops appear in the event, in item order.
func (e OrderPlacedEvent) FarmerIDs() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, item := range e.Items {
		if !seen[item.FarmerID] {
			seen[item.FarmerID] = true
			ids = append(ids, item.FarmerID)
		}
	}
	return ids
}
