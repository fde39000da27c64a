package domain

import "time"

type Crop struct {
	ID          int64     `json:"crop_id"`
	FarmerID    int64     `json:"farmer_id"`
	Name        string    `json:"name"`
	Categories  string    `json:"categories,omitempty"`
	Price       Money     `json:"price"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}
