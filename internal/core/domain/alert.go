package domain

import "time"

// LowStockAlert is published when a mutation leaves an item below the
// current threshold.
type LowStockAlert struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
	At        time.Time `json:"at"`
}
