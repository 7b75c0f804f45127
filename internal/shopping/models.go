package shopping

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is one consolidated line of a shopping list, identified by ingredient and unit.
type Row struct {
	Ingredient string          `json:"ingredient"`
	Unit       string          `json:"unit"`
	Total      decimal.Decimal `json:"total"`
}

// ShoppingList represents the aggregated ingredients needed for a date.
type ShoppingList struct {
	ID        int64     `json:"id,omitempty"`
	Date      string    `json:"date"`
	Rows      []Row     `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}
