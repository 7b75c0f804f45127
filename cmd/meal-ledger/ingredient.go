package main

import (
	"fmt"
	"strings"

	"meal-ledger/internal/catalog"

	"github.com/shopspring/decimal"
)

// parseIngredient reads "name:unit:quantity". The name may itself contain
// colons; unit and quantity are taken from the right.
func parseIngredient(s string) (catalog.IngredientInput, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return catalog.IngredientInput{}, fmt.Errorf("ingredient %q must be name:unit:quantity", s)
	}
	n := len(parts)
	q, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(parts[n-1]), ",", "."))
	if err != nil {
		return catalog.IngredientInput{}, fmt.Errorf("invalid quantity in %q: %w", s, err)
	}
	return catalog.IngredientInput{
		Name:     strings.TrimSpace(strings.Join(parts[:n-2], ":")),
		Unit:     strings.TrimSpace(parts[n-2]),
		Quantity: q,
	}, nil
}
