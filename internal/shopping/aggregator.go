package shopping

import (
	"time"

	"meal-ledger/internal/ledger"
)

// EntrySource is anything that can be scanned for ledger entries.
type EntrySource interface {
	Find(match ledger.Matcher) []ledger.Entry
}

type rowKey struct {
	ingredient string
	unit       string
}

// BuildShoppingList sums ingredient totals over every entry on date, across
// all locations, meal slots and regimes. Rows are merged on exact
// (ingredient, unit) and kept in first-seen order.
func BuildShoppingList(source EntrySource, date string) ShoppingList {
	return Aggregate(source.Find(ledger.MatchDate(date)), date)
}

// Aggregate merges the ingredient rows of entries whose date equals date.
func Aggregate(entries []ledger.Entry, date string) ShoppingList {
	list := ShoppingList{Date: date, Rows: []Row{}, CreatedAt: time.Now().UTC()}
	positions := make(map[rowKey]int)

	for _, entry := range entries {
		if entry.Key.Date != date {
			continue
		}
		for _, usage := range entry.Usages {
			for _, ing := range usage.Ingredients {
				k := rowKey{ingredient: ing.Name, unit: ing.Unit}
				if i, ok := positions[k]; ok {
					list.Rows[i].Total = list.Rows[i].Total.Add(ing.Total)
					continue
				}
				positions[k] = len(list.Rows)
				list.Rows = append(list.Rows, Row{Ingredient: ing.Name, Unit: ing.Unit, Total: ing.Total})
			}
		}
	}
	return list
}
