package ledger

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{"key", "food", "persons", "ingredient", "unit", "quantity_per_person", "quantity_total"}

// WriteCSV writes one row per recorded ingredient of entries. A usage with
// no ingredients still gets a row so the food and persons are kept.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		key := e.Key.String()
		for _, u := range e.Usages {
			persons := strconv.Itoa(u.Persons)
			if len(u.Ingredients) == 0 {
				if err := cw.Write([]string{key, u.Food, persons, "", "", "", ""}); err != nil {
					return err
				}
				continue
			}
			for _, ing := range u.Ingredients {
				row := []string{key, u.Food, persons, ing.Name, ing.Unit, ing.PerPerson.String(), ing.Total.String()}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
