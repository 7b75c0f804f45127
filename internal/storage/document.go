package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"meal-ledger/internal/catalog"
	"meal-ledger/internal/ledger"

	"github.com/shopspring/decimal"
)

// Catalog document:
//
//	{"<food>": {"<ingredient id>": {"ingredient": ..., "unit": ..., "quantity": ...}}}
//
// Ledger document:
//
//	{"<location>_<meal>_<regime>_<date>": {"<food>": {"persons": N, "ingredients": [...]}}}
//
// Objects are written and read in insertion order.

type ingredientDoc struct {
	Ingredient string          `json:"ingredient"`
	Unit       string          `json:"unit"`
	Quantity   decimal.Decimal `json:"quantity"`
}

type usageIngredientDoc struct {
	Index             int             `json:"index"`
	Ingredient        string          `json:"ingredient"`
	Unit              string          `json:"unit"`
	QuantityPerPerson decimal.Decimal `json:"quantity_per_person"`
	QuantityTotal     decimal.Decimal `json:"quantity_total"`
}

type usageDoc struct {
	Persons     int                  `json:"persons"`
	Ingredients []usageIngredientDoc `json:"ingredients"`
}

// EncodeCatalog serializes the foods into a catalog document.
func EncodeCatalog(foods []catalog.Food) ([]byte, error) {
	doc := make(object, 0, len(foods))
	for _, f := range foods {
		ings := make(object, 0, len(f.Ingredients))
		for _, ing := range f.Ingredients {
			ings = append(ings, member{key: ing.ID, value: ingredientDoc{
				Ingredient: ing.Name,
				Unit:       ing.Unit,
				Quantity:   ing.Quantity,
			}})
		}
		doc = append(doc, member{key: f.Name, value: ings})
	}
	return marshalIndent(doc)
}

// DecodeCatalog parses a catalog document. Empty input yields no foods.
func DecodeCatalog(data []byte) ([]catalog.Food, error) {
	var foods []catalog.Food
	err := decodeDocument(data, func(dec *json.Decoder, name string) error {
		food := catalog.Food{Name: name, Ingredients: []catalog.Ingredient{}}
		ids := make(map[string]struct{})
		err := readObject(dec, func(id string) error {
			if _, dup := ids[id]; dup {
				return fmt.Errorf("duplicate ingredient id %q in %q", id, name)
			}
			ids[id] = struct{}{}

			var in ingredientDoc
			if err := dec.Decode(&in); err != nil {
				return fmt.Errorf("failed to decode ingredient %q of %q: %w", id, name, err)
			}
			food.Ingredients = append(food.Ingredients, catalog.Ingredient{
				ID:       id,
				Name:     in.Ingredient,
				Unit:     in.Unit,
				Quantity: in.Quantity,
			})
			return nil
		})
		if err != nil {
			return err
		}
		foods = append(foods, food)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog document: %w", err)
	}
	return foods, nil
}

// EncodeLedger serializes the entries into a ledger document.
func EncodeLedger(entries []ledger.Entry) ([]byte, error) {
	doc := make(object, 0, len(entries))
	for _, e := range entries {
		usages := make(object, 0, len(e.Usages))
		for _, u := range e.Usages {
			ud := usageDoc{Persons: u.Persons, Ingredients: make([]usageIngredientDoc, 0, len(u.Ingredients))}
			for i, ing := range u.Ingredients {
				ud.Ingredients = append(ud.Ingredients, usageIngredientDoc{
					Index:             i,
					Ingredient:        ing.Name,
					Unit:              ing.Unit,
					QuantityPerPerson: ing.PerPerson,
					QuantityTotal:     ing.Total,
				})
			}
			usages = append(usages, member{key: u.Food, value: ud})
		}
		doc = append(doc, member{key: e.Key.String(), value: usages})
	}
	return marshalIndent(doc)
}

// DecodeLedger parses a ledger document. Empty input yields no entries.
func DecodeLedger(data []byte) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	err := decodeDocument(data, func(dec *json.Decoder, rawKey string) error {
		key, err := ledger.ParseKey(rawKey)
		if err != nil {
			return err
		}
		entry := ledger.Entry{Key: key, Usages: []ledger.FoodUsage{}}
		err = readObject(dec, func(food string) error {
			var ud usageDoc
			if err := dec.Decode(&ud); err != nil {
				return fmt.Errorf("failed to decode usage %q under %s: %w", food, rawKey, err)
			}
			usage := ledger.FoodUsage{Food: food, Persons: ud.Persons, Ingredients: make([]ledger.UsageIngredient, 0, len(ud.Ingredients))}
			for _, ing := range ud.Ingredients {
				usage.Ingredients = append(usage.Ingredients, ledger.UsageIngredient{
					Name:      ing.Ingredient,
					Unit:      ing.Unit,
					PerPerson: ing.QuantityPerPerson,
					Total:     ing.QuantityTotal,
				})
			}
			entry.Usages = append(entry.Usages, usage)
			return nil
		})
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode ledger document: %w", err)
	}
	return entries, nil
}

// member is one key/value pair of an ordered JSON object. value is either a
// nested object or anything encoding/json can marshal.
type member struct {
	key   string
	value any
}

type object []member

func marshalIndent(doc object) ([]byte, error) {
	var raw bytes.Buffer
	if err := writeObject(&raw, doc); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, obj object) error {
	buf.WriteByte('{')
	for i, m := range obj {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return fmt.Errorf("failed to marshal key %q: %w", m.key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')

		if nested, ok := m.value.(object); ok {
			if err := writeObject(buf, nested); err != nil {
				return err
			}
			continue
		}
		v, err := json.Marshal(m.value)
		if err != nil {
			return fmt.Errorf("failed to marshal value of %q: %w", m.key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}

// decodeDocument walks the top-level object of data, calling fn for each
// member with the decoder positioned at the member's value.
func decodeDocument(data []byte, fn func(dec *json.Decoder, key string) error) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := readObject(dec, func(key string) error { return fn(dec, key) }); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after document")
	}
	return nil
}

func readObject(dec *json.Decoder, fn func(key string) error) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
