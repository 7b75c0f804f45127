package ledger

import (
	"fmt"
	"strings"
)

const (
	keyDelimiter = '_'
	keyEscape    = '\\'
)

// Key identifies a ledger entry. Two keys are equal when all four fields are.
type Key struct {
	Location Location `json:"location"`
	MealSlot string   `json:"meal_slot"`
	Regime   string   `json:"regime"`
	Date     string   `json:"date"`
}

// String joins the fields with '_'. Delimiters and backslashes inside a field
// are escaped, so ParseKey(k.String()) == k for every key.
func (k Key) String() string {
	fields := []string{string(k.Location), k.MealSlot, k.Regime, k.Date}
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(keyDelimiter)
		}
		for _, r := range f {
			if r == keyDelimiter || r == keyEscape {
				sb.WriteByte(keyEscape)
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ParseKey reverses Key.String.
func ParseKey(s string) (Key, error) {
	var (
		fields  []string
		current strings.Builder
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == keyEscape:
			escaped = true
		case r == keyDelimiter:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		return Key{}, fmt.Errorf("%w: dangling escape in %q", ErrInvalidKey, s)
	}
	fields = append(fields, current.String())
	if len(fields) != 4 {
		return Key{}, fmt.Errorf("%w: expected 4 fields in %q, got %d", ErrInvalidKey, s, len(fields))
	}
	return Key{
		Location: Location(fields[0]),
		MealSlot: fields[1],
		Regime:   fields[2],
		Date:     fields[3],
	}, nil
}
