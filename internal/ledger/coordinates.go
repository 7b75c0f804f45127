package ledger

import (
	"fmt"
	"time"
)

// DateLayout is the dd.mm.yyyy format used when a date defaults to today.
const DateLayout = "02.01.2006"

// Location identifies one of the three parallel consumption locations.
type Location string

const (
	C1 Location = "C1"
	C2 Location = "C2"
	C3 Location = "C3"
)

// Locations lists every location in fan-out order.
var Locations = []Location{C1, C2, C3}

// Coordinates is the scaling context for a recording: person counts per
// location plus the meal slot, regime and date that key ledger entries.
type Coordinates struct {
	C1       int    `json:"c1"`
	C2       int    `json:"c2"`
	C3       int    `json:"c3"`
	MealSlot string `json:"meal_slot"`
	Regime   string `json:"regime"`
	Date     string `json:"date"`
}

// NewCoordinates validates and builds a Coordinates value. An empty date
// becomes now in DateLayout.
func NewCoordinates(c1, c2, c3 int, mealSlot, regime, date string, now time.Time) (Coordinates, error) {
	c := Coordinates{C1: c1, C2: c2, C3: c3, MealSlot: mealSlot, Regime: regime, Date: date}
	return c.Normalize(now)
}

// Normalize fills the default date and validates the result.
func (c Coordinates) Normalize(now time.Time) (Coordinates, error) {
	if c.Date == "" {
		c.Date = now.Format(DateLayout)
	}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

// Validate checks counts are non-negative and every key field is set.
// Meal slot and regime codes are free text.
func (c Coordinates) Validate() error {
	for _, loc := range Locations {
		if c.Persons(loc) < 0 {
			return fmt.Errorf("%w: person count for %s must not be negative", ErrInvalidCoordinates, loc)
		}
	}
	if c.MealSlot == "" {
		return fmt.Errorf("%w: meal slot is required", ErrInvalidCoordinates)
	}
	if c.Regime == "" {
		return fmt.Errorf("%w: regime is required", ErrInvalidCoordinates)
	}
	if c.Date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidCoordinates)
	}
	return nil
}

// Persons returns the person count for loc, or 0 for an unknown location.
func (c Coordinates) Persons(loc Location) int {
	switch loc {
	case C1:
		return c.C1
	case C2:
		return c.C2
	case C3:
		return c.C3
	}
	return 0
}

// Active returns the locations with a positive person count, in fan-out order.
func (c Coordinates) Active() []Location {
	var out []Location
	for _, loc := range Locations {
		if c.Persons(loc) > 0 {
			out = append(out, loc)
		}
	}
	return out
}

// Key builds the composite ledger key for loc.
func (c Coordinates) Key(loc Location) Key {
	return Key{Location: loc, MealSlot: c.MealSlot, Regime: c.Regime, Date: c.Date}
}

func (c Coordinates) String() string {
	return fmt.Sprintf("C1(%d) C2(%d) C3(%d) %s %s %s", c.C1, c.C2, c.C3, c.MealSlot, c.Regime, c.Date)
}
