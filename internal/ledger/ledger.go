package ledger

import (
	"errors"
	"fmt"

	"meal-ledger/internal/catalog"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoActivePersons is returned when no location has a positive person count.
	ErrNoActivePersons = errors.New("no persons at any consumption location")
	// ErrDuplicateUsage is reported per location when the food is already recorded under that key.
	ErrDuplicateUsage = errors.New("food already recorded for these coordinates")
	// ErrInvalidCoordinates is returned for negative counts or missing key fields.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrInvalidKey is returned when a persisted key cannot be parsed.
	ErrInvalidKey = errors.New("invalid ledger key")
	// ErrDuplicateEntry is returned when restoring two entries with the same key.
	ErrDuplicateEntry = errors.New("duplicate ledger entry")
	// ErrEntryNotFound is returned when no entry or usage matches.
	ErrEntryNotFound = errors.New("ledger entry not found")
)

// UsageIngredient is an ingredient row frozen at recording time.
type UsageIngredient struct {
	Name      string          `json:"ingredient"`
	Unit      string          `json:"unit"`
	PerPerson decimal.Decimal `json:"quantity_per_person"`
	Total     decimal.Decimal `json:"quantity_total"`
}

// FoodUsage records one food served at one location. It copies the food's
// ingredients, so later catalog edits do not change it.
type FoodUsage struct {
	Food        string            `json:"food"`
	Persons     int               `json:"persons"`
	Ingredients []UsageIngredient `json:"ingredients"`
}

// Entry holds the usages recorded under one composite key.
type Entry struct {
	Key    Key         `json:"key"`
	Usages []FoodUsage `json:"usages"`
}

// Limits bounds the ledger. Zero means unbounded.
type Limits struct {
	MaxEntries             int
	MaxUsagesPerEntry      int
	MaxIngredientsPerUsage int
}

// LocationResult is the outcome of recording a food at one location.
type LocationResult struct {
	Location Location   `json:"location"`
	Persons  int        `json:"persons"`
	Key      Key        `json:"key"`
	Usage    *FoodUsage `json:"usage,omitempty"`
	Err      error      `json:"-"`
}

// Outcome collects the per-location results of a Record call.
type Outcome struct {
	Food    string           `json:"food"`
	Results []LocationResult `json:"results"`
}

// Recorded returns how many locations received the food.
func (o Outcome) Recorded() int {
	n := 0
	for _, r := range o.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Partial reports whether some locations succeeded and some failed.
func (o Outcome) Partial() bool {
	n := o.Recorded()
	return n > 0 && n < len(o.Results)
}

// Matcher selects entries by key.
type Matcher func(Key) bool

// MatchActive selects entries shown for the current coordinates: the
// location has persons and meal slot, regime and date are equal.
func MatchActive(c Coordinates) Matcher {
	return func(k Key) bool {
		return c.Persons(k.Location) > 0 &&
			k.MealSlot == c.MealSlot &&
			k.Regime == c.Regime &&
			k.Date == c.Date
	}
}

// MatchDate selects every entry on date regardless of location, meal slot or regime.
func MatchDate(date string) Matcher {
	return func(k Key) bool {
		return k.Date == date
	}
}

// Ledger is the set of consumption entries, kept in creation order.
type Ledger struct {
	entries []*Entry
	index   map[Key]*Entry
	limits  Limits
}

// New creates an empty Ledger.
func New(limits Limits) *Ledger {
	return &Ledger{index: make(map[Key]*Entry), limits: limits}
}

// Restore rebuilds a ledger from persisted entries.
func Restore(entries []Entry, limits Limits) (*Ledger, error) {
	l := New(limits)
	for _, e := range entries {
		if _, ok := l.index[e.Key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Key)
		}
		if limits.MaxEntries > 0 && len(l.entries) >= limits.MaxEntries {
			return nil, &catalog.CapacityError{Resource: "ledger entries", Limit: limits.MaxEntries}
		}
		if limits.MaxUsagesPerEntry > 0 && len(e.Usages) > limits.MaxUsagesPerEntry {
			return nil, &catalog.CapacityError{Resource: "foods per ledger entry", Limit: limits.MaxUsagesPerEntry}
		}
		seen := make(map[string]struct{}, len(e.Usages))
		for _, u := range e.Usages {
			if _, dup := seen[u.Food]; dup {
				return nil, fmt.Errorf("%q under %s: %w", u.Food, e.Key, ErrDuplicateUsage)
			}
			seen[u.Food] = struct{}{}
		}
		cp := cloneEntry(e)
		l.entries = append(l.entries, &cp)
		l.index[cp.Key] = &cp
	}
	return l, nil
}

// Record fans food out to every location with a positive person count,
// scaling each ingredient by that location's persons. A location that already
// has the food under its key is skipped and reported; the others proceed.
// The returned error is nil when at least one location was recorded.
func (l *Ledger) Record(food catalog.Food, coords Coordinates) (Outcome, error) {
	active := coords.Active()
	if len(active) == 0 {
		return Outcome{}, ErrNoActivePersons
	}
	if err := coords.Validate(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Food: food.Name}
	var errs []error
	for _, loc := range active {
		res := LocationResult{Location: loc, Persons: coords.Persons(loc), Key: coords.Key(loc)}
		usage, err := l.recordAt(res.Key, food, res.Persons)
		if err != nil {
			res.Err = err
			errs = append(errs, fmt.Errorf("%s: %w", loc, err))
		} else {
			res.Usage = &usage
		}
		out.Results = append(out.Results, res)
	}

	if out.Recorded() == 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

func (l *Ledger) recordAt(key Key, food catalog.Food, persons int) (FoodUsage, error) {
	entry := l.index[key]
	if entry != nil {
		for _, u := range entry.Usages {
			if u.Food == food.Name {
				return FoodUsage{}, ErrDuplicateUsage
			}
		}
		if l.limits.MaxUsagesPerEntry > 0 && len(entry.Usages) >= l.limits.MaxUsagesPerEntry {
			return FoodUsage{}, &catalog.CapacityError{Resource: "foods per ledger entry", Limit: l.limits.MaxUsagesPerEntry}
		}
	} else if l.limits.MaxEntries > 0 && len(l.entries) >= l.limits.MaxEntries {
		return FoodUsage{}, &catalog.CapacityError{Resource: "ledger entries", Limit: l.limits.MaxEntries}
	}
	if l.limits.MaxIngredientsPerUsage > 0 && len(food.Ingredients) > l.limits.MaxIngredientsPerUsage {
		return FoodUsage{}, &catalog.CapacityError{Resource: "ingredients per usage", Limit: l.limits.MaxIngredientsPerUsage}
	}

	usage := newUsage(food, persons)
	if entry == nil {
		entry = &Entry{Key: key}
		l.entries = append(l.entries, entry)
		l.index[key] = entry
	}
	entry.Usages = append(entry.Usages, usage)
	return cloneUsage(usage), nil
}

func newUsage(food catalog.Food, persons int) FoodUsage {
	n := decimal.NewFromInt(int64(persons))
	usage := FoodUsage{
		Food:        food.Name,
		Persons:     persons,
		Ingredients: make([]UsageIngredient, 0, len(food.Ingredients)),
	}
	for _, ing := range food.Ingredients {
		usage.Ingredients = append(usage.Ingredients, UsageIngredient{
			Name:      ing.Name,
			Unit:      ing.Unit,
			PerPerson: ing.Quantity,
			Total:     ing.Quantity.Mul(n),
		})
	}
	return usage
}

// Find returns copies of the entries whose key satisfies match, in creation order.
func (l *Ledger) Find(match Matcher) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if match(e.Key) {
			out = append(out, cloneEntry(*e))
		}
	}
	return out
}

// Get returns the entry for key.
func (l *Ledger) Get(key Key) (Entry, bool) {
	e, ok := l.index[key]
	if !ok {
		return Entry{}, false
	}
	return cloneEntry(*e), true
}

// Entries returns copies of all entries in creation order.
func (l *Ledger) Entries() []Entry {
	return l.Find(func(Key) bool { return true })
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// RemoveUsage deletes a recorded food from one entry. An entry left with no
// usages is dropped.
func (l *Ledger) RemoveUsage(key Key, food string) error {
	entry, ok := l.index[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrEntryNotFound)
	}
	for i, u := range entry.Usages {
		if u.Food != food {
			continue
		}
		entry.Usages = append(entry.Usages[:i], entry.Usages[i+1:]...)
		if len(entry.Usages) == 0 {
			l.dropEntry(key)
		}
		return nil
	}
	return fmt.Errorf("%q under %s: %w", food, key, ErrEntryNotFound)
}

// ClearEntry drops an entry together with every usage recorded under it.
func (l *Ledger) ClearEntry(key Key) (int, error) {
	entry, ok := l.index[key]
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, ErrEntryNotFound)
	}
	n := len(entry.Usages)
	l.dropEntry(key)
	return n, nil
}

func (l *Ledger) dropEntry(key Key) {
	delete(l.index, key)
	for i, e := range l.entries {
		if e.Key == key {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy sharing no state with l.
func (l *Ledger) Clone() *Ledger {
	out := New(l.limits)
	for _, e := range l.entries {
		cp := cloneEntry(*e)
		out.entries = append(out.entries, &cp)
		out.index[cp.Key] = &cp
	}
	return out
}

func cloneEntry(e Entry) Entry {
	out := Entry{Key: e.Key, Usages: make([]FoodUsage, 0, len(e.Usages))}
	for _, u := range e.Usages {
		out.Usages = append(out.Usages, cloneUsage(u))
	}
	return out
}

func cloneUsage(u FoodUsage) FoodUsage {
	out := FoodUsage{Food: u.Food, Persons: u.Persons, Ingredients: make([]UsageIngredient, len(u.Ingredients))}
	copy(out.Ingredients, u.Ingredients)
	return out
}
