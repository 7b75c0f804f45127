package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ingredient is one line of a food's composition. Quantity is per serving.
type Ingredient struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
}

// IngredientInput carries the caller-editable fields of an ingredient.
type IngredientInput struct {
	Name     string          `json:"name"`
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Food is a named, ordered list of ingredients.
type Food struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
}

// Limits bounds the catalog. Zero means unbounded.
type Limits struct {
	MaxFoods       int
	MaxIngredients int
}

// Catalog holds the food definitions in insertion order.
type Catalog struct {
	foods  []*Food
	limits Limits
}

// New creates an empty Catalog.
func New(limits Limits) *Catalog {
	return &Catalog{limits: limits}
}

// Restore rebuilds a catalog from previously persisted foods, keeping their
// ingredient IDs verbatim.
func Restore(foods []Food, limits Limits) (*Catalog, error) {
	c := New(limits)
	for _, f := range foods {
		if c.indexOf(f.Name) >= 0 {
			return nil, fmt.Errorf("failed to restore food %q: %w", f.Name, ErrDuplicateName)
		}
		if err := c.checkFoodCapacity(); err != nil {
			return nil, err
		}
		if err := c.checkIngredientCapacity(len(f.Ingredients)); err != nil {
			return nil, fmt.Errorf("failed to restore food %q: %w", f.Name, err)
		}
		cp := cloneFood(f)
		c.foods = append(c.foods, &cp)
	}
	return c, nil
}

// AddFood appends a new food. The name must not already be present.
func (c *Catalog) AddFood(name string, ingredients []IngredientInput) (Food, error) {
	if name == "" {
		return Food{}, fmt.Errorf("%w: name is required", ErrInvalidFood)
	}
	if c.indexOf(name) >= 0 {
		return Food{}, fmt.Errorf("%q: %w", name, ErrDuplicateName)
	}
	if err := c.checkFoodCapacity(); err != nil {
		return Food{}, err
	}
	if err := c.checkIngredientCapacity(len(ingredients)); err != nil {
		return Food{}, err
	}

	food := &Food{Name: name, Ingredients: make([]Ingredient, 0, len(ingredients))}
	for _, in := range ingredients {
		ing, err := newIngredient(in)
		if err != nil {
			return Food{}, err
		}
		food.Ingredients = append(food.Ingredients, ing)
	}

	c.foods = append(c.foods, food)
	return cloneFood(*food), nil
}

// FindFood looks a food up by exact name.
func (c *Catalog) FindFood(name string) (Food, bool) {
	i := c.indexOf(name)
	if i < 0 {
		return Food{}, false
	}
	return cloneFood(*c.foods[i]), true
}

// ListFoods returns copies of all foods in insertion order.
func (c *Catalog) ListFoods() []Food {
	out := make([]Food, 0, len(c.foods))
	for _, f := range c.foods {
		out = append(out, cloneFood(*f))
	}
	return out
}

// Len returns the number of foods.
func (c *Catalog) Len() int {
	return len(c.foods)
}

// RenameFood changes a food's name, keeping its position and ingredients.
func (c *Catalog) RenameFood(oldName, newName string) (Food, error) {
	if newName == "" {
		return Food{}, fmt.Errorf("%w: name is required", ErrInvalidFood)
	}
	i := c.indexOf(oldName)
	if i < 0 {
		return Food{}, fmt.Errorf("%q: %w", oldName, ErrFoodNotFound)
	}
	if oldName != newName && c.indexOf(newName) >= 0 {
		return Food{}, fmt.Errorf("%q: %w", newName, ErrDuplicateName)
	}
	c.foods[i].Name = newName
	return cloneFood(*c.foods[i]), nil
}

// RemoveFood deletes a food. Ledger usages already recorded are unaffected.
func (c *Catalog) RemoveFood(name string) error {
	i := c.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, ErrFoodNotFound)
	}
	c.foods = append(c.foods[:i], c.foods[i+1:]...)
	return nil
}

// AddIngredient appends an ingredient with a freshly generated ID.
func (c *Catalog) AddIngredient(foodName string, in IngredientInput) (Ingredient, error) {
	food, err := c.food(foodName)
	if err != nil {
		return Ingredient{}, err
	}
	if err := c.checkIngredientCapacity(len(food.Ingredients) + 1); err != nil {
		return Ingredient{}, err
	}
	ing, err := newIngredient(in)
	if err != nil {
		return Ingredient{}, err
	}
	food.Ingredients = append(food.Ingredients, ing)
	return ing, nil
}

// EditIngredient replaces the editable fields of an ingredient. The ID is kept.
func (c *Catalog) EditIngredient(foodName, id string, in IngredientInput) (Ingredient, error) {
	food, err := c.food(foodName)
	if err != nil {
		return Ingredient{}, err
	}
	if err := validateInput(in); err != nil {
		return Ingredient{}, err
	}
	for i := range food.Ingredients {
		if food.Ingredients[i].ID == id {
			food.Ingredients[i].Name = in.Name
			food.Ingredients[i].Unit = in.Unit
			food.Ingredients[i].Quantity = in.Quantity
			return food.Ingredients[i], nil
		}
	}
	return Ingredient{}, fmt.Errorf("%q in %q: %w", id, foodName, ErrIngredientNotFound)
}

// RemoveIngredient deletes an ingredient by ID.
func (c *Catalog) RemoveIngredient(foodName, id string) error {
	food, err := c.food(foodName)
	if err != nil {
		return err
	}
	for i := range food.Ingredients {
		if food.Ingredients[i].ID == id {
			food.Ingredients = append(food.Ingredients[:i], food.Ingredients[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%q in %q: %w", id, foodName, ErrIngredientNotFound)
}

// Clone returns a deep copy sharing no state with c.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{limits: c.limits, foods: make([]*Food, 0, len(c.foods))}
	for _, f := range c.foods {
		cp := cloneFood(*f)
		out.foods = append(out.foods, &cp)
	}
	return out
}

func (c *Catalog) food(name string) (*Food, error) {
	i := c.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrFoodNotFound)
	}
	return c.foods[i], nil
}

func (c *Catalog) indexOf(name string) int {
	for i, f := range c.foods {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (c *Catalog) checkFoodCapacity() error {
	if c.limits.MaxFoods > 0 && len(c.foods) >= c.limits.MaxFoods {
		return &CapacityError{Resource: "foods", Limit: c.limits.MaxFoods}
	}
	return nil
}

func (c *Catalog) checkIngredientCapacity(n int) error {
	if c.limits.MaxIngredients > 0 && n > c.limits.MaxIngredients {
		return &CapacityError{Resource: "ingredients per food", Limit: c.limits.MaxIngredients}
	}
	return nil
}

func newIngredient(in IngredientInput) (Ingredient, error) {
	if err := validateInput(in); err != nil {
		return Ingredient{}, err
	}
	return Ingredient{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Unit:     in.Unit,
		Quantity: in.Quantity,
	}, nil
}

func validateInput(in IngredientInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: ingredient name is required", ErrInvalidFood)
	}
	if in.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity for %q must not be negative", ErrInvalidFood, in.Name)
	}
	return nil
}

func cloneFood(f Food) Food {
	out := Food{Name: f.Name, Ingredients: make([]Ingredient, len(f.Ingredients))}
	copy(out.Ingredients, f.Ingredients)
	return out
}
