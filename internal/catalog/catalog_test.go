package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddFood(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := New(Limits{})
		food, err := c.AddFood("Ciorba", []IngredientInput{
			{Name: "Cartofi", Unit: "kg", Quantity: qty("0.2")},
			{Name: "Morcovi", Unit: "kg", Quantity: qty("0.05")},
		})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(food.Ingredients) != 2 {
			t.Fatalf("Expected 2 ingredients, got %d", len(food.Ingredients))
		}
		if food.Ingredients[0].ID == "" || food.Ingredients[0].ID == food.Ingredients[1].ID {
			t.Errorf("Expected distinct non-empty ingredient IDs, got %q and %q", food.Ingredients[0].ID, food.Ingredients[1].ID)
		}
	})

	t.Run("DuplicateName", func(t *testing.T) {
		c := New(Limits{})
		if _, err := c.AddFood("Ciorba", nil); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		_, err := c.AddFood("Ciorba", nil)
		if !errors.Is(err, ErrDuplicateName) {
			t.Fatalf("Expected ErrDuplicateName, got %v", err)
		}
		if c.Len() != 1 {
			t.Errorf("Expected food count to stay 1, got %d", c.Len())
		}
	})

	t.Run("NameIsCaseSensitive", func(t *testing.T) {
		c := New(Limits{})
		_, _ = c.AddFood("Ciorba", nil)
		if _, err := c.AddFood("ciorba", nil); err != nil {
			t.Errorf("Expected 'ciorba' to be accepted, got %v", err)
		}
	})

	t.Run("NegativeQuantity", func(t *testing.T) {
		c := New(Limits{})
		_, err := c.AddFood("Paine", []IngredientInput{{Name: "Faina", Unit: "kg", Quantity: qty("-1")}})
		if !errors.Is(err, ErrInvalidFood) {
			t.Fatalf("Expected ErrInvalidFood, got %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected empty catalog, got %d foods", c.Len())
		}
	})

	t.Run("Capacity", func(t *testing.T) {
		c := New(Limits{MaxFoods: 1})
		_, _ = c.AddFood("A", nil)
		_, err := c.AddFood("B", nil)
		var capErr *CapacityError
		if !errors.As(err, &capErr) {
			t.Fatalf("Expected CapacityError, got %v", err)
		}
		if !errors.Is(err, ErrCapacity) {
			t.Errorf("Expected errors.Is(err, ErrCapacity) to hold")
		}
		if capErr.Limit != 1 {
			t.Errorf("Expected limit 1, got %d", capErr.Limit)
		}
	})
}

func TestListFoodsKeepsInsertionOrder(t *testing.T) {
	c := New(Limits{})
	for _, name := range []string{"Supa", "Ciorba", "Ardei umpluti"} {
		if _, err := c.AddFood(name, nil); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	foods := c.ListFoods()
	want := []string{"Supa", "Ciorba", "Ardei umpluti"}
	for i, f := range foods {
		if f.Name != want[i] {
			t.Errorf("Expected food %d to be %q, got %q", i, want[i], f.Name)
		}
	}
}

func TestIngredientMutations(t *testing.T) {
	c := New(Limits{MaxIngredients: 2})
	if _, err := c.AddFood("Ciorba", nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ing, err := c.AddIngredient("Ciorba", IngredientInput{Name: "Cartofi", Unit: "kg", Quantity: qty("0.2")})
	if err != nil {
		t.Fatalf("AddIngredient failed: %v", err)
	}

	t.Run("Edit-KeepsID", func(t *testing.T) {
		edited, err := c.EditIngredient("Ciorba", ing.ID, IngredientInput{Name: "Cartofi noi", Unit: "kg", Quantity: qty("0.25")})
		if err != nil {
			t.Fatalf("EditIngredient failed: %v", err)
		}
		if edited.ID != ing.ID {
			t.Errorf("Expected ID %q to be kept, got %q", ing.ID, edited.ID)
		}
		food, _ := c.FindFood("Ciorba")
		if !food.Ingredients[0].Quantity.Equal(qty("0.25")) {
			t.Errorf("Expected quantity 0.25, got %s", food.Ingredients[0].Quantity)
		}
	})

	t.Run("Edit-NotFound", func(t *testing.T) {
		_, err := c.EditIngredient("Ciorba", "missing", IngredientInput{Name: "X"})
		if !errors.Is(err, ErrIngredientNotFound) {
			t.Errorf("Expected ErrIngredientNotFound, got %v", err)
		}
	})

	t.Run("Add-Capacity", func(t *testing.T) {
		if _, err := c.AddIngredient("Ciorba", IngredientInput{Name: "Ceapa", Unit: "kg", Quantity: qty("0.02")}); err != nil {
			t.Fatalf("Expected second ingredient to fit, got %v", err)
		}
		_, err := c.AddIngredient("Ciorba", IngredientInput{Name: "Sare", Unit: "g", Quantity: qty("2")})
		if !errors.Is(err, ErrCapacity) {
			t.Errorf("Expected ErrCapacity, got %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := c.RemoveIngredient("Ciorba", ing.ID); err != nil {
			t.Fatalf("RemoveIngredient failed: %v", err)
		}
		food, _ := c.FindFood("Ciorba")
		for _, i := range food.Ingredients {
			if i.ID == ing.ID {
				t.Errorf("Expected ingredient %q to be removed", ing.ID)
			}
		}
	})

	t.Run("UnknownFood", func(t *testing.T) {
		_, err := c.AddIngredient("Nope", IngredientInput{Name: "X"})
		if !errors.Is(err, ErrFoodNotFound) {
			t.Errorf("Expected ErrFoodNotFound, got %v", err)
		}
	})
}

func TestRenameAndRemoveFood(t *testing.T) {
	c := New(Limits{})
	_, _ = c.AddFood("A", nil)
	_, _ = c.AddFood("B", nil)

	if _, err := c.RenameFood("A", "B"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}
	if _, err := c.RenameFood("A", "C"); err != nil {
		t.Fatalf("RenameFood failed: %v", err)
	}
	if foods := c.ListFoods(); foods[0].Name != "C" {
		t.Errorf("Expected renamed food to keep its position, got %q first", foods[0].Name)
	}
	if err := c.RemoveFood("C"); err != nil {
		t.Fatalf("RemoveFood failed: %v", err)
	}
	if err := c.RemoveFood("C"); !errors.Is(err, ErrFoodNotFound) {
		t.Errorf("Expected ErrFoodNotFound, got %v", err)
	}
}

func TestCopiesAreDetached(t *testing.T) {
	c := New(Limits{})
	_, _ = c.AddFood("Ciorba", []IngredientInput{{Name: "Cartofi", Unit: "kg", Quantity: qty("0.2")}})

	food, _ := c.FindFood("Ciorba")
	food.Ingredients[0].Name = "changed"

	clone := c.Clone()
	_, _ = clone.AddFood("Other", nil)

	again, _ := c.FindFood("Ciorba")
	if again.Ingredients[0].Name != "Cartofi" {
		t.Errorf("Expected catalog to be unaffected by edits to a returned copy")
	}
	if c.Len() != 1 {
		t.Errorf("Expected clone mutations not to leak, got %d foods", c.Len())
	}
}

func TestRestore(t *testing.T) {
	foods := []Food{
		{Name: "A", Ingredients: []Ingredient{{ID: "id-1", Name: "x", Unit: "g", Quantity: qty("1")}}},
		{Name: "A"},
	}
	if _, err := Restore(foods, Limits{}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}

	c, err := Restore(foods[:1], Limits{})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	food, ok := c.FindFood("A")
	if !ok || food.Ingredients[0].ID != "id-1" {
		t.Errorf("Expected ingredient ID 'id-1' to survive restore, got %+v", food)
	}
}
