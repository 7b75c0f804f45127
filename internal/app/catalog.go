package app

import (
	"context"

	"meal-ledger/internal/catalog"

	"go.uber.org/zap"
)

// Foods returns every food in insertion order.
func (a *App) Foods() []catalog.Food {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.ListFoods()
}

// Food returns the named food.
func (a *App) Food(name string) (catalog.Food, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, ok := a.catalog.FindFood(name)
	if !ok {
		return catalog.Food{}, catalog.ErrFoodNotFound
	}
	return f, nil
}

// AddFood creates a food.
func (a *App) AddFood(ctx context.Context, name string, ingredients []catalog.IngredientInput) (catalog.Food, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var food catalog.Food
	err := a.mutateCatalog(ctx, func(c *catalog.Catalog) error {
		var err error
		food, err = c.AddFood(name, ingredients)
		return err
	})
	if err != nil {
		return catalog.Food{}, err
	}
	a.logger.Info("food added", zap.String("food", name), zap.Int("ingredients", len(food.Ingredients)))
	return food, nil
}

// RenameFood renames a food. Ledger entries keep the name they were
// recorded with.
func (a *App) RenameFood(ctx context.Context, oldName, newName string) (catalog.Food, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var food catalog.Food
	err := a.mutateCatalog(ctx, func(c *catalog.Catalog) error {
		var err error
		food, err = c.RenameFood(oldName, newName)
		return err
	})
	if err != nil {
		return catalog.Food{}, err
	}
	a.logger.Info("food renamed", zap.String("from", oldName), zap.String("to", newName))
	return food, nil
}

// RemoveFood deletes a food from the catalog.
func (a *App) RemoveFood(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.mutateCatalog(ctx, func(c *catalog.Catalog) error {
		return c.RemoveFood(name)
	})
	if err != nil {
		return err
	}
	a.logger.Info("food removed", zap.String("food", name))
	return nil
}

// AddIngredient appends an ingredient to a food.
func (a *App) AddIngredient(ctx context.Context, foodName string, in catalog.IngredientInput) (catalog.Ingredient, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var ing catalog.Ingredient
	err := a.mutateCatalog(ctx, func(c *catalog.Catalog) error {
		var err error
		ing, err = c.AddIngredient(foodName, in)
		return err
	})
	return ing, err
}

// EditIngredient replaces the editable fields of an ingredient.
func (a *App) EditIngredient(ctx context.Context, foodName, id string, in catalog.IngredientInput) (catalog.Ingredient, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var ing catalog.Ingredient
	err := a.mutateCatalog(ctx, func(c *catalog.Catalog) error {
		var err error
		ing, err = c.EditIngredient(foodName, id, in)
		return err
	})
	return ing, err
}

// RemoveIngredient deletes an ingredient from a food.
func (a *App) RemoveIngredient(ctx context.Context, foodName, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.mutateCatalog(ctx, func(c *catalog.Catalog) error {
		return c.RemoveIngredient(foodName, id)
	})
}

// ImportFood fetches a recipe page and adds it to the catalog.
func (a *App) ImportFood(ctx context.Context, url string) (catalog.Food, error) {
	if a.importer == nil {
		return catalog.Food{}, ErrImportDisabled
	}

	// Fetched outside the lock; only the catalog write is serialized.
	clipped, err := a.importer.ClipURL(ctx, url)
	if err != nil {
		return catalog.Food{}, err
	}
	if len(clipped.Skipped) > 0 {
		a.logger.Warn("import skipped rows", zap.String("url", url), zap.Strings("rows", clipped.Skipped))
	}
	return a.AddFood(ctx, clipped.Name, clipped.Ingredients)
}
