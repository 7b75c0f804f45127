package app

import (
	"context"
	"fmt"

	"meal-ledger/internal/catalog"
	"meal-ledger/internal/ledger"
	"meal-ledger/internal/shopping"

	"go.uber.org/zap"
)

// SetCoordinates replaces the current coordinate context. An empty date
// becomes today.
func (a *App) SetCoordinates(c ledger.Coordinates) (ledger.Coordinates, error) {
	c, err := c.Normalize(a.now())
	if err != nil {
		return ledger.Coordinates{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.coords = c
	return c, nil
}

// Coordinates returns the current coordinate context.
func (a *App) Coordinates() ledger.Coordinates {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.coords
}

// RecordConsumption records food against the current coordinate context.
func (a *App) RecordConsumption(ctx context.Context, food string) (ledger.Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record(ctx, food, a.coords)
}

// RecordConsumptionAt records food against explicit coordinates, leaving the
// current context untouched.
func (a *App) RecordConsumptionAt(ctx context.Context, food string, coords ledger.Coordinates) (ledger.Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record(ctx, food, coords)
}

func (a *App) record(ctx context.Context, name string, coords ledger.Coordinates) (ledger.Outcome, error) {
	if coords.Date == "" {
		coords.Date = a.now().Format(ledger.DateLayout)
	}
	if a.catalog.Len() == 0 {
		return ledger.Outcome{}, ErrCatalogEmpty
	}
	food, ok := a.catalog.FindFood(name)
	if !ok {
		return ledger.Outcome{}, fmt.Errorf("%w: %q", catalog.ErrFoodNotFound, name)
	}

	snapshot := a.ledger.Clone()
	outcome, err := a.ledger.Record(food, coords)
	if err != nil {
		return outcome, err
	}
	if err := a.store.SaveLedger(ctx, a.ledger); err != nil {
		a.ledger = snapshot
		a.logger.Error("ledger write failed, changes rolled back", zap.Error(err))
		return ledger.Outcome{}, fmt.Errorf("failed to save ledger: %w", err)
	}

	fields := []zap.Field{
		zap.String("food", name),
		zap.Stringer("coordinates", coords),
		zap.Int("recorded", outcome.Recorded()),
	}
	if outcome.Partial() {
		a.logger.Warn("consumption partially recorded", fields...)
	} else {
		a.logger.Info("consumption recorded", fields...)
	}
	return outcome, nil
}

// RemoveUsage deletes one food usage from an entry.
func (a *App) RemoveUsage(ctx context.Context, key ledger.Key, food string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := a.ledger.Clone()
	if err := a.ledger.RemoveUsage(key, food); err != nil {
		return err
	}
	if err := a.store.SaveLedger(ctx, a.ledger); err != nil {
		a.ledger = snapshot
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	a.logger.Info("usage removed", zap.Stringer("key", key), zap.String("food", food))
	return nil
}

// ClearEntry deletes an entry and all of its usages.
func (a *App) ClearEntry(ctx context.Context, key ledger.Key) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := a.ledger.Clone()
	n, err := a.ledger.ClearEntry(key)
	if err != nil {
		return 0, err
	}
	if err := a.store.SaveLedger(ctx, a.ledger); err != nil {
		a.ledger = snapshot
		return 0, fmt.Errorf("failed to save ledger: %w", err)
	}
	a.logger.Info("entry cleared", zap.Stringer("key", key), zap.Int("usages", n))
	return n, nil
}

// ActiveEntries returns the entries matching the current coordinate context.
func (a *App) ActiveEntries() []ledger.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Find(ledger.MatchActive(a.coords))
}

// EntriesForDate returns every entry recorded on date.
func (a *App) EntriesForDate(date string) []ledger.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Find(ledger.MatchDate(date))
}

// BuildShoppingList consolidates the ingredients recorded on date. An empty
// date means today.
func (a *App) BuildShoppingList(date string) shopping.ShoppingList {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buildShoppingList(date)
}

func (a *App) buildShoppingList(date string) shopping.ShoppingList {
	if date == "" {
		date = a.now().Format(ledger.DateLayout)
	}
	list := shopping.BuildShoppingList(a.ledger, date)
	list.CreatedAt = a.now()
	return list
}

// ExportShoppingList writes the shopping list for date to a dated file and
// records it in the history when one is configured.
func (a *App) ExportShoppingList(ctx context.Context, date string) (shopping.ShoppingList, string, error) {
	if a.exporter == nil {
		return shopping.ShoppingList{}, "", ErrExportDisabled
	}

	a.mu.Lock()
	list := a.buildShoppingList(date)
	a.mu.Unlock()

	path, err := a.exporter.Export(list)
	if err != nil {
		return shopping.ShoppingList{}, "", fmt.Errorf("failed to export shopping list: %w", err)
	}

	if a.history != nil {
		if _, err := a.history.Save(ctx, &list); err != nil {
			a.logger.Warn("failed to record shopping list history", zap.String("date", list.Date), zap.Error(err))
		}
	}

	a.logger.Info("shopping list exported",
		zap.String("date", list.Date),
		zap.Int("rows", len(list.Rows)),
		zap.String("path", path),
	)
	return list, path, nil
}
