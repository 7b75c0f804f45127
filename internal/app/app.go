package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meal-ledger/internal/catalog"
	"meal-ledger/internal/clipper"
	"meal-ledger/internal/ledger"
	"meal-ledger/internal/shopping"

	"go.uber.org/zap"
)

var (
	// ErrCatalogEmpty is returned when consumption is recorded before any
	// food exists. It also matches ledger.ErrNoActivePersons.
	ErrCatalogEmpty = fmt.Errorf("catalog is empty: %w", ledger.ErrNoActivePersons)
	// ErrImportDisabled is returned by ImportFood when no importer is set.
	ErrImportDisabled = errors.New("food import is not configured")
	// ErrExportDisabled is returned by ExportShoppingList when no exporter is set.
	ErrExportDisabled = errors.New("shopping list export is not configured")
)

// Store persists the catalog and the ledger as whole documents.
type Store interface {
	SaveCatalog(ctx context.Context, c *catalog.Catalog) error
	SaveLedger(ctx context.Context, l *ledger.Ledger) error
	LoadCatalog(ctx context.Context) ([]catalog.Food, error)
	LoadLedger(ctx context.Context) ([]ledger.Entry, error)
}

// History records exported shopping lists.
type History interface {
	Save(ctx context.Context, list *shopping.ShoppingList) (int64, error)
}

// Importer extracts a food from a web page.
type Importer interface {
	ClipURL(ctx context.Context, url string) (clipper.ClippedFood, error)
}

// Options configures an App. Only Store is required.
type Options struct {
	CatalogLimits catalog.Limits
	LedgerLimits  ledger.Limits
	Exporter      *shopping.FileExporter
	History       History
	Importer      Importer
	Logger        *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// App is the caller-facing service. Every operation runs under one lock and
// every mutation is written through to the store before it returns.
type App struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	coords  ledger.Coordinates

	store    Store
	exporter *shopping.FileExporter
	history  History
	importer Importer
	logger   *zap.Logger
	now      func() time.Time
}

// Stats summarizes the stored records.
type Stats struct {
	Foods   int `json:"foods"`
	Entries int `json:"entries"`
	Usages  int `json:"usages"`
}

// New loads the catalog and the ledger from store and returns a ready App.
func New(ctx context.Context, store Store, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	foods, err := store.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	c, err := catalog.Restore(foods, opts.CatalogLimits)
	if err != nil {
		return nil, fmt.Errorf("failed to restore catalog: %w", err)
	}

	entries, err := store.LoadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	l, err := ledger.Restore(entries, opts.LedgerLimits)
	if err != nil {
		return nil, fmt.Errorf("failed to restore ledger: %w", err)
	}

	opts.Logger.Info("state loaded",
		zap.Int("foods", c.Len()),
		zap.Int("entries", l.Len()),
	)

	return &App{
		catalog:  c,
		ledger:   l,
		store:    store,
		exporter: opts.Exporter,
		history:  opts.History,
		importer: opts.Importer,
		logger:   opts.Logger,
		now:      opts.Now,
	}, nil
}

// Stats returns record counts.
func (a *App) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Stats{Foods: a.catalog.Len(), Entries: a.ledger.Len()}
	for _, e := range a.ledger.Entries() {
		s.Usages += len(e.Usages)
	}
	return s
}

// mutateCatalog applies fn to the catalog and saves it. The catalog is
// restored to its previous state if either step fails.
func (a *App) mutateCatalog(ctx context.Context, fn func(c *catalog.Catalog) error) error {
	snapshot := a.catalog.Clone()
	if err := fn(a.catalog); err != nil {
		a.catalog = snapshot
		return err
	}
	if err := a.store.SaveCatalog(ctx, a.catalog); err != nil {
		a.catalog = snapshot
		a.logger.Error("catalog write failed, changes rolled back", zap.Error(err))
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}
