package acceptance_tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meal-ledger/internal/app"
	"meal-ledger/internal/catalog"
	"meal-ledger/internal/clipper"
	"meal-ledger/internal/database"
	"meal-ledger/internal/ledger"
	"meal-ledger/internal/shopping"
	"meal-ledger/internal/storage"

	"github.com/shopspring/decimal"
)

const recipePage = `<html><body>
	<h1>Tocana de legume</h1>
	<span data-servings="2"></span>
	<table>
		<tr><td>Cartofi</td><td>0,6</td><td>kg</td></tr>
		<tr><td>Ceapa</td><td>0.2</td><td>kg</td></tr>
	</table>
</body></html>`

type backend struct {
	name    string
	open    func(t *testing.T, dir string) (app.Store, app.History, func())
	history bool
}

var backends = []backend{
	{
		name: "file",
		open: func(t *testing.T, dir string) (app.Store, app.History, func()) {
			s, err := storage.NewFileStore(filepath.Join(dir, "data"))
			if err != nil {
				t.Fatalf("Failed to create file store: %v", err)
			}
			return s, nil, func() {}
		},
	},
	{
		name:    "sqlite",
		history: true,
		open: func(t *testing.T, dir string) (app.Store, app.History, func()) {
			db, err := database.NewDB(filepath.Join(dir, "meal-ledger.db"))
			if err != nil {
				t.Fatalf("Failed to create DB: %v", err)
			}
			return storage.NewSQLStore(db.SQL), shopping.NewRepository(db.SQL), func() { db.Close() }
		},
	},
}

func TestWorkflowAcceptance(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recipePage))
	}))
	defer ts.Close()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			now := func() time.Time { return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) }

			exporter, err := shopping.NewFileExporter(filepath.Join(dir, "exports"))
			if err != nil {
				t.Fatalf("Failed to create exporter: %v", err)
			}

			store, history, closeStore := b.open(t, dir)
			opts := app.Options{Exporter: exporter, Importer: clipper.NewClipper(ts.Client()), Now: now}
			if history != nil {
				opts.History = history
			}

			a, err := app.New(ctx, store, opts)
			if err != nil {
				t.Fatalf("Failed to create app: %v", err)
			}

			// 1. Catalog
			if _, err := a.AddFood(ctx, "Ciorba", []catalog.IngredientInput{
				{Name: "Cartofi", Unit: "kg", Quantity: decimal.RequireFromString("0.2")},
			}); err != nil {
				t.Fatalf("AddFood failed: %v", err)
			}
			imported, err := a.ImportFood(ctx, ts.URL)
			if err != nil {
				t.Fatalf("ImportFood failed: %v", err)
			}
			if imported.Name != "Tocana de legume" || len(imported.Ingredients) != 2 {
				t.Fatalf("Expected imported Tocana with 2 ingredients, got %+v", imported)
			}

			// 2. Ledger
			if _, err := a.SetCoordinates(ledger.Coordinates{C1: 10, MealSlot: "M1", Regime: "R1", Date: "01.01.2025"}); err != nil {
				t.Fatalf("SetCoordinates failed: %v", err)
			}
			if _, err := a.RecordConsumption(ctx, "Ciorba"); err != nil {
				t.Fatalf("RecordConsumption failed: %v", err)
			}
			if _, err := a.RecordConsumptionAt(ctx, "Tocana de legume", ledger.Coordinates{C2: 4, C3: 1, MealSlot: "M2", Regime: "R1", Date: "01.01.2025"}); err != nil {
				t.Fatalf("RecordConsumptionAt failed: %v", err)
			}
			if _, err := a.RecordConsumptionAt(ctx, "Ciorba", ledger.Coordinates{C1: 3, MealSlot: "M1", Regime: "R1", Date: "02.01.2025"}); err != nil {
				t.Fatalf("RecordConsumptionAt failed: %v", err)
			}

			// 3. Shopping list: Cartofi 10*0.2 + 5*0.3, Ceapa 5*0.1
			list, path, err := a.ExportShoppingList(ctx, "01.01.2025")
			if err != nil {
				t.Fatalf("ExportShoppingList failed: %v", err)
			}
			want := map[string]string{"Cartofi": "3.5", "Ceapa": "0.5"}
			if len(list.Rows) != len(want) {
				t.Fatalf("Expected %d rows, got %+v", len(want), list.Rows)
			}
			for _, r := range list.Rows {
				if !r.Total.Equal(decimal.RequireFromString(want[r.Ingredient])) {
					t.Errorf("Expected %s total %s, got %s", r.Ingredient, want[r.Ingredient], r.Total)
				}
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read export: %v", err)
			}
			if !strings.Contains(string(data), "Cartofi\tkg\t3.50") {
				t.Errorf("Expected export to contain Cartofi 3.50, got:\n%s", data)
			}

			closeStore()

			// 4. Restart and check everything survived.
			store, history, closeStore = b.open(t, dir)
			defer closeStore()

			reloaded, err := app.New(ctx, store, app.Options{Now: now})
			if err != nil {
				t.Fatalf("Failed to reload app: %v", err)
			}
			foods := reloaded.Foods()
			if len(foods) != 2 || foods[0].Name != "Ciorba" || foods[1].Name != "Tocana de legume" {
				t.Errorf("Expected [Ciorba, Tocana de legume], got %+v", foods)
			}
			if foods[0].Ingredients[0].ID == "" {
				t.Error("Expected ingredient IDs to survive a restart")
			}
			if got := reloaded.Stats(); got.Entries != 4 || got.Usages != 4 {
				t.Errorf("Expected 4 entries and usages, got %+v", got)
			}
			again := reloaded.BuildShoppingList("01.01.2025")
			for i := range list.Rows {
				if again.Rows[i].Ingredient != list.Rows[i].Ingredient || !again.Rows[i].Total.Equal(list.Rows[i].Total) {
					t.Errorf("Expected row %d to match after restart, got %+v", i, again.Rows[i])
				}
			}

			if b.history {
				repo := history.(*shopping.Repository)
				latest, err := repo.GetLatestByDate(ctx, "01.01.2025")
				if err != nil || latest == nil {
					t.Fatalf("Expected recorded export, got %+v, %v", latest, err)
				}
				if len(latest.Rows) != 2 {
					t.Errorf("Expected 2 stored rows, got %d", len(latest.Rows))
				}
			}
		})
	}
}
