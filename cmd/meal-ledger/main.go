package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"meal-ledger/internal/app"
	"meal-ledger/internal/catalog"
	"meal-ledger/internal/clipper"
	"meal-ledger/internal/config"
	"meal-ledger/internal/database"
	"meal-ledger/internal/ledger"
	"meal-ledger/internal/logger"
	"meal-ledger/internal/shopping"
	"meal-ledger/internal/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var errUnknownCommand = errors.New("unknown command")

func main() {
	os.Exit(start())
}

// start wires the application and runs one command, returning the process
// exit code once every deferred cleanup has run.
func start() int {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	zl, err := logger.Init(cfg.Env)
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return 1
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage()
		return 1
	}

	env, err := setup(ctx, cfg, zl)
	if err != nil {
		zl.Error("failed to initialize application", zap.Error(err))
		return 1
	}
	defer env.Close()

	if err := run(ctx, env, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUnknownCommand) {
			fmt.Println(err)
			printUsage()
			return 1
		}
		zl.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		return 1
	}
	return 0
}

// environment holds the wired application and the resources behind it.
type environment struct {
	cfg     *config.Config
	app     *app.App
	db      *database.DB
	history *shopping.Repository
	logger  *zap.Logger
}

func (e *environment) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

func setup(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*environment, error) {
	env := &environment{cfg: cfg, logger: zl}

	var store app.Store
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		env.db = db
		env.history = shopping.NewRepository(db.SQL)
		store = storage.NewSQLStore(db.SQL)
	default:
		fs, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		store = fs
	}

	exporter, err := shopping.NewFileExporter(cfg.ExportDir)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}

	opts := app.Options{
		CatalogLimits: cfg.CatalogLimits(),
		LedgerLimits:  cfg.LedgerLimits(),
		Exporter:      exporter,
		Importer:      clipper.NewClipper(nil),
		Logger:        zl,
	}
	if env.history != nil {
		opts.History = env.history
	}

	a, err := app.New(ctx, store, opts)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.app = a
	return env, nil
}

func run(ctx context.Context, env *environment, command string, args []string) error {
	a := env.app

	switch command {
	case "foods":
		for _, f := range a.Foods() {
			fmt.Printf("%s\n", f.Name)
			for _, ing := range f.Ingredients {
				fmt.Printf("  %-24s %-6s %s  (%s)\n", ing.Name, ing.Unit, ing.Quantity, ing.ID)
			}
		}

	case "add-food":
		cmd := flag.NewFlagSet("add-food", flag.ExitOnError)
		name := cmd.String("name", "", "Food name")
		var ingredients []catalog.IngredientInput
		cmd.Func("ingredient", "Ingredient as name:unit:quantity (repeatable)", func(s string) error {
			in, err := parseIngredient(s)
			if err != nil {
				return err
			}
			ingredients = append(ingredients, in)
			return nil
		})
		cmd.Parse(args)

		food, err := a.AddFood(ctx, *name, ingredients)
		if err != nil {
			return err
		}
		fmt.Printf("Added '%s' with %d ingredients.\n", food.Name, len(food.Ingredients))

	case "add-ingredient":
		cmd := flag.NewFlagSet("add-ingredient", flag.ExitOnError)
		food := cmd.String("food", "", "Food name")
		raw := cmd.String("ingredient", "", "Ingredient as name:unit:quantity")
		cmd.Parse(args)

		in, err := parseIngredient(*raw)
		if err != nil {
			return err
		}
		ing, err := a.AddIngredient(ctx, *food, in)
		if err != nil {
			return err
		}
		fmt.Printf("Added '%s' to '%s' (%s).\n", ing.Name, *food, ing.ID)

	case "record":
		cmd := flag.NewFlagSet("record", flag.ExitOnError)
		food := cmd.String("food", "", "Food name")
		c1 := cmd.Int("c1", 0, "Persons at location C1")
		c2 := cmd.Int("c2", 0, "Persons at location C2")
		c3 := cmd.Int("c3", 0, "Persons at location C3")
		meal := cmd.String("meal", "", "Meal slot code")
		regime := cmd.String("regime", "", "Regime code")
		date := cmd.String("date", "", "Date as dd.mm.yyyy (default today)")
		cmd.Parse(args)

		coords := ledger.Coordinates{C1: *c1, C2: *c2, C3: *c3, MealSlot: *meal, Regime: *regime, Date: *date}
		outcome, err := a.RecordConsumptionAt(ctx, *food, coords)
		if err != nil {
			return err
		}
		for _, r := range outcome.Results {
			if r.Err != nil {
				fmt.Printf("%s (%d persons): skipped, %v\n", r.Location, r.Persons, r.Err)
				continue
			}
			fmt.Printf("%s (%d persons): recorded under %s\n", r.Location, r.Persons, r.Key)
		}

	case "entries":
		cmd := flag.NewFlagSet("entries", flag.ExitOnError)
		date := cmd.String("date", "", "Date as dd.mm.yyyy (default today)")
		asCSV := cmd.Bool("csv", false, "Write the entries as CSV")
		cmd.Parse(args)

		if *date == "" {
			*date = time.Now().Format(ledger.DateLayout)
		}
		entries := a.EntriesForDate(*date)
		if *asCSV {
			return ledger.WriteCSV(os.Stdout, entries)
		}
		for _, e := range entries {
			fmt.Println(e.Key)
			for _, u := range e.Usages {
				fmt.Printf("  %s x%d\n", u.Food, u.Persons)
				for _, ing := range u.Ingredients {
					fmt.Printf("    %-24s %-6s %s\n", ing.Name, ing.Unit, ing.Total.StringFixed(2))
				}
			}
		}

	case "clear-entry":
		cmd := flag.NewFlagSet("clear-entry", flag.ExitOnError)
		raw := cmd.String("key", "", "Entry key, e.g. C1_M1_R1_01.01.2025")
		cmd.Parse(args)

		key, err := ledger.ParseKey(*raw)
		if err != nil {
			return err
		}
		n, err := a.ClearEntry(ctx, key)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d usages from %s.\n", n, key)

	case "shopping-list":
		cmd := flag.NewFlagSet("shopping-list", flag.ExitOnError)
		date := cmd.String("date", "", "Date as dd.mm.yyyy (default today)")
		export := cmd.Bool("export", false, "Also write the list to the export directory")
		cmd.Parse(args)

		if *export {
			list, path, err := a.ExportShoppingList(ctx, *date)
			if err != nil {
				return err
			}
			if err := shopping.WriteTable(os.Stdout, list); err != nil {
				return err
			}
			fmt.Printf("\nSaved to %s\n", path)
			return nil
		}
		return shopping.WriteTable(os.Stdout, a.BuildShoppingList(*date))

	case "history":
		cmd := flag.NewFlagSet("history", flag.ExitOnError)
		date := cmd.String("date", "", "Show the latest export for this date")
		del := cmd.Bool("delete", false, "Forget every export for -date")
		cmd.Parse(args)

		if env.history == nil {
			return fmt.Errorf("history requires STORAGE_BACKEND=%s", config.BackendSQLite)
		}
		if *del {
			if *date == "" {
				return fmt.Errorf("-delete needs -date")
			}
			if err := env.history.DeleteByDate(ctx, *date); err != nil {
				return err
			}
			fmt.Printf("Removed exports for %s.\n", *date)
			return nil
		}
		if *date == "" {
			dates, err := env.history.ListDates(ctx)
			if err != nil {
				return err
			}
			for _, d := range dates {
				fmt.Println(d)
			}
			return nil
		}
		list, err := env.history.GetLatestByDate(ctx, *date)
		if err != nil {
			return err
		}
		if list == nil {
			fmt.Printf("No export recorded for %s.\n", *date)
			return nil
		}
		fmt.Printf("Exported %s\n\n", list.CreatedAt.Format("02.01.2006 15:04"))
		return shopping.WriteTable(os.Stdout, *list)

	case "import":
		cmd := flag.NewFlagSet("import", flag.ExitOnError)
		url := cmd.String("url", "", "Recipe page URL")
		cmd.Parse(args)

		food, err := a.ImportFood(ctx, *url)
		if err != nil {
			return err
		}
		fmt.Printf("Imported '%s' with %d ingredients.\n", food.Name, len(food.Ingredients))

	case "serve":
		return serve(env)

	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: meal-ledger <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  foods            List the catalog")
	fmt.Println("  add-food         Add a food (-name, -ingredient name:unit:qty ...)")
	fmt.Println("  add-ingredient   Add an ingredient to a food")
	fmt.Println("  record           Record a food for the given person counts")
	fmt.Println("  entries          Show ledger entries for a date (-csv for CSV)")
	fmt.Println("  clear-entry      Remove an entry and every usage under it")
	fmt.Println("  shopping-list    Print (and optionally export) the shopping list for a date")
	fmt.Println("  history          Show exported shopping lists (sqlite backend)")
	fmt.Println("  import           Import a food from a recipe page")
	fmt.Println("  serve            Start the HTTP API")
}
