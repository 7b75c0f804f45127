package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEAL_LEDGER_CONFIG", "DATA_DIR", "STORAGE_BACKEND", "DATABASE_PATH", "EXPORT_DIR",
		"PORT", "APP_ENV", "MAX_FOODS", "MAX_INGREDIENTS", "MAX_ENTRIES", "MAX_USAGES_PER_ENTRY",
	} {
		t.Setenv(key, "")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.StorageBackend != BackendFile {
			t.Errorf("Expected StorageBackend to be 'file', got '%s'", cfg.StorageBackend)
		}
		if cfg.DatabasePath != filepath.Join("data", "meal-ledger.db") {
			t.Errorf("Expected DatabasePath under data dir, got '%s'", cfg.DatabasePath)
		}
		if cfg.ExportDir != filepath.Join("data", "exports") {
			t.Errorf("Expected ExportDir under data dir, got '%s'", cfg.ExportDir)
		}
		if cfg.MaxFoods != 0 {
			t.Errorf("Expected unbounded MaxFoods, got %d", cfg.MaxFoods)
		}
	})

	t.Run("Success", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DATA_DIR", "/tmp/ledger")
		t.Setenv("STORAGE_BACKEND", "sqlite")
		t.Setenv("PORT", "9090")
		t.Setenv("MAX_FOODS", "100")
		t.Setenv("MAX_INGREDIENTS", "50")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DataDir != "/tmp/ledger" {
			t.Errorf("Expected DataDir to be '/tmp/ledger', got '%s'", cfg.DataDir)
		}
		if cfg.Port != "9090" {
			t.Errorf("Expected Port to be '9090', got '%s'", cfg.Port)
		}
		if got := cfg.CatalogLimits(); got.MaxFoods != 100 || got.MaxIngredients != 50 {
			t.Errorf("Expected catalog limits 100/50, got %+v", got)
		}
		if got := cfg.LedgerLimits(); got.MaxIngredientsPerUsage != 50 {
			t.Errorf("Expected MaxIngredientsPerUsage 50, got %d", got.MaxIngredientsPerUsage)
		}
	})

	t.Run("InvalidBackend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE_BACKEND", "postgres")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for an unknown backend, got nil")
		}
	})

	t.Run("InvalidNumber", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAX_ENTRIES", "many")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for a non-numeric limit, got nil")
		}
	})

	t.Run("FirstInvalidNumberReported", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAX_FOODS", "x")
		t.Setenv("MAX_INGREDIENTS", "y")
		t.Setenv("MAX_ENTRIES", "z")

		for i := 0; i < 10; i++ {
			_, err := NewFromEnv()
			if err == nil || !strings.HasPrefix(err.Error(), "MAX_FOODS ") {
				t.Fatalf("Expected MAX_FOODS to be reported first, got %v", err)
			}
		}
	})

	t.Run("NegativeLimit", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAX_FOODS", "-1")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for a negative limit, got nil")
		}
	})
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meal-ledger.yaml")
	content := "data_dir: /srv/ledger\nport: \"7000\"\nmax_entries: 12\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Run("FileValues", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEAL_LEDGER_CONFIG", path)

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DataDir != "/srv/ledger" || cfg.Port != "7000" || cfg.MaxEntries != 12 {
			t.Errorf("Expected file values, got %+v", cfg)
		}
		if cfg.StorageBackend != BackendFile {
			t.Errorf("Expected defaults for unset keys, got '%s'", cfg.StorageBackend)
		}
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEAL_LEDGER_CONFIG", path)
		t.Setenv("PORT", "7001")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Port != "7001" {
			t.Errorf("Expected env to win, got '%s'", cfg.Port)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEAL_LEDGER_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for a missing config file, got nil")
		}
	})
}
