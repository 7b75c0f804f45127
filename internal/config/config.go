package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"meal-ledger/internal/catalog"
	"meal-ledger/internal/ledger"

	"gopkg.in/yaml.v3"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the configuration for the application.
type Config struct {
	DataDir        string `yaml:"data_dir"`
	StorageBackend string `yaml:"storage_backend"`
	DatabasePath   string `yaml:"database_path"`
	ExportDir      string `yaml:"export_dir"`
	Port           string `yaml:"port"`
	Env            string `yaml:"env"`

	// Capacity limits. Zero means unbounded.
	MaxFoods          int `yaml:"max_foods"`
	MaxIngredients    int `yaml:"max_ingredients"`
	MaxEntries        int `yaml:"max_entries"`
	MaxUsagesPerEntry int `yaml:"max_usages_per_entry"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DataDir:        "data",
		StorageBackend: BackendFile,
		Port:           "8080",
		Env:            "development",
	}
}

// NewFromEnv creates a new Config object from environment variables.
// Values from the YAML file named by MEAL_LEDGER_CONFIG are applied first
// and environment variables override them.
func NewFromEnv() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("MEAL_LEDGER_CONFIG"); path != "" {
		if err := cfg.ReadFile(path); err != nil {
			return nil, err
		}
	}

	setString(&cfg.DataDir, "DATA_DIR")
	setString(&cfg.StorageBackend, "STORAGE_BACKEND")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.ExportDir, "EXPORT_DIR")
	setString(&cfg.Port, "PORT")
	setString(&cfg.Env, "APP_ENV")

	for _, l := range cfg.limits() {
		if err := setInt(l.value, l.env); err != nil {
			return nil, err
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile overlays the values set in a YAML file onto cfg.
func (c *Config) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// CatalogLimits returns the catalog capacity limits.
func (c *Config) CatalogLimits() catalog.Limits {
	return catalog.Limits{MaxFoods: c.MaxFoods, MaxIngredients: c.MaxIngredients}
}

// LedgerLimits returns the ledger capacity limits.
func (c *Config) LedgerLimits() ledger.Limits {
	return ledger.Limits{
		MaxEntries:             c.MaxEntries,
		MaxUsagesPerEntry:      c.MaxUsagesPerEntry,
		MaxIngredientsPerUsage: c.MaxIngredients,
	}
}

func (c *Config) finish() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	switch c.StorageBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendFile, BackendSQLite, c.StorageBackend)
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "meal-ledger.db")
	}
	if c.ExportDir == "" {
		c.ExportDir = filepath.Join(c.DataDir, "exports")
	}
	for _, l := range c.limits() {
		if *l.value < 0 {
			return fmt.Errorf("%s must not be negative, got %d", l.env, *l.value)
		}
	}
	return nil
}

type limit struct {
	env   string
	value *int
}

// limits lists the capacity settings in the order they are checked.
func (c *Config) limits() []limit {
	return []limit{
		{"MAX_FOODS", &c.MaxFoods},
		{"MAX_INGREDIENTS", &c.MaxIngredients},
		{"MAX_ENTRIES", &c.MaxEntries},
		{"MAX_USAGES_PER_ENTRY", &c.MaxUsagesPerEntry},
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s environment variable is not a number: %q", key, v)
	}
	*dst = n
	return nil
}
