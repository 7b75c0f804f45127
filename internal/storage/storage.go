package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"meal-ledger/internal/catalog"
	"meal-ledger/internal/ledger"
)

const (
	catalogFile = "catalog.json"
	ledgerFile  = "ledger.json"
)

// FileStore keeps the catalog and the ledger as two JSON documents in a
// directory.
type FileStore struct {
	basePath string
}

// NewFileStore creates a new FileStore and ensures the base directory exists.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FileStore{basePath: basePath}, nil
}

// CatalogPath returns the location of the catalog document.
func (s *FileStore) CatalogPath() string {
	return filepath.Join(s.basePath, catalogFile)
}

// LedgerPath returns the location of the ledger document.
func (s *FileStore) LedgerPath() string {
	return filepath.Join(s.basePath, ledgerFile)
}

// SaveCatalog writes the full catalog document.
func (s *FileStore) SaveCatalog(_ context.Context, c *catalog.Catalog) error {
	data, err := EncodeCatalog(c.ListFoods())
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := writeFileAtomic(s.CatalogPath(), data); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// SaveLedger writes the full ledger document.
func (s *FileStore) SaveLedger(_ context.Context, l *ledger.Ledger) error {
	data, err := EncodeLedger(l.Entries())
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	if err := writeFileAtomic(s.LedgerPath(), data); err != nil {
		return fmt.Errorf("failed to write ledger file: %w", err)
	}
	return nil
}

// LoadCatalog reads the catalog document. A missing file is an empty catalog.
func (s *FileStore) LoadCatalog(_ context.Context) ([]catalog.Food, error) {
	data, err := readIfExists(s.CatalogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return DecodeCatalog(data)
}

// LoadLedger reads the ledger document. A missing file is an empty ledger.
func (s *FileStore) LoadLedger(_ context.Context) ([]ledger.Entry, error) {
	data, err := readIfExists(s.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}
	return DecodeLedger(data)
}

func readIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// writeFileAtomic replaces path in one rename so a crash never leaves a
// truncated document behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
