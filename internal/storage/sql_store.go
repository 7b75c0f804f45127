package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"meal-ledger/internal/catalog"
	"meal-ledger/internal/ledger"
)

const (
	catalogDocument = "catalog"
	ledgerDocument  = "ledger"
)

// SQLStore keeps the same two documents as rows of the documents table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// SaveCatalog upserts the catalog document.
func (s *SQLStore) SaveCatalog(ctx context.Context, c *catalog.Catalog) error {
	data, err := EncodeCatalog(c.ListFoods())
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return s.put(ctx, catalogDocument, data)
}

// SaveLedger upserts the ledger document.
func (s *SQLStore) SaveLedger(ctx context.Context, l *ledger.Ledger) error {
	data, err := EncodeLedger(l.Entries())
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	return s.put(ctx, ledgerDocument, data)
}

// LoadCatalog reads the catalog document. A missing row is an empty catalog.
func (s *SQLStore) LoadCatalog(ctx context.Context) ([]catalog.Food, error) {
	data, err := s.get(ctx, catalogDocument)
	if err != nil {
		return nil, err
	}
	return DecodeCatalog(data)
}

// LoadLedger reads the ledger document. A missing row is an empty ledger.
func (s *SQLStore) LoadLedger(ctx context.Context) ([]ledger.Entry, error) {
	data, err := s.get(ctx, ledgerDocument)
	if err != nil {
		return nil, err
	}
	return DecodeLedger(data)
}

func (s *SQLStore) put(ctx context.Context, name string, data []byte) error {
	query := `
		INSERT INTO documents (name, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, name, string(data)); err != nil {
		return fmt.Errorf("failed to save %s document: %w", name, err)
	}
	return nil
}

func (s *SQLStore) get(ctx context.Context, name string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s document: %w", name, err)
	}
	return []byte(data), nil
}
