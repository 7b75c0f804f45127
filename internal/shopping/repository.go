package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository handles persistence of exported shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save stores an exported shopping list and returns its ID.
func (r *Repository) Save(ctx context.Context, list *ShoppingList) (int64, error) {
	itemsJSON, err := json.Marshal(list.Rows)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list rows: %w", err)
	}

	createdAt := list.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (list_date, items, created_at) VALUES (?, ?, ?)`,
		list.Date, string(itemsJSON), createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read shopping list id: %w", err)
	}
	list.ID = id
	return id, nil
}

// GetLatestByDate retrieves the most recent export for a date.
func (r *Repository) GetLatestByDate(ctx context.Context, date string) (*ShoppingList, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, list_date, items, created_at FROM shopping_lists
		 WHERE list_date = ? ORDER BY id DESC LIMIT 1`,
		date,
	)

	var (
		list  ShoppingList
		items string
	)
	if err := row.Scan(&list.ID, &list.Date, &items, &list.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No export for this date
		}
		return nil, fmt.Errorf("failed to get shopping list by date: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &list.Rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list rows: %w", err)
	}
	return &list, nil
}

// ListDates returns every date with at least one export, oldest export first.
func (r *Repository) ListDates(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT list_date FROM shopping_lists GROUP BY list_date ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping list dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan shopping list date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// DeleteByDate deletes every export for a date.
func (r *Repository) DeleteByDate(ctx context.Context, date string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE list_date = ?`, date); err != nil {
		return fmt.Errorf("failed to delete shopping lists for %s: %w", date, err)
	}
	return nil
}
