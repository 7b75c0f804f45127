package shopping

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const separator = "----------------------------------------"

// FileExporter writes shopping lists as dated text files.
type FileExporter struct {
	basePath string
}

// NewFileExporter creates a FileExporter and ensures the base directory exists.
func NewFileExporter(basePath string) (*FileExporter, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", basePath, err)
	}
	return &FileExporter{basePath: basePath}, nil
}

// sanitizeDate makes the date safe for filenames.
func sanitizeDate(date string) string {
	return strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(date)
}

// PathFor returns the export path for date.
func (e *FileExporter) PathFor(date string) string {
	return filepath.Join(e.basePath, fmt.Sprintf("shopping_list_%s.txt", sanitizeDate(date)))
}

// Export writes list to its dated file, replacing any previous export for that date.
func (e *FileExporter) Export(list ShoppingList) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "SHOPPING LIST %s\n\n", list.Date)
	if err := WriteTable(&buf, list); err != nil {
		return "", err
	}

	path := e.PathFor(list.Date)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write shopping list file: %w", err)
	}
	return path, nil
}

// WriteTable prints the rows as a tab-separated table with two-decimal totals.
func WriteTable(w io.Writer, list ShoppingList) error {
	if _, err := fmt.Fprintf(w, "Ingredient\tUnit\tTotal quantity\n%s\n", separator); err != nil {
		return err
	}
	for _, r := range list.Rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", r.Ingredient, r.Unit, r.Total.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}
