package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRow is returned when a non-blank sheet row lacks the name column.
var ErrMalformedRow = errors.New("malformed catalog row")

// Row is one product line of a brand sheet.
type Row struct {
	Category string
	Name     string
	Variant  string
	Price    string // raw cell, formatted by render.Price
}

// Gateway reads the catalog from its backing store. Every call is a fresh
// remote read.
type Gateway interface {
	ListBrands(ctx context.Context) ([]string, error)
	ListRows(ctx context.Context, brand string) ([]Row, error)
}

// DecodeRow maps raw sheet cells to a Row.
// Column layout: category, name, variant, ..., price (last column).
// Blank rows return ok=false and no error.
func DecodeRow(cells []string) (row Row, ok bool, err error) {
	trimmed := make([]string, len(cells))
	blank := true
	for i, c := range cells {
		trimmed[i] = strings.TrimSpace(c)
		if trimmed[i] != "" {
			blank = false
		}
	}
	if blank {
		return Row{}, false, nil
	}
	if len(trimmed) < 2 {
		return Row{}, false, fmt.Errorf("%w: %d cell(s), want at least 2", ErrMalformedRow, len(trimmed))
	}

	row = Row{
		Category: trimmed[0],
		Name:     trimmed[1],
	}
	// Variant only exists when a separate price column follows it.
	if len(trimmed) > 3 {
		row.Variant = trimmed[2]
	}
	if len(trimmed) >= 3 {
		row.Price = trimmed[len(trimmed)-1]
	}
	return row, true, nil
}

// Categories returns the distinct non-empty categories in first-appearance order.
func Categories(rows []Row) []string {
	seen := make(map[string]struct{}, len(rows))
	var out []string
	for _, r := range rows {
		c := strings.TrimSpace(r.Category)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// InCategory returns the rows whose trimmed category equals category.
func InCategory(rows []Row, category string) []Row {
	var out []Row
	for _, r := range rows {
		if strings.TrimSpace(r.Category) == category {
			out = append(out, r)
		}
	}
	return out
}
