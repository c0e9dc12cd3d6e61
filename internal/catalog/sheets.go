package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lojasmm/lista/internal/metrics"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsGateway reads the catalog from a Google Sheets spreadsheet with one
// sheet per brand. Nothing is cached.
type SheetsGateway struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsGateway builds a gateway for spreadsheetID. Credentials and endpoint
// come from opts (option.WithCredentialsFile in production).
func NewSheetsGateway(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetsGateway, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &SheetsGateway{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// ListBrands returns the sheet titles in spreadsheet order.
func (g *SheetsGateway) ListBrands(ctx context.Context) ([]string, error) {
	start := time.Now()
	resp, err := g.svc.Spreadsheets.Get(g.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	metrics.ObserveCatalogFetch("list_brands", time.Since(start), err == nil)
	if err != nil {
		return nil, newFetchError("list_brands", "", err)
	}

	brands := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties == nil || s.Properties.Title == "" {
			continue
		}
		brands = append(brands, s.Properties.Title)
	}
	return brands, nil
}

// ListRows returns the decoded product rows of the brand's sheet.
// The first row is the header and is skipped, as are blank rows.
func (g *SheetsGateway) ListRows(ctx context.Context, brand string) ([]Row, error) {
	start := time.Now()
	vr, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, sheetRange(brand)).
		Context(ctx).
		Do()
	metrics.ObserveCatalogFetch("list_rows", time.Since(start), err == nil)
	if err != nil {
		return nil, newFetchError("list_rows", brand, err)
	}

	if len(vr.Values) <= 1 {
		return nil, nil
	}

	rows := make([]Row, 0, len(vr.Values)-1)
	for i, raw := range vr.Values[1:] {
		row, ok, err := DecodeRow(cellStrings(raw))
		if err != nil {
			// i+2: 1-based sheet row number after the header.
			return nil, newFetchError("list_rows", brand, fmt.Errorf("row %d: %w", i+2, err))
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// sheetRange addresses a whole sheet in A1 notation.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cellStrings(raw []interface{}) []string {
	cells := make([]string, len(raw))
	for i, v := range raw {
		if v == nil {
			continue
		}
		cells[i] = fmt.Sprint(v)
	}
	return cells
}
