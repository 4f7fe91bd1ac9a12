// Package google mirrors the ledger into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"budget/internal/core"
	ports "budget/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.TransactionMirror = (*Client)(nil)

var headerRow = []interface{}{"ID", "Date", "Kind", "Category", "Note", "Amount", "Created At"}

// New creates a Sheets client for the given spreadsheet and sheet name, an
// empty name targets "Transactions". Credentials come from
// GOOGLE_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS / ADC.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}

	if sheetName = strings.TrimSpace(sheetName); sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	if credJSON := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_JSON")); credJSON != "" {
		return gsheet.NewService(ctx, goption.WithCredentialsJSON([]byte(credJSON)))
	}
	// Fall back to GOOGLE_APPLICATION_CREDENTIALS / ADC.
	return gsheet.NewService(ctx, goption.WithScopes(gsheet.SpreadsheetsScope))
}

// MirrorTransactions clears the sheet and rewrites it with a header row
// followed by one row per transaction, oldest first.
func (c *Client) MirrorTransactions(ctx context.Context, txs []core.Transaction) error {
	start := time.Now()
	clearRange := fmt.Sprintf("%s!A:G", c.sheetName)

	if _, err := c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %q: %w", c.sheetName, err)
	}

	values := make([][]interface{}, 0, len(txs)+1)
	values = append(values, headerRow)
	for i := len(txs) - 1; i >= 0; i-- { // ledger order is newest first
		tx := txs[i]
		values = append(values, []interface{}{
			tx.ID,
			tx.Date.String(),
			string(tx.Kind),
			tx.Category,
			tx.Note,
			core.FormatCents(tx.Amount.Cents),
			tx.CreatedAt.Format(time.RFC3339),
		})
	}

	if _, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, fmt.Sprintf("%s!A1", c.sheetName), &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet %q: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Mirrored ledger to spreadsheet",
		"sheet", c.sheetName,
		"rows", len(txs),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
