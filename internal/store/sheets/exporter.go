// Package sheets exports owner summaries to a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/core"
	"ledger/internal/store"
)

// Config selects the target spreadsheet and credentials.
type Config struct {
	SpreadsheetID      string
	SheetName          string // base name; the export year is prefixed
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ store.SummaryWriter = (*Exporter)(nil)

// NewExporter creates a Sheets client authenticated with a service account.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Summary"
	}

	creds, err := credentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully", "sheet", base)
	return &Exporter{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetBase: base}, nil
}

// credentials prefers inline JSON, then a file, then GOOGLE_APPLICATION_CREDENTIALS.
func credentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendSummary appends one row to the year's summary sheet.
func (e *Exporter) AppendSummary(ctx context.Context, row store.SummaryRow) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(e.sheetBase, row.ExportedAt.Year())
	rng := fmt.Sprintf("%s!A:L", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{SummaryRowValues(row)}}

	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// SummaryRowValues renders a summary as spreadsheet cells: timestamp, owner,
// the six window totals, grand expense total, then up to three top categories
// as "label (pct%)". Text cells are escaped so user-entered input mode never
// evaluates them as formulas.
func SummaryRowValues(row store.SummaryRow) []any {
	s := row.Summary
	values := []any{
		row.ExportedAt.UTC().Format(time.RFC3339),
		escapeText(row.Owner),
		s.AnnualIncome.String(),
		s.AnnualExpense.String(),
		s.AnnualBalance.String(),
		s.MonthlyIncome.String(),
		s.MonthlyExpense.String(),
		s.MonthlyBalance.String(),
		row.Top.GrandTotal.String(),
	}
	for i := 0; i < 3; i++ {
		if i < len(row.Top.Categories) {
			values = append(values, escapeText(formatShare(row.Top.Categories[i])))
		} else {
			values = append(values, "")
		}
	}
	return values
}

func formatShare(c core.CategoryShare) string {
	return fmt.Sprintf("%s (%s%%)", c.Category, c.Percent.StringFixed(2))
}

// escapeText quotes v when Sheets would otherwise read it as a formula.
func escapeText(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r', '\'':
		return "'" + v
	}
	return v
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
