package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsExporter writes the portfolio table to a Google spreadsheet
type SheetsExporter struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsExporter authenticates with a base64 encoded service account key
func NewSheetsExporter(ctx context.Context, credentialsBase64, spreadsheetID, sheetName string) (*SheetsExporter, error) {
	credBytes, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to base64 decode credentials: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credBytes, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from json: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, err
	}
	return NewSheetsExporterWithService(srv, spreadsheetID, sheetName), nil
}

// NewSheetsExporterFromEnv reads the key from the named environment variable
func NewSheetsExporterFromEnv(ctx context.Context, envName, spreadsheetID, sheetName string) (*SheetsExporter, error) {
	creds := os.Getenv(envName)
	if creds == "" {
		return nil, fmt.Errorf("%s not set", envName)
	}
	return NewSheetsExporter(ctx, creds, spreadsheetID, sheetName)
}

// NewSheetsExporterWithService wraps an existing Sheets service
func NewSheetsExporterWithService(srv *sheets.Service, spreadsheetID, sheetName string) *SheetsExporter {
	return &SheetsExporter{srv: srv, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// Export clears the sheet and writes the table from A1. It returns the updated range.
func (e *SheetsExporter) Export(ctx context.Context, rows []TableRow) (string, error) {
	values, err := TableValues(rows)
	if err != nil {
		return "", err
	}

	if _, err := e.srv.Spreadsheets.Values.Clear(e.spreadsheetID, e.sheetName, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clearing sheet %s: %w", e.sheetName, err)
	}

	valueRange := &sheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         values,
	}
	resp, err := e.srv.Spreadsheets.Values.Update(e.spreadsheetID, e.sheetName+"!A1", valueRange).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("updating sheet %s: %w", e.sheetName, err)
	}
	return resp.UpdatedRange, nil
}

// TableValues renders rows, header first, as sheet cells. Cells carry the same text as the
// CSV export so NaN and Inf survive as strings.
func TableValues(rows []TableRow) ([][]interface{}, error) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, rows); err != nil {
		return nil, err
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		return nil, err
	}

	values := make([][]interface{}, len(records))
	for i, record := range records {
		values[i] = make([]interface{}, len(record))
		for j, cell := range record {
			values[i][j] = cell
		}
	}
	return values, nil
}
