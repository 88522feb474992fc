package export

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"mspro-labs/plage-watch/internal/models"
)

// SheetsExporter overwrites the first sheet of a spreadsheet.
type SheetsExporter struct {
	svc *sheets.Service
}

// NewSheetsExporter authenticates with a base64-encoded service-account key.
// Extra options are appended after the credentials.
func NewSheetsExporter(ctx context.Context, credentialsB64 string, opts ...option.ClientOption) (*SheetsExporter, error) {
	var clientOpts []option.ClientOption
	if credentialsB64 != "" {
		creds, err := base64.StdEncoding.DecodeString(credentialsB64)
		if err != nil {
			return nil, eris.Wrapf(models.ErrExport, "sheets: decode credentials: %v", err)
		}
		clientOpts = append(clientOpts, option.WithCredentialsJSON(creds), option.WithScopes(sheets.SpreadsheetsScope))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, eris.Wrapf(models.ErrExport, "sheets: new service: %v", err)
	}
	return &SheetsExporter{svc: svc}, nil
}

// Export clears the first sheet and writes the header and records from A1.
func (s *SheetsExporter) Export(ctx context.Context, spreadsheetID string, recs []models.BeachRecord) error {
	doc, err := s.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return eris.Wrapf(models.ErrExport, "sheets: get %s: %v", spreadsheetID, err)
	}
	if len(doc.Sheets) == 0 || doc.Sheets[0].Properties == nil {
		return eris.Wrapf(models.ErrExport, "sheets: %s has no sheet", spreadsheetID)
	}
	title := doc.Sheets[0].Properties.Title
	sheetRange := "'" + strings.ReplaceAll(title, "'", "''") + "'"

	if _, err := s.svc.Spreadsheets.Values.Clear(spreadsheetID, sheetRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return eris.Wrapf(models.ErrExport, "sheets: clear %q: %v", title, err)
	}

	values := make([][]interface{}, 0, len(recs)+1)
	values = append(values, toCells(Header))
	for _, rec := range recs {
		values = append(values, toCells(Row(rec)))
	}

	_, err = s.svc.Spreadsheets.Values.Update(spreadsheetID, sheetRange+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrapf(models.ErrExport, "sheets: update %q: %v", title, err)
	}
	return nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
