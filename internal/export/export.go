// Package export writes the stored beaches to JSON, XLSX and Google Sheets.
package export

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/models"
)

// Header is the column order shared by the tabular exports.
var Header = []string{
	"id", "key", "name", "municipality", "waterBody", "regionId", "regionName",
	"rating", "lastSampleDate", "link", "image",
}

// Row renders rec in Header order.
func Row(rec models.BeachRecord) []string {
	return []string{
		rec.ID, rec.Key, rec.Name, rec.Municipality, rec.WaterBody, rec.RegionID, rec.RegionName,
		rec.Rating, rec.LastSampleDate, rec.Link, rec.Image,
	}
}

// Options selects the export targets. Empty paths and ids are skipped.
type Options struct {
	JSONPath      string
	XLSXPath      string
	SheetName     string
	SpreadsheetID string
	Credentials   string // base64 service-account JSON
}

// All writes recs to every configured target. A failing target does not stop
// the others; the failures are logged and returned joined.
func All(ctx context.Context, recs []models.BeachRecord, opts Options) error {
	logger := zap.L().Named("export")
	var errs []error

	if opts.JSONPath != "" {
		if err := SaveJSON(opts.JSONPath, recs); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("json written", zap.String("path", opts.JSONPath), zap.Int("records", len(recs)))
		}
	}

	if opts.XLSXPath != "" {
		if err := SaveXLSX(opts.XLSXPath, opts.SheetName, recs); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("xlsx written", zap.String("path", opts.XLSXPath))
		}
	}

	if opts.SpreadsheetID != "" {
		if err := exportSheets(ctx, recs, opts); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("spreadsheet updated", zap.String("spreadsheet_id", opts.SpreadsheetID))
		}
	}

	for _, err := range errs {
		logger.Error("export failed", zap.Error(err))
	}
	return errors.Join(errs...)
}

func exportSheets(ctx context.Context, recs []models.BeachRecord, opts Options) error {
	if opts.Credentials == "" {
		return eris.Wrap(models.ErrExport, "sheets: no credentials configured")
	}
	s, err := NewSheetsExporter(ctx, opts.Credentials)
	if err != nil {
		return err
	}
	return s.Export(ctx, opts.SpreadsheetID, recs)
}
