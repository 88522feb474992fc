package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"mspro-labs/plage-watch/internal/models"
)

const defaultSheetName = "Plages"

// SaveXLSX writes a workbook with one sheet: the header row then one row per record.
func SaveXLSX(path, sheetName string, recs []models.BeachRecord) error {
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(models.ErrExport, "xlsx: add sheet %q: %v", sheetName, err)
	}

	addRow(sheet, Header)
	for _, rec := range recs {
		addRow(sheet, Row(rec))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(models.ErrExport, "xlsx: save %s: %v", path, err)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}
