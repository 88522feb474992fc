// Package normalize turns raw table rows into canonical beach records.
package normalize

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"mspro-labs/plage-watch/internal/models"
)

// Normalize builds a BeachRecord from a raw row and its region. The row must
// carry a beach name; everything else is optional.
func Normalize(row models.RawRow, region models.Region) (models.BeachRecord, error) {
	name := clean(row.BeachName)
	key := Key(name)
	if key == "" {
		return models.BeachRecord{}, eris.Wrapf(models.ErrMalformedRow, "row in region %s has no beach name", region.ID)
	}

	return models.BeachRecord{
		Key:            key,
		Name:           name,
		Municipality:   clean(row.Municipality),
		WaterBody:      clean(row.WaterBody),
		RegionID:       clean(region.ID),
		RegionName:     clean(region.Name),
		Rating:         clean(row.Rating),
		LastSampleDate: clean(row.LastSampleDate),
	}, nil
}

// NormalizeAll normalizes every row, returning the good records and the
// malformed-row errors separately so callers can log and move on.
func NormalizeAll(rows []models.RawRow, region models.Region) ([]models.BeachRecord, []error) {
	records := make([]models.BeachRecord, 0, len(rows))
	var errs []error
	for i, row := range rows {
		rec, err := Normalize(row, region)
		if err != nil {
			errs = append(errs, eris.Wrapf(err, "row %d", i))
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

// Key derives the reconciliation key from a beach name. Accents and case are
// folded and runs of whitespace collapse to a single space, so "Plage  Éva"
// and "plage eva" collide.
func Key(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = cases.Fold().String(folded)
	return strings.Join(strings.FieldsFunc(folded, isSpace), " ")
}

func clean(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// isSpace uses the Unicode White_Space property, which covers the no-break
// spaces the source tables are full of.
func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}
