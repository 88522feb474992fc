// Package gate decides whether a stored beach still needs enrichment.
package gate

import (
	"strings"

	"mspro-labs/plage-watch/internal/models"
)

// NeedsEnrichment reports whether the link or the image is still missing.
// A populated URL counts as enriched even if it no longer resolves.
func NeedsEnrichment(rec models.BeachRecord) bool {
	return len(Missing(rec)) > 0
}

// Missing lists the enrichment fields that are absent, empty or blank.
func Missing(rec models.BeachRecord) []models.Field {
	var fields []models.Field
	if IsMissing(rec.Link) {
		fields = append(fields, models.FieldLink)
	}
	if IsMissing(rec.Image) {
		fields = append(fields, models.FieldImage)
	}
	return fields
}

// IsMissing is the single definition of "no value" used across stores.
func IsMissing(v string) bool {
	return strings.TrimSpace(v) == ""
}
