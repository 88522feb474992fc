package db

import (
	"context"

	"mspro-labs/plage-watch/internal/models"
)

// Store is the key-addressed beach collection shared by every run.
// Implementations commit each call before returning, so an interrupted
// run keeps everything written up to the last successful call.
type Store interface {
	// Upsert inserts the record or refreshes the descriptive fields of the
	// record with the same key. Link and image are never touched.
	Upsert(ctx context.Context, rec models.BeachRecord) error
	// UpsertAll upserts a batch and returns the number of rows affected.
	UpsertAll(ctx context.Context, recs []models.BeachRecord) (int64, error)
	// QueryMissingEnrichment returns, in store order, every record the
	// enrichment gate flags.
	QueryMissingEnrichment(ctx context.Context) ([]models.BeachRecord, error)
	// UpdateField sets one field on an existing record. Unknown keys are a no-op.
	UpdateField(ctx context.Context, key string, field models.Field, value string) error
	Get(ctx context.Context, key string) (models.BeachRecord, bool, error)
	All(ctx context.Context) ([]models.BeachRecord, error)
	Close() error
}
