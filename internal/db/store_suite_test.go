package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mspro-labs/plage-watch/internal/models"
)

// runStoreSuite checks the reconciliation contract every backend must honour.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Run("upsert is idempotent per key", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		batch := []models.BeachRecord{plage("plage y", "X"), plage("plage z", "X")}

		_, err := s.UpsertAll(ctx, batch)
		require.NoError(t, err)
		_, err = s.UpsertAll(ctx, batch)
		require.NoError(t, err)
		require.NoError(t, s.Upsert(ctx, batch[0]))

		all, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "plage y", all[0].Key)
		assert.Equal(t, "plage z", all[1].Key)
		assert.NotEqual(t, all[0].ID, all[1].ID)
	})

	t.Run("upsert refreshes descriptive fields", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Upsert(ctx, plage("plage y", "X")))

		updated := plage("plage y", "X")
		updated.Rating = "C"
		updated.LastSampleDate = "2024-08-15"
		require.NoError(t, s.Upsert(ctx, updated))

		got, ok, err := s.Get(ctx, "plage y")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "C", got.Rating)
		assert.Equal(t, "2024-08-15", got.LastSampleDate)
	})

	t.Run("upsert never clobbers enrichment", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Upsert(ctx, plage("plage y", "X")))
		require.NoError(t, s.UpdateField(ctx, "plage y", models.FieldLink, "http://example.com/y"))
		require.NoError(t, s.UpdateField(ctx, "plage y", models.FieldImage, "http://example.com/y.jpg"))

		rescraped := plage("plage y", "X")
		rescraped.Rating = "B"
		require.NoError(t, s.Upsert(ctx, rescraped))

		// Even a record carrying enrichment values must not write them.
		sneaky := plage("plage y", "X")
		sneaky.Rating = "B"
		sneaky.Link = "http://other"
		_, err := s.UpsertAll(ctx, []models.BeachRecord{sneaky})
		require.NoError(t, err)

		got, ok, err := s.Get(ctx, "plage y")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "B", got.Rating)
		assert.Equal(t, "http://example.com/y", got.Link)
		assert.Equal(t, "http://example.com/y.jpg", got.Image)
	})

	t.Run("upsert ignores enrichment on insert", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		rec := plage("plage w", "X")
		rec.Link = "http://pre"
		require.NoError(t, s.Upsert(ctx, rec))

		got, _, err := s.Get(ctx, "plage w")
		require.NoError(t, err)
		assert.Empty(t, got.Link)
	})

	t.Run("query missing enrichment", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		_, err := s.UpsertAll(ctx, []models.BeachRecord{
			plage("plage a", "X"), plage("plage b", "X"), plage("plage c", "X"),
		})
		require.NoError(t, err)

		require.NoError(t, s.UpdateField(ctx, "plage a", models.FieldLink, "http://a"))
		require.NoError(t, s.UpdateField(ctx, "plage a", models.FieldImage, "http://a.jpg"))
		require.NoError(t, s.UpdateField(ctx, "plage b", models.FieldLink, "http://b"))
		require.NoError(t, s.UpdateField(ctx, "plage b", models.FieldImage, ""))

		pending, err := s.QueryMissingEnrichment(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"plage b", "plage c"}, keys(pending))

		again, err := s.QueryMissingEnrichment(ctx)
		require.NoError(t, err)
		assert.Equal(t, keys(pending), keys(again), "order is stable within a run")
	})

	t.Run("update field on unknown key is a no-op", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.UpdateField(ctx, "nowhere", models.FieldLink, "http://x"))

		_, ok, err := s.Get(ctx, "nowhere")
		require.NoError(t, err)
		assert.False(t, ok)

		all, err := s.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("update field rejects unknown fields", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Upsert(ctx, plage("plage y", "X")))

		err := s.UpdateField(ctx, "plage y", models.Field("key; DROP TABLE beach"), "x")
		assert.ErrorIs(t, err, models.ErrUnknownField)
	})

	t.Run("upsert requires a key", func(t *testing.T) {
		s := open(t)
		err := s.Upsert(context.Background(), models.BeachRecord{Name: "nameless"})
		assert.ErrorIs(t, err, models.ErrMalformedRow)
	})
}

func plage(key, municipality string) models.BeachRecord {
	return models.BeachRecord{
		Key:            key,
		Name:           key,
		Municipality:   municipality,
		WaterBody:      "Z",
		RegionID:       "01",
		RegionName:     "Bas-Saint-Laurent",
		Rating:         "A",
		LastSampleDate: "2024-07-01",
	}
}

func keys(recs []models.BeachRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Key)
	}
	return out
}
