package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mspro-labs/plage-watch/internal/db"
	"mspro-labs/plage-watch/internal/models"
	"mspro-labs/plage-watch/internal/observability"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := db.OpenSQLite(filepath.Join(t.TempDir(), "plages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, models.BeachRecord{
		Key: "plage x", Name: "Plage X", Municipality: "Rimouski", WaterBody: "Fleuve", RegionName: "Bas-Saint-Laurent", Rating: "A",
	}))
	require.NoError(t, store.Upsert(ctx, models.BeachRecord{Key: "plage y", Name: "Plage Y", Municipality: "Matane"}))
	require.NoError(t, store.UpdateField(ctx, "plage x", models.FieldImage, "https://img.example/x.jpg"))
	require.NoError(t, store.UpdateField(ctx, "plage x", models.FieldLink, "https://x.example"))

	m := observability.NewMetrics()
	m.Upserts.Add(2)
	s, err := NewServer(store, m)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHome(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "2 plages")
	assert.Contains(t, body, `<a href="https://x.example" rel="noopener">Plage X</a>`)
	assert.Contains(t, body, `src="https://img.example/x.jpg"`)
	assert.Contains(t, body, "Plage Y")
}

func TestHome_UnknownPath(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/search?q=matane")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Plage Y")
	assert.NotContains(t, body, "Plage X")
	assert.Contains(t, body, "100 %")
	assert.Contains(t, body, `value="matane"`)

	rec = get(t, h, "/search?q=qqqqzzzz")
	assert.Contains(t, rec.Body.String(), "Aucune plage trouvée.")
}

func TestSearch_EmptyQueryRedirects(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/search")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestMetrics(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "plage_watch_records_upserted_total 2")
	assert.Contains(t, body, "plage_watch_records_pending_enrichment 1")
}
