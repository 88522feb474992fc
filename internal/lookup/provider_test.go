package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"mspro-labs/plage-watch/internal/models"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testGoogleProvider(t *testing.T, handler http.HandlerFunc) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewGoogleProvider(context.Background(), GoogleOptions{
		APIKey:   "test-key",
		EngineID: "test-cx",
		Language: "lang_fr",
		Country:  "countryCA",
	}, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return p
}

func TestGoogleProvider_SearchWeb(t *testing.T) {
	p := testGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-cx", q.Get("cx"))
		assert.Equal(t, "Plage Y Z X", q.Get("q"))
		assert.Equal(t, "1", q.Get("num"))
		assert.Equal(t, "lang_fr", q.Get("lr"))
		assert.Equal(t, "countryCA", q.Get("gl"))
		assert.Equal(t, "active", q.Get("safe"))
		assert.Empty(t, q.Get("searchType"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"items":[{"link":"http://example.com/y","title":"Plage Y","snippet":"Baignade"}]}`))
	})

	got, err := p.SearchWeb(context.Background(), "Plage Y Z X", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.LinkResult{URL: "http://example.com/y", Title: "Plage Y", Snippet: "Baignade"}, got[0])
}

func TestGoogleProvider_SearchImages(t *testing.T) {
	p := testGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image", r.URL.Query().Get("searchType"))
		assert.Equal(t, "5", r.URL.Query().Get("num"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"items":[{"link":"http://a/1.jpg"},{"link":""},{"link":"http://a/2.jpg"}]}`))
	})

	got, err := p.SearchImages(context.Background(), "Plage Y", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a/1.jpg", "http://a/2.jpg"}, got)
}

func TestGoogleProvider_NoResults(t *testing.T) {
	p := testGoogleProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{}`))
	})

	got, err := p.SearchWeb(context.Background(), "nowhere", 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGoogleProvider_APIError(t *testing.T) {
	p := testGoogleProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded"}}`))
	})

	_, err := p.SearchImages(context.Background(), "q", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrLookup)
	assert.Contains(t, err.Error(), "429")
}

func TestNewGoogleProvider_RequiresEngine(t *testing.T) {
	_, err := NewGoogleProvider(context.Background(), GoogleOptions{APIKey: "k"})
	assert.Error(t, err)
}
