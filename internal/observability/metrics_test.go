package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Independent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.Upserts.Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.Upserts))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Upserts))
}

func TestObserveLookup(t *testing.T) {
	m := NewMetrics()
	m.ObserveLookup("link", true)
	m.ObserveLookup("image", false)
	m.ObserveLookup("image", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("link", "found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Lookups.WithLabelValues("image", "miss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Lookups.WithLabelValues("image", "found")))
}

func TestPush(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics()
	m.RegionsScraped.Inc()
	require.NoError(t, m.Push(context.Background(), srv.URL, "plage-watch"))

	assert.Equal(t, "/metrics/job/plage-watch", path)
	assert.True(t, strings.Contains(body, "plage_watch_regions_scraped_total"))
}

func TestPush_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetrics().Push(context.Background(), srv.URL, "plage-watch")
	assert.Error(t, err)
}
