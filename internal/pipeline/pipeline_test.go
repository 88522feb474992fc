package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mspro-labs/plage-watch/internal/config"
	"mspro-labs/plage-watch/internal/db"
	"mspro-labs/plage-watch/internal/enricher/mocks"
	"mspro-labs/plage-watch/internal/models"
	"mspro-labs/plage-watch/internal/observability"
	"mspro-labs/plage-watch/internal/pipeline"
	"mspro-labs/plage-watch/internal/scraper"
)

type fakeSource struct {
	regions []models.Region
	listErr error
	tables  map[string][]models.RawRow
	errs    map[string]error
	fetched []string
}

func (f *fakeSource) ListRegions(context.Context) ([]models.Region, error) {
	return f.regions, f.listErr
}

func (f *fakeSource) FetchTable(_ context.Context, r models.Region) ([]models.RawRow, error) {
	f.fetched = append(f.fetched, r.ID)
	if err := f.errs[r.ID]; err != nil {
		return nil, err
	}
	return f.tables[r.ID], nil
}

func openStore(t *testing.T) db.Store {
	t.Helper()
	s, err := db.OpenSQLite(filepath.Join(t.TempDir(), "plages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func row(municipality, name string) models.RawRow {
	return models.RawRow{Municipality: municipality, BeachName: name, WaterBody: "Lac", Rating: "A", LastSampleDate: "2024-07-01"}
}

func threeRegions() *fakeSource {
	return &fakeSource{
		regions: []models.Region{
			{ID: "01", Name: "Bas-Saint-Laurent"},
			{ID: "02", Name: "Saguenay–Lac-Saint-Jean"},
			{ID: "03", Name: "Capitale-Nationale"},
		},
		tables: map[string][]models.RawRow{
			"01": {row("Rimouski", "Plage A"), row("Rimouski", "  ")},
			"03": {row("Québec", "Plage C")},
		},
		errs: map[string]error{
			"02": models.ErrNoTableFound,
		},
	}
}

func TestScrape_PartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	src := threeRegions()
	store := openStore(t)
	metrics := observability.NewMetrics()

	p := pipeline.New(src, src, store, nil, pipeline.WithRunMode(config.Prod), pipeline.WithMetrics(metrics))
	report, err := p.Scrape(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"01", "02", "03"}, src.fetched)
	assert.Equal(t, 3, report.RegionsListed)
	assert.Equal(t, 2, report.RegionsScraped)
	assert.Equal(t, 1, report.RegionsSkipped)
	assert.Equal(t, 1, report.RowsMalformed)
	assert.EqualValues(t, 2, report.RecordsUpserted)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RegionsSkipped))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "plage a", all[0].Key)
	assert.Equal(t, "01", all[0].RegionID)
	assert.Equal(t, "plage c", all[1].Key)
	assert.Equal(t, "Capitale-Nationale", all[1].RegionName)
}

func TestScrape_DevModeTakesFirstRegion(t *testing.T) {
	src := threeRegions()
	p := pipeline.New(src, src, openStore(t), nil)

	report, err := p.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"01"}, src.fetched)
	assert.Equal(t, 3, report.RegionsListed)
	assert.Equal(t, 1, report.RegionsScraped)
}

func TestRun_ListingFailureDoesNothing(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{listErr: models.ErrFetch}
	store := openStore(t)
	lookup := mocks.NewMockLookup(t)

	report, err := pipeline.New(src, src, store, lookup, pipeline.WithRunMode(config.Prod)).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Report{}, report)
	assert.Empty(t, src.fetched)
}

type failingStore struct{ db.Store }

func (failingStore) UpsertAll(context.Context, []models.BeachRecord) (int64, error) {
	return 0, errors.New("disk full")
}

func TestScrape_StoreFailureIsFatal(t *testing.T) {
	src := threeRegions()
	p := pipeline.New(src, src, failingStore{openStore(t)}, nil, pipeline.WithRunMode(config.Prod))

	_, err := p.Scrape(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, []string{"01"}, src.fetched)
}

func TestRun_RecordsDuration(t *testing.T) {
	src := threeRegions()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	metrics := observability.NewMetrics()

	lookup := mocks.NewMockLookup(t)
	lookup.On("FindLink", mock.Anything, mock.Anything).Return(models.LinkResult{}, false)
	lookup.On("FindImage", mock.Anything, mock.Anything).Return(models.ImageResult{}, false)

	p := pipeline.New(src, src, openStore(t), lookup,
		pipeline.WithMetrics(metrics), pipeline.WithClock(clock))
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, 2, report.LookupMisses)
	assert.Equal(t, float64(clock.Now().Unix()), testutil.ToFloat64(metrics.LastSuccess))
}

const indexPage = `<html><body><div class="bte-liste-region">
<a href="liste_plage.asp?region=01">Bas-Saint-Laurent</a>
</div></body></html>`

const bslPage = `<html><body><table>
<tr><td colspan="5">Bas-Saint-Laurent</td></tr>
<tr><th>Municipalité</th><th>Plage</th><th>Plan d'eau</th><th>Cote</th><th>Date</th></tr>
<tr><td>Rimouski</td><td>Plage X</td><td>Fleuve</td><td>A</td><td>2024-07-01</td></tr>
<tr><td>Matane</td><td>Plage Y</td><td>Fleuve</td><td>B</td><td>2024-07-02</td></tr>
</table></body></html>`

// TestRun_BasSaintLaurent scrapes a single region twice: the first run finds
// a link for one beach and an image for the other, the second run re-reads the
// same table and makes no lookups for what is already stored.
func TestRun_BasSaintLaurent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/index.asp", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/liste_plage.asp", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("region") != "01" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(bslPage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	store := openStore(t)
	src := scraper.New(scraper.NewHTTPFetcher(5*time.Second, ""), srv.URL)

	lookup := mocks.NewMockLookup(t)
	lookup.On("FindLink", mock.Anything, "Plage X Fleuve Rimouski").
		Return(models.LinkResult{URL: "https://x.example"}, true).Once()
	lookup.On("FindImage", mock.Anything, "Plage X Fleuve Rimouski").
		Return(models.ImageResult{URL: "https://img.example/x.jpg"}, true).Once()
	lookup.On("FindLink", mock.Anything, "Plage Y Fleuve Matane").
		Return(models.LinkResult{URL: "https://y.example"}, true).Once()
	lookup.On("FindImage", mock.Anything, "Plage Y Fleuve Matane").
		Return(models.ImageResult{URL: "https://img.example/y.jpg"}, true).Once()

	p := pipeline.New(src, src, store, lookup, pipeline.WithRunMode(config.Prod))

	first, err := p.Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, first.RecordsUpserted)
	assert.Equal(t, 2, first.Pending)
	assert.Equal(t, 2, first.LinksFound)
	assert.Equal(t, 2, first.ImagesFound)

	second, err := p.Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.RecordsUpserted)
	assert.Equal(t, 0, second.Pending)
	lookup.AssertNumberOfCalls(t, "FindLink", 2)
	lookup.AssertNumberOfCalls(t, "FindImage", 2)

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "https://x.example", all[0].Link)
	assert.Equal(t, "https://img.example/y.jpg", all[1].Image)
}
