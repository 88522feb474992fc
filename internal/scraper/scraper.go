// Package scraper reads the region index and the per-region beach tables
// of the Environnement-Plage listing.
package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/models"
)

// DefaultBaseURL is the public listing.
const DefaultBaseURL = "https://www.environnement.gouv.qc.ca/programmes/env-plage/"

const (
	indexPage    = "index.asp"
	listPage     = "liste_plage.asp"
	tableColumns = 5
)

// Scraper turns source pages into regions and raw rows.
type Scraper struct {
	fetcher PageFetcher
	baseURL string
	logger  *zap.Logger
}

// New creates a scraper reading pages under baseURL through fetcher.
func New(fetcher PageFetcher, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Scraper{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  zap.L().Named("scraper"),
	}
}

// RegionURL is the listing page of one region.
func (s *Scraper) RegionURL(regionID string) string {
	return s.baseURL + listPage + "?region=" + url.QueryEscape(regionID)
}

// ListRegions reads the region index in page order.
func (s *Scraper) ListRegions(ctx context.Context) ([]models.Region, error) {
	u := s.baseURL + indexPage
	s.logger.Debug("fetching region index", zap.String("url", u))
	html, err := s.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	regions, err := parseRegions(html)
	if err != nil {
		return nil, err
	}
	s.logger.Info("regions listed", zap.Int("count", len(regions)))
	return regions, nil
}

// FetchTable returns the rows of the first table on the region page.
func (s *Scraper) FetchTable(ctx context.Context, region models.Region) ([]models.RawRow, error) {
	u := s.RegionURL(region.ID)
	s.logger.Debug("fetching region table", zap.String("region", region.Name), zap.String("url", u))
	html, err := s.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	rows, err := parseTable(html)
	if err != nil {
		return nil, eris.Wrapf(err, "region %s (%s)", region.ID, region.Name)
	}
	return rows, nil
}

func parseRegions(html string) ([]models.Region, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "scraper: parse region index")
	}

	var regions []models.Region
	seen := map[string]bool{}
	doc.Find("div.bte-liste-region a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		name := strings.TrimSpace(a.Text())
		if len(href) < 2 || name == "" {
			return
		}
		// Region ids are the last two characters of the link, e.g. "...?region=01".
		id := href[len(href)-2:]
		if seen[id] {
			return
		}
		seen[id] = true
		regions = append(regions, models.Region{ID: id, Name: name})
	})
	return regions, nil
}

// parseTable reads the first table: the title row is skipped, then any row
// with header cells or fewer than five data cells.
func parseTable(html string) ([]models.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "scraper: parse region page")
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, eris.Wrap(models.ErrNoTableFound, "scraper")
	}

	var rows []models.RawRow
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 || tr.Find("th").Length() > 0 {
			return
		}
		cells := tr.ChildrenFiltered("td")
		if cells.Length() < tableColumns {
			return
		}
		text := func(n int) string {
			return strings.TrimSpace(cells.Eq(n).Text())
		}
		rows = append(rows, models.RawRow{
			Municipality:   text(0),
			BeachName:      text(1),
			WaterBody:      text(2),
			Rating:         text(3),
			LastSampleDate: text(4),
		})
	})
	return rows, nil
}
