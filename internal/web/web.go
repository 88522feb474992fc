// Package web serves the stored beaches as HTML.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/db"
	"mspro-labs/plage-watch/internal/observability"
	"mspro-labs/plage-watch/internal/searcher"
)

//go:embed templates
var assets embed.FS

var funcMap = template.FuncMap{
	"percent": func(score float64) int { return int(score*100 + 0.5) },
}

type Server struct {
	store      db.Store
	homeTmpl   *template.Template
	searchTmpl *template.Template
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewServer parses the templates. metrics may be nil, in which case no
// /metrics route is mounted.
func NewServer(store db.Store, metrics *observability.Metrics) (*Server, error) {
	// Parsed separately so the "content" blocks do not collide.
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(assets, "templates/base.html")
	if err != nil {
		return nil, eris.Wrap(err, "web: parse base template")
	}

	home, err := template.Must(base.Clone()).ParseFS(assets, "templates/card.html", "templates/home.html")
	if err != nil {
		return nil, eris.Wrap(err, "web: parse home template")
	}

	search, err := template.Must(base.Clone()).ParseFS(assets, "templates/card.html", "templates/search.html")
	if err != nil {
		return nil, eris.Wrap(err, "web: parse search template")
	}

	return &Server{
		store:      store,
		homeTmpl:   home,
		searchTmpl: search,
		metrics:    metrics,
		logger:     zap.L().Named("web"),
	}, nil
}

// Handler returns the routes of the UI.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.home)
	mux.HandleFunc("/search", s.search)
	if s.metrics != nil {
		mux.Handle("/metrics", s.refreshPending(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}
	return mux
}

// refreshPending sets the pending gauge from the store before each scrape.
func (s *Server) refreshPending(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pending, err := s.store.QueryMissingEnrichment(r.Context())
		if err != nil {
			s.logger.Warn("count pending beaches", zap.Error(err))
		} else {
			s.metrics.Pending.Set(float64(len(pending)))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	beaches, err := s.store.All(r.Context())
	if err != nil {
		s.logger.Error("load beaches", zap.Error(err))
		http.Error(w, "Failed to load beaches", http.StatusInternalServerError)
		return
	}

	if err := s.homeTmpl.ExecuteTemplate(w, "base.html", beaches); err != nil {
		s.logger.Error("render home", zap.Error(err))
	}
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	results, err := searcher.Perform(r.Context(), s.store, query, 20)
	if err != nil {
		s.logger.Error("search", zap.String("query", query), zap.Error(err))
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	data := struct {
		Query   string
		Results []searcher.Result
	}{
		Query:   query,
		Results: results,
	}
	if err := s.searchTmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("render search", zap.String("query", query), zap.Error(err))
	}
}
