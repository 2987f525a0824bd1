/*
Package server exposes the fuzzy database over HTTP.

All query endpoints take a mandatory q parameter; /info takes none. Single-result
endpoints answer with the raw stored record line; list endpoints answer
with a JSON array of record lines. Every response carries a permissive
CORS header so browser frontends can query the server directly.
*/
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/mrtnstkl/fuzzy-search-server/internal/logger"
	"github.com/mrtnstkl/fuzzy-search-server/pkg/config"
	"github.com/mrtnstkl/fuzzy-search-server/pkg/dataset"
	"github.com/mrtnstkl/fuzzy-search-server/pkg/fuzzy"
)

// Server binds the query endpoints to one database.
type Server struct {
	db       *fuzzy.Database[dataset.Ref]
	cfg      *config.Config
	datasets []*dataset.Dataset
	httpd    *http.Server
	logger   *log.Logger
}

// New creates a server for a built database. The dataset list only feeds
// the /info document.
func New(db *fuzzy.Database[dataset.Ref], cfg *config.Config, datasets []*dataset.Dataset) *Server {
	s := &Server{
		db:       db,
		cfg:      cfg,
		datasets: datasets,
		logger:   logger.Default("http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/exact", s.handleExact)
	mux.HandleFunc("/exact/list", s.handleExactList)
	mux.HandleFunc("/complete", s.handleComplete)
	mux.HandleFunc("/complete/list", s.handleCompleteList)
	mux.HandleFunc("/fuzzy", s.handleFuzzy)
	mux.HandleFunc("/fuzzy/list", s.handleFuzzyList)
	mux.HandleFunc("/fuzzycomplete", s.handleFuzzyComplete)
	mux.HandleFunc("/fuzzycomplete/list", s.handleFuzzyCompleteList)
	mux.HandleFunc("/info", s.handleInfo)

	s.httpd = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: cors(mux),
	}
	return s
}

// Handler returns the root handler, CORS wrapper included.
func (s *Server) Handler() http.Handler {
	return s.httpd.Handler
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Infof("listening on %s", s.httpd.Addr)
	err := s.httpd.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the listener and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpd.Shutdown(ctx)
}

// cors stamps every response and answers preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Allow", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
