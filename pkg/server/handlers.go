package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mrtnstkl/fuzzy-search-server/pkg/dataset"
	"github.com/mrtnstkl/fuzzy-search-server/pkg/fuzzy"
)

const defaultListCount = 10

// query pulls the mandatory q parameter, answering 400 when absent.
func (s *Server) query(w http.ResponseWriter, r *http.Request) (string, bool) {
	values, ok := r.URL.Query()["q"]
	if !ok || len(values) == 0 {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "missing query parameter q")
		return "", false
	}
	return values[0], true
}

// intParam parses an integer query parameter. Garbage and negative values
// coerce to 0.
func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, "no matches")
}

// writeSingle answers with the raw stored line of the first result.
func writeSingle(w http.ResponseWriter, res fuzzy.Result[dataset.Ref]) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, res.Entry.Meta.Text())
}

// writeList answers with a JSON array of stored lines, one per row.
func writeList(w http.ResponseWriter, results []fuzzy.Result[dataset.Ref]) {
	w.Header().Set("Content-Type", "application/json")
	if len(results) == 0 {
		io.WriteString(w, "[]")
		return
	}
	io.WriteString(w, "[\n")
	for i, res := range results {
		io.WriteString(w, "\t")
		io.WriteString(w, res.Entry.Meta.Text())
		if i+1 < len(results) {
			io.WriteString(w, ",")
		}
		io.WriteString(w, "\n")
	}
	io.WriteString(w, "]")
}

func bestName(c *fuzzy.Collection[dataset.Ref]) string {
	if c.Empty() {
		return "not found"
	}
	return c.Best()[0].Entry.Name
}

func (s *Server) handleExact(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	start := time.Now()
	results := s.db.ExactSearch(q, 0, 1)
	s.logger.Infof("exact-searched %q in %s", q, time.Since(start))
	if results.Empty() {
		notFound(w)
		return
	}
	writeSingle(w, results.Best()[0])
}

func (s *Server) handleExactList(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	page := intParam(r, "page", 0)
	count := intParam(r, "count", defaultListCount)
	start := time.Now()
	results := s.db.ExactSearch(q, page, count)
	s.logger.Infof("exact-searched %q in %s", q, time.Since(start))
	writeList(w, results.All())
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	page := intParam(r, "page", 0)
	count := intParam(r, "count", defaultListCount)
	start := time.Now()
	results := s.db.CompletionSearch(q, page, count)
	s.logger.Infof("completion-searched %q in %s", q, time.Since(start))
	if results.Empty() {
		notFound(w)
		return
	}
	writeSingle(w, results.Best()[0])
}

func (s *Server) handleCompleteList(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	page := intParam(r, "page", 0)
	count := intParam(r, "count", defaultListCount)
	start := time.Now()
	results := s.db.CompletionSearch(q, page, count)
	s.logger.Infof("completion-searched %q in %s", q, time.Since(start))
	writeList(w, results.All())
}

func (s *Server) handleFuzzy(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	start := time.Now()
	results := s.db.ExactSearch(q, 0, 1)
	if results.Empty() {
		results = s.db.FuzzySearch(q, 0)
	}
	s.logger.Infof("fuzzy-searched %q in %s: %s", q, time.Since(start), bestName(results))
	if results.Empty() {
		notFound(w)
		return
	}
	writeSingle(w, results.Best()[0])
}

func (s *Server) handleFuzzyList(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	start := time.Now()
	results := s.db.ExactSearch(q, 0, 0)
	if results.Empty() {
		results = s.db.FuzzySearch(q, 0)
	}
	s.logger.Infof("fuzzy-searched %q in %s: %s", q, time.Since(start), bestName(results))
	writeList(w, results.Best())
}

func (s *Server) handleFuzzyComplete(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	start := time.Now()
	results := s.db.FuzzyCompletionSearch(q)
	s.logger.Infof("fuzzy-completed %q in %s: %s", q, time.Since(start), bestName(results))
	opts := fuzzy.DefaultExtract()
	opts.MaxCount = 1
	opts.LengthSort = true
	extracted := results.Extract(opts)
	if len(extracted) == 0 {
		notFound(w)
		return
	}
	writeSingle(w, extracted[0])
}

func (s *Server) handleFuzzyCompleteList(w http.ResponseWriter, r *http.Request) {
	q, ok := s.query(w, r)
	if !ok {
		return
	}
	tol := intParam(r, "tol", 2)
	start := time.Now()
	results := s.db.FuzzyCompletionSearch(q)
	s.logger.Infof("fuzzy-completed %q in %s: %s", q, time.Since(start), bestName(results))
	writeList(w, results.Extract(fuzzy.ExtractOptions{
		MaxCount:      50,
		LengthSort:    true,
		DistanceRange: tol,
		MaxDistance:   fuzzy.Unlimited,
	}))
}

type infoResponse struct {
	Options  infoOptions   `json:"options"`
	Datasets []infoDataset `json:"datasets"`
	Records  int           `json:"records"`
	Tokens   int           `json:"tokens"`
}

type infoOptions struct {
	NgramSize   int    `json:"ngram_size"`
	FirstLetter bool   `json:"first_letter"`
	BucketCap   uint64 `json:"bucket_cap"`
	ResultLimit int    `json:"result_limit"`
	NameField   string `json:"name_field"`
}

type infoDataset struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
	Disk    bool   `json:"disk"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	opts := s.db.Options()
	info := infoResponse{
		Options: infoOptions{
			NgramSize:   opts.NgramSize,
			FirstLetter: opts.FirstLetter,
			BucketCap:   opts.MaxBucketSize,
			ResultLimit: opts.ResultLimit,
			NameField:   s.cfg.Dataset.NameField,
		},
		Datasets: make([]infoDataset, 0, len(s.datasets)),
		Records:  s.db.Len(),
		Tokens:   s.db.TokenCount(),
	}
	for _, ds := range s.datasets {
		info.Datasets = append(info.Datasets, infoDataset{
			Path:    ds.Path(),
			Records: ds.Len(),
			Disk:    ds.Disk(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}
