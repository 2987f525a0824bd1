package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrtnstkl/fuzzy-search-server/pkg/config"
	"github.com/mrtnstkl/fuzzy-search-server/pkg/dataset"
	"github.com/mrtnstkl/fuzzy-search-server/pkg/fuzzy"
)

// newTestHandler spins up a server over an in-memory dataset built from the
// given NDJSON lines, the same way the command wires it.
func newTestHandler(t *testing.T, lines ...string) http.Handler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	cfg := config.DefaultConfig()
	db := fuzzy.New[dataset.Ref](fuzzy.Options{
		NgramSize:   cfg.Index.NgramSize,
		ResultLimit: cfg.Index.ResultLimit,
	})
	ds := dataset.New(path, dataset.InMemory)
	require.NoError(t, ds.Load(nil, func(id uint32, line string) {
		if line == "" {
			return
		}
		name, err := dataset.ExtractField(line, cfg.Dataset.NameField)
		if err != nil {
			return
		}
		db.Add(name, dataset.Ref{Store: ds, Line: id})
	}))
	db.Build()
	return New(db, cfg, []*dataset.Dataset{ds}).Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestExactHit(t *testing.T) {
	h := newTestHandler(t, `{"name":"Alice","x":1}`, `{"name":"bob","x":2}`)

	rr := get(t, h, "/exact?q=alice")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"name":"Alice","x":1}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCompletionPage(t *testing.T) {
	h := newTestHandler(t, `{"name":"Alice","x":1}`, `{"name":"bob","x":2}`)

	rr := get(t, h, "/complete/list?q=a&count=10&page=0")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[\n\t{\"name\":\"Alice\",\"x\":1}\n]", rr.Body.String())
}

func TestFuzzyNearMiss(t *testing.T) {
	h := newTestHandler(t, `{"name":"Hamburger"}`, `{"name":"Cheeseburger"}`)

	rr := get(t, h, "/fuzzy?q=hambuger")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"name":"Hamburger"}`, rr.Body.String())
}

func TestFuzzyTransposition(t *testing.T) {
	h := newTestHandler(t, `{"name":"receive"}`, `{"name":"deliver"}`)

	rr := get(t, h, "/fuzzy?q=recieve")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"name":"receive"}`, rr.Body.String())
}

func TestFuzzyPrefersExact(t *testing.T) {
	// "axc" is itself indexed, so the fuzzy endpoint must not wander off to
	// a near neighbor.
	h := newTestHandler(t, `{"name":"axc"}`, `{"name":"abc"}`)

	rr := get(t, h, "/fuzzy?q=axc")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"name":"axc"}`, rr.Body.String())
}

func TestFuzzyCompleteRanking(t *testing.T) {
	h := newTestHandler(t, `{"name":"progress"}`, `{"name":"programming"}`, `{"name":"progeny"}`)

	rr := get(t, h, "/fuzzycomplete/list?q=prog&tol=1")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t,
		"[\n\t{\"name\":\"progeny\"},\n\t{\"name\":\"progress\"},\n\t{\"name\":\"programming\"}\n]",
		rr.Body.String(),
		"distance 0 bucket first, shorter names before longer ones")
}

func TestFuzzyCompleteSingle(t *testing.T) {
	h := newTestHandler(t, `{"name":"progress"}`, `{"name":"progeny"}`)

	rr := get(t, h, "/fuzzycomplete?q=prog")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"name":"progeny"}`, rr.Body.String(), "shortest best-distance completion")
}

func TestNoMatches(t *testing.T) {
	h := newTestHandler(t, `{"name":"Alice","x":1}`)

	for _, target := range []string{"/exact?q=zzz", "/complete?q=zzz", "/fuzzy?q=zzz", "/fuzzycomplete?q=zzz"} {
		rr := get(t, h, target)
		assert.Equal(t, http.StatusNotFound, rr.Code, target)
		assert.Equal(t, "no matches", rr.Body.String(), target)
	}
}

func TestMissingQueryParam(t *testing.T) {
	h := newTestHandler(t, `{"name":"Alice","x":1}`)

	for _, target := range []string{"/exact", "/exact/list", "/complete", "/complete/list", "/fuzzy", "/fuzzy/list", "/fuzzycomplete", "/fuzzycomplete/list"} {
		rr := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Equal(t, "missing query parameter q", rr.Body.String(), target)
	}
}

func TestEmptyListBody(t *testing.T) {
	h := newTestHandler(t, `{"name":"Alice","x":1}`)

	rr := get(t, h, "/exact/list?q=zzz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestFuzzyListBestBucket(t *testing.T) {
	h := newTestHandler(t, `{"name":"abcd"}`, `{"name":"abce"}`, `{"name":"xyz"}`)

	rr := get(t, h, "/fuzzy/list?q=abcf")
	assert.Equal(t, http.StatusOK, rr.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	assert.Len(t, rows, 2, "both distance-1 names, nothing beyond the best bucket")
}

func TestListDefaultCount(t *testing.T) {
	lines := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf(`{"name":"a%02d"}`, i))
	}
	h := newTestHandler(t, lines...)

	rr := get(t, h, "/complete/list?q=a")
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	assert.Len(t, rows, 10, "count defaults to 10")

	rr = get(t, h, "/complete/list?q=a&page=1")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	assert.Len(t, rows, 2, "second page holds the rest")
}

func TestInvalidPaginationCoerced(t *testing.T) {
	h := newTestHandler(t, `{"name":"aa"}`, `{"name":"ab"}`)

	rr := get(t, h, "/complete/list?q=a&page=garbage&count=-3")
	assert.Equal(t, http.StatusOK, rr.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	assert.Len(t, rows, 2, "garbage params coerce to 0, meaning everything")
}

func TestPreflight(t *testing.T) {
	h := newTestHandler(t, `{"name":"Alice","x":1}`)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/exact", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "GET")
	assert.Equal(t, "Content-Type", rr.Header().Get("Access-Control-Allow-Headers"))
}

func TestInfo(t *testing.T) {
	h := newTestHandler(t, `{"name":"Alice","x":1}`, `{"name":"bob","x":2}`)

	rr := get(t, h, "/info")
	assert.Equal(t, http.StatusOK, rr.Code)
	var info struct {
		Options struct {
			NgramSize   int    `json:"ngram_size"`
			ResultLimit int    `json:"result_limit"`
			NameField   string `json:"name_field"`
		} `json:"options"`
		Datasets []struct {
			Records int `json:"records"`
		} `json:"datasets"`
		Records int `json:"records"`
		Tokens  int `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, 2, info.Options.NgramSize)
	assert.Equal(t, 100, info.Options.ResultLimit)
	assert.Equal(t, "name", info.Options.NameField)
	assert.Equal(t, 2, info.Records)
	require.Len(t, info.Datasets, 1)
	assert.Equal(t, 2, info.Datasets[0].Records)
	assert.Positive(t, info.Tokens)
}
