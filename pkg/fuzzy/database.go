/*
Package fuzzy implements an in-memory approximate string-search engine: an
n-gram inverted index over a sorted primary table, scored with Optimal
String Alignment distance.

Records are added once, then Build freezes the database: the primary table
is sorted case-insensitively and the inverted index is rebuilt against the
sorted positions. After Build, any number of goroutines may query
concurrently; Add panics. Exact and prefix (completion) queries run as
binary ranges over the sorted table, fuzzy queries shortlist candidates
through shared n-grams and rank them by edit distance.
*/
package fuzzy

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

// Options are the immutable construction parameters of a Database.
// Zero values of MaxBucketSize and ResultLimit mean unlimited; a zero
// NgramSize selects bigrams.
type Options struct {
	// NgramSize is the token width, 2..4. Larger n-grams shrink candidate
	// sets but need the short-word fallback for short names.
	NgramSize int
	// FirstLetter drops fuzzy candidates whose normalized first character
	// differs from the query's.
	FirstLetter bool
	// MaxBucketSize removes index buckets holding more elements at build
	// time. 0 disables pruning.
	MaxBucketSize uint64
	// ResultLimit caps the page size of exact and completion queries.
	// 0 means uncapped.
	ResultLimit int
}

// Entry is one primary-table record: the indexed name and its opaque meta
// payload.
type Entry[T any] struct {
	Name string
	Meta T

	norm string
}

// Database is the search facade, generic over the meta payload carried by
// each record.
type Database[T any] struct {
	opts    Options
	entries []Entry[T]
	index   invertedIndex
	ready   bool
}

// New creates an empty database. NgramSize outside 2..4 panics.
func New[T any](opts Options) *Database[T] {
	if opts.NgramSize == 0 {
		opts.NgramSize = 2
	}
	if opts.NgramSize < 2 || opts.NgramSize > 4 {
		panic(fmt.Sprintf("fuzzy: invalid ngram size %d", opts.NgramSize))
	}
	return &Database[T]{
		opts:  opts,
		index: make(invertedIndex),
	}
}

// Add inserts a record. Empty names are silently skipped. Adding to a built
// database panics: sorting reassigns what ids mean, so late inserts would
// rebuild everything.
func (db *Database[T]) Add(name string, meta T) {
	if db.ready {
		panic("fuzzy: Add called after Build")
	}
	if name == "" {
		return
	}
	db.entries = append(db.entries, Entry[T]{
		Name: name,
		Meta: meta,
		norm: Normalize(name),
	})
}

// Build sorts the primary table and rebuilds the inverted index against the
// sorted positions, then applies oversize pruning. After Build the database
// is immutable and safe for concurrent queries.
func (db *Database[T]) Build() {
	start := time.Now()
	sort.SliceStable(db.entries, func(i, j int) bool {
		return db.entries[i].norm < db.entries[j].norm
	})

	db.index = make(invertedIndex)
	for id := range db.entries {
		e := &db.entries[id]
		length := len(e.norm)
		if length > math.MaxUint16 {
			length = math.MaxUint16
		}
		db.index.add(Tokens(e.norm, db.opts.NgramSize), uint32(id), uint16(length))
	}

	pruned := 0
	if db.opts.MaxBucketSize > 0 {
		pruned = db.index.prune(db.opts.MaxBucketSize)
	}
	db.ready = true
	log.Debugf("built index: %d entries, %d tokens, %d buckets pruned in %s",
		len(db.entries), len(db.index), pruned, time.Since(start))
}

// Ready reports whether Build has run.
func (db *Database[T]) Ready() bool {
	return db.ready
}

// Len returns the number of records.
func (db *Database[T]) Len() int {
	return len(db.entries)
}

// TokenCount returns the number of n-gram tokens in the inverted index.
func (db *Database[T]) TokenCount() int {
	return len(db.index)
}

// Options returns the construction options.
func (db *Database[T]) Options() Options {
	return db.opts
}

// ensureReady lazily builds on first query. Not safe against concurrent
// first queries; the server builds explicitly before listening.
func (db *Database[T]) ensureReady() {
	if !db.ready {
		db.Build()
	}
}

// ExactSearch returns the records whose name equals q case-insensitively,
// with distance 0, paginated per extractPage.
func (db *Database[T]) ExactSearch(q string, page, size int) *Collection[T] {
	db.ensureReady()
	nq := Normalize(q)
	lo := sort.Search(len(db.entries), func(i int) bool { return db.entries[i].norm >= nq })
	hi := sort.Search(len(db.entries), func(i int) bool { return db.entries[i].norm > nq })
	return db.extractPage(lo, hi, page, size)
}

// CompletionSearch returns the records whose name starts with q
// case-insensitively, with distance 0, paginated. Both sides of the
// comparison are truncated to len(q), which keeps the range contiguous
// because the table is sorted by the same key untruncated.
func (db *Database[T]) CompletionSearch(q string, page, size int) *Collection[T] {
	db.ensureReady()
	nq := Normalize(q)
	trunc := func(s string) string {
		if len(s) > len(nq) {
			return s[:len(nq)]
		}
		return s
	}
	lo := sort.Search(len(db.entries), func(i int) bool { return trunc(db.entries[i].norm) >= nq })
	hi := sort.Search(len(db.entries), func(i int) bool { return trunc(db.entries[i].norm) > nq })
	return db.extractPage(lo, hi, page, size)
}

// FuzzySearch shortlists records sharing at least one n-gram with q and
// scores each by OSA distance. truncate > 0 caps every candidate name at
// its first truncate characters before scoring; 0 scores full names.
// An empty query yields an empty collection.
func (db *Database[T]) FuzzySearch(q string, truncate int) *Collection[T] {
	db.ensureReady()
	results := NewCollection[T]()
	if q == "" {
		return results
	}
	nq := Normalize(q)
	if nq == "" {
		return results
	}

	for _, id := range db.index.candidates(Tokens(nq, db.opts.NgramSize)) {
		e := &db.entries[id]
		if db.opts.FirstLetter && e.norm[0] != nq[0] {
			continue
		}
		limit := len(e.norm)
		if truncate > 0 && truncate < limit {
			limit = truncate
		}
		results.Add(e, Distance(nq, e.norm[:limit]))
	}
	return results
}

// FuzzyCompletionSearch scores candidates against only their first len(q)
// characters, so longer names starting near q rank close to it.
func (db *Database[T]) FuzzyCompletionSearch(q string) *Collection[T] {
	return db.FuzzySearch(q, len(Normalize(q)))
}

// extractPage emits entries [page*size, page*size+size) of the table range
// [lo, hi) with distance 0. size 0 means one page of everything; the size
// is then clamped to the database result limit. Pages at or past the range
// end come back empty.
func (db *Database[T]) extractPage(lo, hi, page, size int) *Collection[T] {
	results := NewCollection[T]()
	n := hi - lo
	if n <= 0 {
		return results
	}
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		page, size = 0, n
	}
	if db.opts.ResultLimit > 0 && size > db.opts.ResultLimit {
		size = db.opts.ResultLimit
	}
	if page > n/size {
		return results
	}
	start := page * size
	end := start + size
	if end > n {
		end = n
	}
	for i := start; i < end; i++ {
		results.Add(&db.entries[lo+i], 0)
	}
	return results
}
