/*
Package main implements the fuzzy search server.

The server indexes one or more newline-delimited JSON datasets in memory
and answers exact, prefix-completion, fuzzy, and fuzzy-completion queries
over HTTP. One JSON field per record (default "name") becomes the search
key; the full original line is returned as the result payload.

# Usage

Serve a dataset on the default port:

	fuzzyserver cities.ndjson

Trigram index with first-letter filtering on port 3000:

	fuzzyserver cities.ndjson streets.ndjson -tri -fl -p 3000

Large datasets without keeping every line in memory:

	fuzzyserver big.ndjson -disk -cache

# Query endpoints

Every query endpoint takes the query in the q parameter; /info takes none:

	GET /exact?q=berlin
	GET /complete/list?q=ber&page=0&count=10
	GET /fuzzy?q=berlni
	GET /fuzzycomplete/list?q=ber&tol=1
	GET /info

Single endpoints answer with the matched record's original JSON line,
list endpoints with a JSON array of lines.

# Lifecycle

Datasets load sequentially in argument order. A dataset that cannot be
opened is skipped with a warning; an I/O error after records were already
ingested is fatal because the index cannot drop partial records. After
loading, the index is built once and the database is frozen; queries then
run lock-free from any number of connections. SIGINT or SIGTERM stops the
listener, drains in-flight requests, and exits cleanly.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/mrtnstkl/fuzzy-search-server/pkg/config"
	"github.com/mrtnstkl/fuzzy-search-server/pkg/dataset"
	"github.com/mrtnstkl/fuzzy-search-server/pkg/fuzzy"
	"github.com/mrtnstkl/fuzzy-search-server/pkg/server"
)

const (
	Version = "1.2.0"
	AppName = "fuzzyserver"
	gh      = "https://github.com/mrtnstkl/fuzzy-search-server"
)

func main() {
	flags, err := config.ParseArgs(AppName, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if flags.Version {
		showVersion()
		os.Exit(0)
	}

	if flags.Debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	cfg := flags.Config
	db := fuzzy.New[dataset.Ref](fuzzy.Options{
		NgramSize:     cfg.Index.NgramSize,
		FirstLetter:   cfg.Index.FirstLetter,
		MaxBucketSize: uint64(cfg.Index.BucketCap),
		ResultLimit:   cfg.Index.ResultLimit,
	})

	abort := &atomic.Bool{}
	var srvRef atomic.Pointer[server.Server]
	shutdownDone := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		defer close(shutdownDone)
		log.Warn("interrupt received, shutting down")
		abort.Store(true)
		if srv := srvRef.Load(); srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}
	}()

	var dup *dataset.DuplicateSet
	if cfg.Dataset.DuplicateCheck {
		dup = dataset.NewDuplicateSet()
	}
	mode := dataset.InMemory
	if cfg.Dataset.Disk {
		mode = dataset.OnDisk
	}

	loadStart := time.Now()
	var datasets []*dataset.Dataset
	for _, path := range flags.Datasets {
		before := db.Len()
		ds, err := loadDataset(path, mode, cfg, abort, dup, db)
		if err != nil {
			if db.Len() == before {
				log.Warnf("skipping dataset: %v", err)
				continue
			}
			// Records from the failed stream are already in the index and
			// cannot be pruned again; bail out.
			log.Errorf("dataset failed after partial ingestion: %v", err)
			os.Exit(1)
		}
		datasets = append(datasets, ds)
	}
	// The duplicate set is only needed while loading.
	if dup != nil {
		log.Debugf("duplicate check tracked %d distinct lines", dup.Len())
		dup = nil
	}
	log.Infof("loaded %d records from %d dataset(s) in %s", db.Len(), len(datasets), time.Since(loadStart))

	buildStart := time.Now()
	db.Build()
	log.Infof("index ready: %d tokens in %s", db.TokenCount(), time.Since(buildStart))

	srv := server.New(db, cfg, datasets)
	srvRef.Store(srv)
	if !abort.Load() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatalf("server error: %v", err)
		}
		// ListenAndServe returns as soon as Shutdown begins; wait for the
		// in-flight requests to drain.
		<-shutdownDone
	}

	for _, ds := range datasets {
		ds.Close()
	}
}

// loadDataset ingests one dataset file into the database. In disk mode
// with caching enabled, a valid sidecar replaces the NDJSON parse
// entirely; otherwise the file is scanned line by line, and in disk mode
// with caching enabled the sidecar is rewritten afterwards.
func loadDataset(path string, mode dataset.Mode, cfg *config.Config, abort *atomic.Bool, dup *dataset.DuplicateSet, db *fuzzy.Database[dataset.Ref]) (*dataset.Dataset, error) {
	useCache := cfg.Dataset.Cache && mode == dataset.OnDisk
	if cfg.Dataset.Cache && mode != dataset.OnDisk {
		log.Debugf("record cache only applies to disk mode, ignoring for %s", path)
	}

	if useCache {
		if records, ok := dataset.LoadCache(path); ok {
			ds := dataset.New(path, dataset.OnDisk)
			offsets := make([]int64, len(records))
			for i, rec := range records {
				offsets[i] = rec.Offset
			}
			if err := ds.Restore(offsets); err != nil {
				return nil, err
			}
			for i, rec := range records {
				if rec.Name == "" {
					continue
				}
				db.Add(rec.Name, dataset.Ref{Store: ds, Line: uint32(i)})
			}
			log.Infof("dataset %s: %d lines restored from record cache", path, len(records))
			return ds, nil
		}
	}

	ds := dataset.New(path, mode)
	var names []string
	skipped := 0
	err := ds.Load(abort, func(id uint32, line string) {
		names = append(names, "")
		if line == "" {
			return
		}
		if dup != nil && dup.Seen(line) {
			skipped++
			return
		}
		name, err := dataset.ExtractField(line, cfg.Dataset.NameField)
		if err != nil {
			log.Warnf("dataset %s line %d: %v", path, id, err)
			return
		}
		names[id] = name
		db.Add(name, dataset.Ref{Store: ds, Line: id})
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Infof("dataset %s: skipped %d duplicate line(s)", path, skipped)
	}
	log.Infof("dataset %s: %d lines", path, ds.Len())

	if useCache && ds.Ready() {
		offsets := ds.Offsets()
		records := make([]dataset.CachedRecord, len(offsets))
		for i, off := range offsets {
			records[i] = dataset.CachedRecord{Name: names[i], Offset: off}
		}
		if err := dataset.SaveCache(path, records); err != nil {
			log.Warnf("dataset %s: %v", path, err)
		}
	}
	return ds, nil
}

// showVersion displays the styled version screen.
func showVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("[ fuzzy-search-server ] In-memory fuzzy search over NDJSON datasets")
	logger.Print("", "version", Version)
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}
