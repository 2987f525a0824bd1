package config

import (
	"flag"
	"fmt"
	"os"
)

// Flags is the fully resolved command line: the effective config after
// defaults, optional TOML file, and explicit flags, plus the positional
// dataset paths and the process-level switches that live outside the
// config file.
type Flags struct {
	Config     *Config
	Datasets   []string
	ConfigPath string
	Debug      bool
	Version    bool
}

// ParseArgs parses the command line. The precedence is builtin defaults,
// then the -config TOML file, then any flag given explicitly. On a parse
// or validation failure the usage text has been printed and an error is
// returned; flag.ErrHelp passes through for -h.
func ParseArgs(name string, args []string) (*Flags, error) {
	def := DefaultConfig()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr,
			"Usage: %s DATASET... [-p PORT] [-nf NAME_FIELD] [-l RESULT_LIMIT] [-bc BUCKET_CAPACITY] [-bi|-tri|-tetra] [-fl] [-disk] [-dc] [-cache] [-config PATH] [-d]\n",
			name)
		fs.PrintDefaults()
	}

	var (
		configPath = fs.String("config", "", "Optional TOML config file (created with defaults if missing)")
		debug      = fs.Bool("d", false, "Toggle debug mode")
		version    = fs.Bool("version", false, "Show current version")

		port      int
		nameField string
		limit     int
		bucketCap int64
		bi        = fs.Bool("bi", false, "Index bigrams (default)")
		tri       = fs.Bool("tri", false, "Index trigrams")
		tetra     = fs.Bool("tetra", false, "Index tetragrams")
		fl        bool
		disk      = fs.Bool("disk", false, "Disk-backed dataset mode (keep line offsets, not lines)")
		dc        bool
		cache     = fs.Bool("cache", false, "Keep a record cache next to each dataset to skip re-parsing (disk mode)")
	)
	fs.IntVar(&port, "p", def.Server.Port, "Listen port")
	fs.IntVar(&port, "port", def.Server.Port, "Listen port")
	fs.StringVar(&nameField, "nf", def.Dataset.NameField, "JSON field holding the indexed name")
	fs.StringVar(&nameField, "name-field", def.Dataset.NameField, "JSON field holding the indexed name")
	fs.IntVar(&limit, "l", def.Index.ResultLimit, "Per-page result limit (0 or negative for unlimited)")
	fs.IntVar(&limit, "limit", def.Index.ResultLimit, "Per-page result limit (0 or negative for unlimited)")
	fs.Int64Var(&bucketCap, "bc", def.Index.BucketCap, "Prune index buckets larger than this at build (0 or negative for unlimited)")
	fs.Int64Var(&bucketCap, "bucket-cap", def.Index.BucketCap, "Prune index buckets larger than this at build (0 or negative for unlimited)")
	fs.BoolVar(&fl, "fl", def.Index.FirstLetter, "Only consider fuzzy candidates sharing the query's first letter")
	fs.BoolVar(&fl, "first-letter", def.Index.FirstLetter, "Only consider fuzzy candidates sharing the query's first letter")
	fs.BoolVar(&dc, "dc", def.Dataset.DuplicateCheck, "Skip lines whose full text was already seen")
	fs.BoolVar(&dc, "duplicate-check", def.Dataset.DuplicateCheck, "Skip lines whose full text was already seen")

	// The synopsis puts dataset paths first, so keep parsing past
	// positionals instead of stopping at the first one.
	var datasets []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		datasets = append(datasets, rest[0])
		rest = rest[1:]
	}

	cfg := def
	if *configPath != "" {
		cfg = InitConfig(*configPath)
	}

	// A flag given explicitly wins over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p", "port":
			cfg.Server.Port = port
		case "nf", "name-field":
			cfg.Dataset.NameField = nameField
		case "l", "limit":
			cfg.Index.ResultLimit = limit
		case "bc", "bucket-cap":
			cfg.Index.BucketCap = bucketCap
		case "fl", "first-letter":
			cfg.Index.FirstLetter = fl
		case "disk":
			cfg.Dataset.Disk = *disk
		case "dc", "duplicate-check":
			cfg.Dataset.DuplicateCheck = dc
		case "cache":
			cfg.Dataset.Cache = *cache
		}
	})
	switch {
	case *tetra:
		cfg.Index.NgramSize = 4
	case *tri:
		cfg.Index.NgramSize = 3
	case *bi:
		cfg.Index.NgramSize = 2
	}
	if cfg.Index.ResultLimit < 0 {
		cfg.Index.ResultLimit = 0
	}
	if cfg.Index.BucketCap < 0 {
		cfg.Index.BucketCap = 0
	}

	flags := &Flags{
		Config:     cfg,
		Datasets:   datasets,
		ConfigPath: *configPath,
		Debug:      *debug,
		Version:    *version,
	}
	if flags.Version {
		return flags, nil
	}
	if cfg.Index.NgramSize < 2 || cfg.Index.NgramSize > 4 {
		fmt.Fprintf(os.Stderr, "invalid ngram size %d\n", cfg.Index.NgramSize)
		fs.Usage()
		return nil, fmt.Errorf("invalid ngram size %d", cfg.Index.NgramSize)
	}
	if cfg.Server.Port <= 0 {
		fmt.Fprintf(os.Stderr, "invalid port %d\n", cfg.Server.Port)
		fs.Usage()
		return nil, fmt.Errorf("invalid port %d", cfg.Server.Port)
	}
	if len(flags.Datasets) == 0 {
		fmt.Fprintln(os.Stderr, "no datasets given")
		fs.Usage()
		return nil, fmt.Errorf("no datasets given")
	}
	return flags, nil
}
