package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"pfbench/bench"
	"pfbench/pf"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pfbench: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := pf.LoadConfigFromEnv()

	configPath := flag.String("config", "", "JSON config file (flags override it)")
	mix := flag.String("mix", cfg.Mix, "read:write weight ratio, e.g. 8:2")
	policy := flag.String("policy", cfg.Policy, "replacement policy (lru or mru)")
	buffers := flag.Uint("buffers", uint(cfg.Buffers), "number of frames in the pool")
	pages := flag.Uint("pages", uint(cfg.Pages), "page-id space of the simulated store")
	ops := flag.Uint64("ops", cfg.Ops, "Fix/Unfix operation pairs to execute")
	seed := flag.Int64("seed", cfg.Seed, "RNG seed (0 = time-derived)")
	header := flag.Bool("header", cfg.Header, "print CSV header before the result row")
	store := flag.String("store", cfg.Store, "backing store (synthetic, file or mmap)")
	file := flag.String("file", cfg.File, "page file path for file/mmap stores")
	compress := flag.String("compress", cfg.Compression, "page compression for the file store (none, lz4 or snappy)")
	logLevel := flag.String("log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.Parse()

	if *configPath != "" {
		fileCfg, err := pf.LoadConfigFromFile(*configPath)
		if err != nil {
			return err
		}
		cfg = fileCfg
		// Re-apply any flags given explicitly on the command line
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "mix":
				cfg.Mix = *mix
			case "policy":
				cfg.Policy = *policy
			case "buffers":
				cfg.Buffers = uint32(*buffers)
			case "pages":
				cfg.Pages = uint32(*pages)
			case "ops":
				cfg.Ops = *ops
			case "seed":
				cfg.Seed = *seed
			case "header":
				cfg.Header = *header
			case "store":
				cfg.Store = *store
			case "file":
				cfg.File = *file
			case "compress":
				cfg.Compression = *compress
			case "log-level":
				cfg.LogLevel = *logLevel
			}
		})
	} else {
		cfg.Mix = *mix
		cfg.Policy = *policy
		cfg.Buffers = uint32(*buffers)
		cfg.Pages = uint32(*pages)
		cfg.Ops = *ops
		cfg.Seed = *seed
		cfg.Header = *header
		cfg.Store = *store
		cfg.File = *file
		cfg.Compression = *compress
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	workload, err := bench.ParseMix(cfg.Mix)
	if err != nil {
		return err
	}
	pol, err := pf.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}

	pageStore, err := cfg.OpenStore()
	if err != nil {
		return err
	}

	pool, err := pf.NewBufferPool(cfg.Buffers, pageStore, pol)
	if err != nil {
		pageStore.Close()
		return err
	}

	logger.Info("starting benchmark run",
		slog.String("policy", string(pol)),
		slog.String("mix", workload.String()),
		slog.Uint64("buffers", uint64(cfg.Buffers)),
		slog.Uint64("pages", uint64(cfg.Pages)),
		slog.Uint64("ops", cfg.Ops),
		slog.String("store", cfg.Store),
	)

	runner := bench.NewRunner(pool, workload, cfg.Pages, cfg.Seed)
	if err := runner.Preload(); err != nil {
		pool.Close()
		return err
	}

	result, err := runner.Run(cfg.Ops)
	if err != nil {
		pool.Close()
		return err
	}

	pool.Stats().LogStats(logger)

	if err := result.WriteCSV(os.Stdout, cfg.Header); err != nil {
		pool.Close()
		return err
	}

	return pool.Close()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
