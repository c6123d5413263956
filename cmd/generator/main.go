package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/kmzgen/internal/config"
	"github.com/woozymasta/kmzgen/internal/logger"
	"github.com/woozymasta/kmzgen/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Input       string   `short:"i" long:"input"       env:"DATA_DIR"    description:"Directory with shapefile datasets (overrides data_dir)"`
	Output      string   `short:"o" long:"output"      env:"OUTPUT_DIR"  description:"Directory for generated archives (overrides output_dir)"`
	Limit       []string `short:"l" long:"limit"       env:"LIMIT_NAMES" description:"Limit processing to specific dataset names"`
	Concurrency int      `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Number of datasets converted in parallel"`
	GeoJSON     bool     `short:"g" long:"geojson"     description:"Also write GeoJSON next to each archive"`
	Preview     bool     `short:"w" long:"preview"     description:"Also write a WebP preview next to each archive"`
	Minify      bool     `short:"m" long:"minify"      description:"Minify KML documents"`
	Strict      bool     `short:"s" long:"strict"      description:"Fail datasets with an unrecognized projection"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := loadConfig(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	opts.apply(cfg)

	datasets, err := processor.Discover(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to discover datasets")
	}

	if len(opts.Limit) > 0 {
		var missing []string
		datasets, missing = processor.Filter(datasets, opts.Limit)
		for _, name := range missing {
			log.Error().
				Str("name", name).
				Msg("Dataset specified in --limit not found in input directory")
		}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatal().Err(err).Str("output", cfg.OutputDir).Msg("Failed to create output directory")
	}

	log.Info().
		Str("input", cfg.DataDir).
		Str("output", cfg.OutputDir).
		Int("datasets", len(datasets)).
		Int("concurrency", cfg.Concurrency).
		Msg("Starting generator")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	sum := processor.ProcessBatch(ctx, processor.NewConverter(cfg), datasets, processor.BatchOptions{
		OutputDir:   cfg.OutputDir,
		Concurrency: cfg.Concurrency,
		GeoJSON:     cfg.GeoJSON,
		Preview:     cfg.Preview.Enabled,
		PreviewSize: cfg.Preview.Size,
	})

	log.Info().
		Int("total", sum.Total).
		Int("converted", sum.Succeeded).
		Int("failed", len(sum.Failed)).
		Dur("took", time.Since(start)).
		Msg("Generator finished")
}

// loadConfig reads path; a missing file yields the defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("Configuration file not found, using defaults")
		return config.Default(), nil
	}
	return cfg, err
}

// apply overrides configuration values with the flags that were set.
func (o *Options) apply(cfg *config.Config) {
	if o.Input != "" {
		cfg.DataDir = o.Input
	}
	if o.Output != "" {
		cfg.OutputDir = o.Output
	}
	if o.Concurrency > 0 {
		cfg.Concurrency = o.Concurrency
	}
	cfg.GeoJSON = cfg.GeoJSON || o.GeoJSON
	cfg.Preview.Enabled = cfg.Preview.Enabled || o.Preview
	cfg.Minify = cfg.Minify || o.Minify
	cfg.StrictProjection = cfg.StrictProjection || o.Strict
}
