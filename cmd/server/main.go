package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/kmzgen/internal/config"
	"github.com/woozymasta/kmzgen/internal/logger"
	"github.com/woozymasta/kmzgen/internal/processor"
	"github.com/woozymasta/kmzgen/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	Input      string `short:"i" long:"input"  env:"DATA_DIR"       description:"Directory with shapefile datasets (overrides data_dir)"`
	Output     string `short:"o" long:"output" env:"OUTPUT_DIR"     description:"Directory with generated archives (overrides output_dir)"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", opts.ConfigFile).Msg("Configuration file not found, using defaults")
		cfg, err = config.Default(), nil
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Input != "" {
		cfg.DataDir = opts.Input
	}
	if opts.Output != "" {
		cfg.OutputDir = opts.Output
	}

	srvCtx := server.NewServerContext(cfg, processor.NewConverter(cfg))

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/mapa/kmz", srvCtx.HandleKMZ)
	mux.HandleFunc("GET /api/mapa/geojson", srvCtx.HandleGeoJSON)
	mux.HandleFunc("GET /api/kmz/list", srvCtx.HandleKMZList)
	mux.HandleFunc("GET /api/datasets", srvCtx.HandleDatasets)
	mux.HandleFunc("GET /kmz/", srvCtx.HandleArtifact)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           server.RequestLogger(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("addr", listenAddr).
		Str("data_dir", cfg.DataDir).
		Str("output_dir", cfg.OutputDir).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
