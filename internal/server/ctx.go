package server

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/kmzgen/internal/config"
	"github.com/woozymasta/kmzgen/internal/processor"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config    *config.Config
	Converter *processor.Converter
}

// NewServerContext wires the handlers to the configured directories.
// Missing directories are reported but not fatal: conversions answer 404
// and listings come back empty until data shows up.
func NewServerContext(cfg *config.Config, conv *processor.Converter) *ServerContext {
	for name, dir := range map[string]string{"data_dir": cfg.DataDir, "output_dir": cfg.OutputDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			log.Warn().
				Str(name, dir).
				Msg("Directory not found")
		}
	}

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("output_dir", cfg.OutputDir).
		Msg("Server context initialized")

	return &ServerContext{
		Config:    cfg,
		Converter: conv,
	}
}
