// Package processor converts shapefile datasets into KMZ archives, one at a
// time or in batches.
package processor

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/kmzgen/internal/config"
	"github.com/woozymasta/kmzgen/internal/export"
	"github.com/woozymasta/kmzgen/internal/feature"
	"github.com/woozymasta/kmzgen/internal/geo"
	"github.com/woozymasta/kmzgen/internal/shapefile"
)

// Artifact is the result of converting one dataset.
type Artifact struct {
	Collection *feature.Collection
	Name       string
	Data       []byte
}

// Converter runs the read, reproject, enrich, serialize and package
// pipeline. It holds no per-conversion state and is safe for concurrent use.
type Converter struct {
	resolver *geo.Resolver
	enricher *feature.Enricher
	encoding string
	minify   bool
}

// NewConverter builds a converter from configuration.
func NewConverter(cfg *config.Config) *Converter {
	encoding := cfg.DefaultEncoding
	if encoding == "" {
		encoding = shapefile.DefaultEncoding
	}

	return &Converter{
		resolver: geo.NewResolver(cfg.StrictProjection),
		enricher: feature.NewEnricher(cfg.Rules()),
		encoding: encoding,
		minify:   cfg.Minify,
	}
}

// Load reads a dataset and returns its features in WGS84 with enrichment applied.
func (c *Converter) Load(ctx context.Context, ds shapefile.Dataset) (*feature.Collection, error) {
	encoding, err := c.resolveEncoding(ds)
	if err != nil {
		return nil, err
	}

	proj, err := c.resolveProjection(ds)
	if err != nil {
		return nil, err
	}

	r, err := shapefile.Open(ds, shapefile.Options{Encoding: encoding})
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	geoms := make([]orb.Geometry, 0, r.Len())
	attrs := make([]feature.Attributes, 0, r.Len())

	for r.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g, a := r.Record()
		geoms = append(geoms, geo.Transform(g, proj.Transform))
		attrs = append(attrs, c.enricher.Enrich(ds.Name, a))
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", ds.Name, err)
	}

	return feature.Assemble(ds.Name, geoms, attrs)
}

// Convert loads a dataset and packages it as a KMZ archive.
func (c *Converter) Convert(ctx context.Context, ds shapefile.Dataset) (*Artifact, error) {
	fc, err := c.Load(ctx, ds)
	if err != nil {
		return nil, err
	}

	doc, err := export.KML(fc, export.KMLOptions{Minify: c.minify})
	if err != nil {
		return nil, fmt.Errorf("kml %s: %w", ds.Name, err)
	}

	data, err := export.KMZ(doc)
	if err != nil {
		return nil, fmt.Errorf("kmz %s: %w", ds.Name, err)
	}

	return &Artifact{Collection: fc, Name: ds.Name, Data: data}, nil
}

// resolveEncoding returns the .cpg charset, falling back to the configured
// default when the file is absent or names an unknown charset.
func (c *Converter) resolveEncoding(ds shapefile.Dataset) (string, error) {
	label, ok, err := shapefile.ReadEncoding(ds)
	if err != nil {
		return "", fmt.Errorf("read %s%s: %w", ds.Name, shapefile.ExtCPG, err)
	}
	if !ok || label == "" {
		return c.encoding, nil
	}

	if _, err := shapefile.LookupEncoding(label); err != nil {
		log.Warn().
			Str("dataset", ds.Name).
			Str("encoding", label).
			Str("fallback", c.encoding).
			Msg("Unknown .cpg encoding, using default")
		return c.encoding, nil
	}
	return label, nil
}

func (c *Converter) resolveProjection(ds shapefile.Dataset) (geo.Projection, error) {
	prj, ok, err := shapefile.ReadProjection(ds)
	if err != nil {
		return geo.Projection{}, fmt.Errorf("read %s%s: %w", ds.Name, shapefile.ExtPRJ, err)
	}

	proj, err := c.resolver.Resolve(prj, ok)
	if err != nil {
		return geo.Projection{}, fmt.Errorf("%s: %w", ds.Name, err)
	}

	if proj.Unrecognized {
		log.Warn().
			Str("dataset", ds.Name).
			Msg("Unrecognized projection, coordinates passed through unchanged")
	} else {
		log.Debug().
			Str("dataset", ds.Name).
			Str("projection", proj.Name).
			Msg("Projection resolved")
	}

	return proj, nil
}
