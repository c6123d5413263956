// Package geo handles projection resolution and coordinate conversions.
package geo

import (
	"errors"
	"strings"
)

// ErrUnrecognizedProjection is returned by a strict Resolver for projected
// systems it has no transform for.
var ErrUnrecognizedProjection = errors.New("unrecognized projection")

// TransformFunc converts a source coordinate into WGS84 longitude/latitude.
type TransformFunc func(x, y float64) (lon, lat float64)

// Identity returns its input unchanged.
func Identity(x, y float64) (lon, lat float64) {
	return x, y
}

// WGS84 is the projection of datasets without a .prj file.
var WGS84 = Projection{Name: "WGS84", Transform: Identity}

// Projection is the transform resolved once for a whole dataset.
type Projection struct {
	Transform TransformFunc
	Name      string
	// Unrecognized is set when a projected system fell back to identity.
	Unrecognized bool
}

// Definition maps marker strings found in .prj text to a transform.
type Definition struct {
	Transform TransformFunc
	Name      string
	Markers   []string
}

// DefaultDefinitions returns the projected systems known to the resolver.
func DefaultDefinitions() []Definition {
	sirgas := UTM{Zone: 23, South: true, Ellipsoid: GRS80}

	return []Definition{{
		Name: "EPSG:31983",
		Markers: []string{
			"SIRGAS_2000_UTM_Zone_23S",
			"SIRGAS 2000 / UTM zone 23S",
		},
		Transform: sirgas.ToWGS84,
	}}
}

// Resolver selects a transform from projection definition text.
type Resolver struct {
	defs   []Definition
	strict bool
}

// NewResolver returns a resolver over defs, or DefaultDefinitions when none
// are given. A strict resolver rejects unknown projected systems instead of
// passing coordinates through.
func NewResolver(strict bool, defs ...Definition) *Resolver {
	if len(defs) == 0 {
		defs = DefaultDefinitions()
	}
	return &Resolver{defs: defs, strict: strict}
}

// Resolve returns the projection for the .prj text; present reports whether
// a .prj file exists at all.
func (r *Resolver) Resolve(prj string, present bool) (Projection, error) {
	if !present {
		return WGS84, nil
	}

	for _, d := range r.defs {
		for _, m := range d.Markers {
			if strings.Contains(prj, m) {
				return Projection{Name: d.Name, Transform: d.Transform}, nil
			}
		}
	}

	// geographic definitions are taken as WGS84
	if !strings.Contains(strings.ToUpper(prj), "PROJCS") {
		return WGS84, nil
	}

	if r.strict {
		return Projection{}, ErrUnrecognizedProjection
	}

	p := WGS84
	p.Unrecognized = true
	return p, nil
}
