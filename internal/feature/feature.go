// Package feature holds the feature collection model shared by the reader,
// the enricher and the exporters.
package feature

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
)

// ErrLengthMismatch is returned when geometries and attribute rows of a
// dataset get out of step.
var ErrLengthMismatch = errors.New("geometry and attribute counts differ")

// Attributes is an insertion ordered mapping of field names to scalar values
// (string, float64, time.Time, bool or nil).
type Attributes struct {
	values map[string]any
	keys   []string
}

// NewAttributes returns an empty record with room for n fields.
func NewAttributes(n int) Attributes {
	return Attributes{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set stores v under key, appending key when it is new.
func (a *Attributes) Set(key string, v any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = v
}

// Get returns the value stored under key.
func (a Attributes) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Keys returns field names in insertion order.
func (a Attributes) Keys() []string {
	return slices.Clone(a.keys)
}

// Len returns the number of fields.
func (a Attributes) Len() int {
	return len(a.keys)
}

// Clone returns a copy that shares nothing with a.
func (a Attributes) Clone() Attributes {
	c := NewAttributes(len(a.keys))
	for _, k := range a.keys {
		c.Set(k, a.values[k])
	}
	return c
}

// Map returns the record as a plain map.
func (a Attributes) Map() map[string]any {
	m := make(map[string]any, len(a.keys))
	for _, k := range a.keys {
		m[k] = a.values[k]
	}
	return m
}

// Feature pairs one geometry with one attribute record.
type Feature struct {
	Geometry   orb.Geometry
	Properties Attributes
}

// Collection is an ordered list of features read from one dataset.
type Collection struct {
	Name     string
	Features []Feature
}

// Assemble pairs geometries and attribute records by index.
func Assemble(name string, geoms []orb.Geometry, attrs []Attributes) (*Collection, error) {
	if len(geoms) != len(attrs) {
		return nil, fmt.Errorf("%w: %d geometries, %d attribute records", ErrLengthMismatch, len(geoms), len(attrs))
	}

	fc := &Collection{
		Name:     name,
		Features: make([]Feature, len(geoms)),
	}
	for i := range geoms {
		fc.Features[i] = Feature{Geometry: geoms[i], Properties: attrs[i]}
	}

	return fc, nil
}
