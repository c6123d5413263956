package geo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func sampleGeometries() map[string]orb.Geometry {
	ring := orb.Ring{{0, 0}, {0, 4}, {4, 4}, {4, 0}, {0, 0}}
	hole := orb.Ring{{1, 1}, {2, 1}, {2, 2}, {1, 1}}

	return map[string]orb.Geometry{
		"Point":           orb.Point{-46.63, -23.55},
		"LineString":      orb.LineString{{0, 0}, {1, 1}, {2, 0}},
		"Polygon":         orb.Polygon{ring, hole},
		"MultiPoint":      orb.MultiPoint{{1, 2}, {3, 4}},
		"MultiLineString": orb.MultiLineString{{{0, 0}, {1, 1}}, {{5, 5}, {6, 6}, {7, 7}}},
		"MultiPolygon":    orb.MultiPolygon{{ring, hole}, {ring}},
	}
}

// shape returns the nesting depth and leaf pair count of g.
func shape(g orb.Geometry) (depth, leaves int) {
	switch v := g.(type) {
	case orb.Point:
		return 0, 1
	case orb.MultiPoint:
		return 1, len(v)
	case orb.LineString:
		return 1, len(v)
	case orb.Ring:
		return 1, len(v)
	case orb.MultiLineString:
		for _, ls := range v {
			leaves += len(ls)
		}
		return 2, leaves
	case orb.Polygon:
		for _, r := range v {
			leaves += len(r)
		}
		return 2, leaves
	case orb.MultiPolygon:
		for _, p := range v {
			_, n := shape(p)
			leaves += n
		}
		return 3, leaves
	}
	return -1, 0
}

func TestTransformIdentityIsDeepEqual(t *testing.T) {
	for name, g := range sampleGeometries() {
		t.Run(name, func(t *testing.T) {
			got := Transform(g, Identity)
			if diff := cmp.Diff(g, got); diff != "" {
				t.Errorf("identity transform changed geometry (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransformPreservesShape(t *testing.T) {
	utm := UTM{Zone: 23, South: true, Ellipsoid: GRS80}
	shift := func(x, y float64) (float64, float64) { return x + 10, y * 2 }

	for _, fn := range []TransformFunc{shift, utm.ToWGS84} {
		for name, g := range sampleGeometries() {
			t.Run(name, func(t *testing.T) {
				wantDepth, wantLeaves := shape(g)
				gotDepth, gotLeaves := shape(Transform(g, fn))

				assert.Equal(t, wantDepth, gotDepth)
				assert.Equal(t, wantLeaves, gotLeaves)
				assert.Equal(t, g.GeoJSONType(), Transform(g, fn).GeoJSONType())
			})
		}
	}
}

func TestTransformChangesOnlyLeaves(t *testing.T) {
	shift := func(x, y float64) (float64, float64) { return x + 1, y - 1 }

	got := Transform(orb.Polygon{{{0, 0}, {0, 2}, {2, 2}, {0, 0}}}, shift)

	want := orb.Polygon{{{1, -1}, {1, 1}, {3, 1}, {1, -1}}}
	assert.Equal(t, want, got)
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	in := orb.LineString{{1, 1}, {2, 2}}
	shift := func(x, y float64) (float64, float64) { return 0, 0 }

	_ = Transform(in, shift)

	assert.Equal(t, orb.LineString{{1, 1}, {2, 2}}, in)
}

func TestTransformNil(t *testing.T) {
	assert.Nil(t, Transform(nil, Identity))
}
