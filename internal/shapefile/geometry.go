package shapefile

import (
	"errors"
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrMalformedGeometry is returned for unsupported or corrupt shape records.
var ErrMalformedGeometry = errors.New("malformed geometry")

// toGeometry converts a shape record. Null shapes yield a nil geometry.
func toGeometry(s shp.Shape) (orb.Geometry, error) {
	switch v := s.(type) {
	case *shp.Null:
		return nil, nil
	case *shp.Point:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointM:
		return orb.Point{v.X, v.Y}, nil
	case *shp.MultiPoint:
		return multiPoint(v.Points), nil
	case *shp.MultiPointZ:
		return multiPoint(v.Points), nil
	case *shp.MultiPointM:
		return multiPoint(v.Points), nil
	case *shp.PolyLine:
		return lines(v.Parts, v.Points)
	case *shp.PolyLineZ:
		return lines(v.Parts, v.Points)
	case *shp.PolyLineM:
		return lines(v.Parts, v.Points)
	case *shp.Polygon:
		return polygons(v.Parts, v.Points)
	case *shp.PolygonZ:
		return polygons(v.Parts, v.Points)
	case *shp.PolygonM:
		return polygons(v.Parts, v.Points)
	default:
		return nil, fmt.Errorf("%w: unsupported shape %T", ErrMalformedGeometry, s)
	}
}

func multiPoint(pts []shp.Point) orb.MultiPoint {
	mp := make(orb.MultiPoint, len(pts))
	for i, p := range pts {
		mp[i] = orb.Point{p.X, p.Y}
	}
	return mp
}

// splitParts slices points into parts using the part start offsets.
func splitParts(parts []int32, pts []shp.Point) ([][]orb.Point, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no parts", ErrMalformedGeometry)
	}

	out := make([][]orb.Point, len(parts))
	for i, first := range parts {
		last := int32(len(pts))
		if i < len(parts)-1 {
			last = parts[i+1]
		}
		if first < 0 || first > last || int(last) > len(pts) {
			return nil, fmt.Errorf("%w: part %d spans [%d,%d) of %d points", ErrMalformedGeometry, i, first, last, len(pts))
		}

		part := make([]orb.Point, 0, last-first)
		for _, p := range pts[first:last] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out[i] = part
	}
	return out, nil
}

func lines(parts []int32, pts []shp.Point) (orb.Geometry, error) {
	split, err := splitParts(parts, pts)
	if err != nil {
		return nil, err
	}

	if len(split) == 1 {
		return orb.LineString(split[0]), nil
	}

	mls := make(orb.MultiLineString, len(split))
	for i, p := range split {
		mls[i] = orb.LineString(p)
	}
	return mls, nil
}

// polygons groups rings into polygons: clockwise rings are shells,
// counter-clockwise rings are holes of the first shell that contains them.
// A hole outside every shell becomes a polygon of its own.
func polygons(parts []int32, pts []shp.Point) (orb.Geometry, error) {
	split, err := splitParts(parts, pts)
	if err != nil {
		return nil, err
	}

	var shells orb.MultiPolygon
	var holes []orb.Ring

	for _, p := range split {
		ring := orb.Ring(p)
		if len(ring) == 0 {
			continue
		}
		if ring.Orientation() == orb.CCW {
			holes = append(holes, ring)
		} else {
			shells = append(shells, orb.Polygon{ring})
		}
	}

	for _, hole := range holes {
		placed := false
		for i := range shells {
			if planar.RingContains(shells[i][0], hole[0]) {
				shells[i] = append(shells[i], hole)
				placed = true
				break
			}
		}
		if !placed {
			shells = append(shells, orb.Polygon{hole})
		}
	}

	switch len(shells) {
	case 0:
		return nil, fmt.Errorf("%w: polygon without rings", ErrMalformedGeometry)
	case 1:
		return shells[0], nil
	default:
		return shells, nil
	}
}
