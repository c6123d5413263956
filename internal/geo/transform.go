package geo

import "github.com/paulmach/orb"

// Transform returns a copy of g with fn applied to every coordinate pair.
// The nesting of g is preserved exactly; nil passes through.
func Transform(g orb.Geometry, fn TransformFunc) orb.Geometry {
	switch v := g.(type) {
	case nil:
		return nil
	case orb.Point:
		return point(v, fn)
	case orb.MultiPoint:
		return points(v, fn)
	case orb.LineString:
		return points(v, fn)
	case orb.Ring:
		return points(v, fn)
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(v))
		for i, ls := range v {
			out[i] = points(ls, fn)
		}
		return out
	case orb.Polygon:
		return polygon(v, fn)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(v))
		for i, p := range v {
			out[i] = polygon(p, fn)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(v))
		for i, c := range v {
			out[i] = Transform(c, fn)
		}
		return out
	case orb.Bound:
		return orb.Bound{Min: point(v.Min, fn), Max: point(v.Max, fn)}
	default:
		return g
	}
}

func point(p orb.Point, fn TransformFunc) orb.Point {
	lon, lat := fn(p[0], p[1])
	return orb.Point{lon, lat}
}

func points[S ~[]orb.Point](ps S, fn TransformFunc) S {
	if ps == nil {
		return nil
	}
	out := make(S, len(ps))
	for i, p := range ps {
		out[i] = point(p, fn)
	}
	return out
}

func polygon(p orb.Polygon, fn TransformFunc) orb.Polygon {
	if p == nil {
		return nil
	}
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		out[i] = points(r, fn)
	}
	return out
}
