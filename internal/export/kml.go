// Package export serializes feature collections to KML, KMZ, GeoJSON and
// preview images.
package export

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/tdewolff/minify/v2"
	minxml "github.com/tdewolff/minify/v2/xml"
	"github.com/twpayne/go-kml"

	"github.com/woozymasta/kmzgen/internal/feature"
)

// Attribute keys used for placemark labels.
const (
	KeyName        = "name"
	KeyDescription = "description"
)

// KMLOptions controls KML output.
type KMLOptions struct {
	// Minify strips insignificant whitespace from the document.
	Minify bool
}

// KML renders fc as a KML document. Features without geometry are skipped.
func KML(fc *feature.Collection, opts KMLOptions) (string, error) {
	doc := kml.Document()
	if fc.Name != "" {
		doc.Add(kml.Name(fc.Name))
	}
	doc.Add(sharedStyles()...)

	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}

		geom, style, err := geometry(f.Geometry)
		if err != nil {
			return "", fmt.Errorf("feature %d: %w", i, err)
		}
		doc.Add(placemark(f.Properties, geom, style))
	}

	var sb strings.Builder
	if err := kml.KML(doc).WriteIndent(&sb, "", "  "); err != nil {
		return "", fmt.Errorf("encode kml: %w", err)
	}

	if !opts.Minify {
		return sb.String(), nil
	}

	m := minify.New()
	m.AddFunc("text/xml", minxml.Minify)
	out, err := m.String("text/xml", sb.String())
	if err != nil {
		return "", fmt.Errorf("minify kml: %w", err)
	}
	return out, nil
}

func placemark(attrs feature.Attributes, geom kml.Element, style string) kml.Element {
	pm := kml.Placemark()

	if v, ok := attrs.Get(KeyName); ok && v != nil {
		pm.Add(kml.Name(formatValue(v)))
	}
	if v, ok := attrs.Get(KeyDescription); ok && v != nil {
		pm.Add(kml.Description(formatValue(v)))
	}

	if inline := inlineStyle(attrs); inline != nil {
		pm.Add(inline)
	} else {
		pm.Add(kml.StyleURL("#" + style))
	}

	if attrs.Len() > 0 {
		ext := kml.ExtendedData()
		for _, k := range attrs.Keys() {
			v, _ := attrs.Get(k)
			ext.Add(namedData(k, formatValue(v)))
		}
		pm.Add(ext)
	}

	return pm.Add(geom)
}

// namedData returns <Data name="key"><value>v</value></Data>.
func namedData(name, value string) kml.Element {
	data := &kml.CompoundElement{
		StartElement: xml.StartElement{
			Name: xml.Name{Local: "Data"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: name}},
		},
	}
	return data.Add(kml.Value(value))
}

// geometry converts g and reports the shared style it uses.
func geometry(g orb.Geometry) (kml.Element, string, error) {
	switch v := g.(type) {
	case orb.Point:
		return kml.Point(kml.Coordinates(coord(v))), StylePoint, nil
	case orb.MultiPoint:
		mg := kml.MultiGeometry()
		for _, p := range v {
			mg.Add(kml.Point(kml.Coordinates(coord(p))))
		}
		return mg, StylePoint, nil
	case orb.LineString:
		return kml.LineString(kml.Coordinates(coords(v)...)), StyleLine, nil
	case orb.MultiLineString:
		mg := kml.MultiGeometry()
		for _, ls := range v {
			mg.Add(kml.LineString(kml.Coordinates(coords(ls)...)))
		}
		return mg, StyleLine, nil
	case orb.Polygon:
		return polygon(v), StylePolygon, nil
	case orb.MultiPolygon:
		mg := kml.MultiGeometry()
		for _, p := range v {
			mg.Add(polygon(p))
		}
		return mg, StylePolygon, nil
	default:
		return nil, "", fmt.Errorf("unsupported geometry %T", g)
	}
}

func polygon(p orb.Polygon) kml.Element {
	el := kml.Polygon()
	for i, r := range p {
		ring := kml.LinearRing(kml.Coordinates(coords(r)...))
		if i == 0 {
			el.Add(kml.OuterBoundaryIs(ring))
		} else {
			el.Add(kml.InnerBoundaryIs(ring))
		}
	}
	return el
}

func coord(p orb.Point) kml.Coordinate {
	return kml.Coordinate{Lon: p.Lon(), Lat: p.Lat()}
}

func coords[S ~[]orb.Point](pts S) []kml.Coordinate {
	out := make([]kml.Coordinate, len(pts))
	for i, p := range pts {
		out[i] = coord(p)
	}
	return out
}

// formatValue renders an attribute value as KML text.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return fmt.Sprint(x)
	}
}
