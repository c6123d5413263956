package export

import (
	"encoding/hex"
	"image/color"
	"strconv"
	"strings"

	"github.com/twpayne/go-kml"
	"github.com/twpayne/go-kml/icon"

	"github.com/woozymasta/kmzgen/internal/feature"
)

// Shared style ids referenced by placemarks.
const (
	StylePoint   = "point"
	StyleLine    = "line"
	StylePolygon = "polygon"
)

// simplestyle property names recognised in attribute records.
const (
	propMarkerColor   = "marker-color"
	propStroke        = "stroke"
	propStrokeWidth   = "stroke-width"
	propStrokeOpacity = "stroke-opacity"
	propFill          = "fill"
	propFillOpacity   = "fill-opacity"
)

var (
	defaultStroke = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	defaultFill   = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0x99}
	defaultWidth  = 2.0
)

// sharedStyles returns the default document styles.
func sharedStyles() []kml.Element {
	return []kml.Element{
		kml.SharedStyle(StylePoint,
			kml.IconStyle(
				kml.Scale(1),
				kml.Icon(kml.Href(icon.PaletteHref(2, 18))),
			),
		),
		kml.SharedStyle(StyleLine,
			kml.LineStyle(kml.Color(defaultStroke), kml.Width(defaultWidth)),
		),
		kml.SharedStyle(StylePolygon,
			kml.LineStyle(kml.Color(defaultStroke), kml.Width(defaultWidth)),
			kml.PolyStyle(kml.Color(defaultFill), kml.Fill(true), kml.Outline(true)),
		),
	}
}

// inlineStyle builds a Style from simplestyle properties. It returns nil
// when the record carries none.
func inlineStyle(attrs feature.Attributes) kml.Element {
	var children []kml.Element

	if c, ok := styleColor(attrs, propMarkerColor, ""); ok {
		children = append(children, kml.IconStyle(
			kml.Color(c),
			kml.Icon(kml.Href(icon.PaletteHref(2, 18))),
		))
	}

	stroke, hasStroke := styleColor(attrs, propStroke, propStrokeOpacity)
	width, hasWidth := styleFloat(attrs, propStrokeWidth)
	if hasStroke || hasWidth {
		if !hasStroke {
			stroke = defaultStroke
		}
		if !hasWidth {
			width = defaultWidth
		}
		children = append(children, kml.LineStyle(kml.Color(stroke), kml.Width(width)))
	}

	if fill, ok := styleColor(attrs, propFill, propFillOpacity); ok {
		children = append(children, kml.PolyStyle(kml.Color(fill), kml.Fill(true), kml.Outline(true)))
	}

	if len(children) == 0 {
		return nil
	}
	return kml.Style(children...)
}

// styleColor reads a "#rrggbb" or "#rgb" color and an optional opacity in [0,1].
func styleColor(attrs feature.Attributes, key, opacityKey string) (color.RGBA, bool) {
	v, ok := attrs.Get(key)
	if !ok {
		return color.RGBA{}, false
	}
	s, ok := v.(string)
	if !ok {
		return color.RGBA{}, false
	}

	c, ok := parseHexColor(s)
	if !ok {
		return color.RGBA{}, false
	}

	if opacityKey != "" {
		if a, ok := styleFloat(attrs, opacityKey); ok && a >= 0 && a <= 1 {
			c.A = uint8(a*255 + 0.5)
		}
	}
	return c, true
}

func styleFloat(attrs feature.Attributes, key string) (float64, bool) {
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func parseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: b[0], G: b[1], B: b[2], A: 0xff}, true
}
