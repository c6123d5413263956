package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/woozymasta/kmzgen/internal/feature"
)

// ErrEmptyPreview is returned when a collection has no geometry to draw.
var ErrEmptyPreview = errors.New("nothing to draw")

var (
	previewBackground = color.RGBA{R: 0xf4, G: 0xf1, B: 0xea, A: 0xff}
	previewFill       = color.RGBA{R: 0x3b, G: 0x7d, B: 0xd8, A: 0x80}
	previewStroke     = color.RGBA{R: 0x1f, G: 0x4e, B: 0x8c, A: 0xff}
	previewPoint      = color.RGBA{R: 0xd8, G: 0x3b, B: 0x3b, A: 0xff}
)

// Preview renders fc into a size x size WebP thumbnail.
func Preview(fc *feature.Collection, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid preview size %d", size)
	}

	bound, ok := collectionBound(fc)
	if !ok {
		return nil, ErrEmptyPreview
	}

	// Drawn at twice the size, then downscaled for smoother edges.
	c := newCanvas(bound, size*2)
	for _, f := range fc.Features {
		if f.Geometry != nil {
			c.draw(f.Geometry)
		}
	}

	thumb := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(thumb, thumb.Bounds(), c.img, c.img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, thumb, &webp.Options{Lossless: false, Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func collectionBound(fc *feature.Collection) (orb.Bound, bool) {
	var b orb.Bound
	found := false
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if !found {
			b, found = f.Geometry.Bound(), true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b, found
}

type canvas struct {
	img    *image.RGBA
	ras    *vector.Rasterizer
	bound  orb.Bound
	scale  float64
	offX   float64
	offY   float64
	stroke float64
	size   int
}

func newCanvas(b orb.Bound, size int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(previewBackground), image.Point{}, draw.Src)

	pad := float64(size) * 0.05
	span := math.Max(b.Max.X()-b.Min.X(), b.Max.Y()-b.Min.Y())
	scale := 1.0
	if span > 0 {
		scale = (float64(size) - 2*pad) / span
	}

	return &canvas{
		img:    img,
		ras:    vector.NewRasterizer(size, size),
		bound:  b,
		scale:  scale,
		offX:   (float64(size) - (b.Max.X()-b.Min.X())*scale) / 2,
		offY:   (float64(size) - (b.Max.Y()-b.Min.Y())*scale) / 2,
		stroke: math.Max(1, float64(size)/256),
		size:   size,
	}
}

// project maps a coordinate to pixel space with north up.
func (c *canvas) project(p orb.Point) (float32, float32) {
	x := c.offX + (p.X()-c.bound.Min.X())*c.scale
	y := float64(c.size) - (c.offY + (p.Y()-c.bound.Min.Y())*c.scale)
	return float32(x), float32(y)
}

func (c *canvas) draw(g orb.Geometry) {
	switch v := g.(type) {
	case orb.Point:
		c.point(v)
	case orb.MultiPoint:
		for _, p := range v {
			c.point(p)
		}
	case orb.LineString:
		c.line(v)
	case orb.MultiLineString:
		for _, ls := range v {
			c.line(ls)
		}
	case orb.Polygon:
		c.polygon(v)
	case orb.MultiPolygon:
		for _, p := range v {
			c.polygon(p)
		}
	}
}

func (c *canvas) fill(col color.Color) {
	c.ras.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
	c.ras.Reset(c.size, c.size)
}

func (c *canvas) polygon(p orb.Polygon) {
	for _, ring := range p {
		if len(ring) < 3 {
			continue
		}
		x, y := c.project(ring[0])
		c.ras.MoveTo(x, y)
		for _, pt := range ring[1:] {
			x, y = c.project(pt)
			c.ras.LineTo(x, y)
		}
		c.ras.ClosePath()
	}
	c.fill(previewFill)

	for _, ring := range p {
		c.line(orb.LineString(ring))
	}
}

// line strokes each segment as a quad.
func (c *canvas) line(ls orb.LineString) {
	half := c.stroke / 2
	for i := 1; i < len(ls); i++ {
		ax, ay := c.project(ls[i-1])
		bx, by := c.project(ls[i])

		dx, dy := float64(bx-ax), float64(by-ay)
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := float32(-dy/l*half), float32(dx/l*half)

		c.ras.MoveTo(ax+nx, ay+ny)
		c.ras.LineTo(bx+nx, by+ny)
		c.ras.LineTo(bx-nx, by-ny)
		c.ras.LineTo(ax-nx, ay-ny)
		c.ras.ClosePath()
	}
	c.fill(previewStroke)
}

// point draws an octagon marker.
func (c *canvas) point(p orb.Point) {
	x, y := c.project(p)
	r := c.stroke * 3
	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		px, py := x+float32(r*math.Cos(a)), y+float32(r*math.Sin(a))
		if i == 0 {
			c.ras.MoveTo(px, py)
		} else {
			c.ras.LineTo(px, py)
		}
	}
	c.ras.ClosePath()
	c.fill(previewPoint)
}
