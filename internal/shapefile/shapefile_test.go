package shapefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/kmzgen/internal/feature"
)

type fixtureRow struct {
	shape  shp.Shape
	values []any
}

// writeFixture writes <dir>/<name>.{shp,dbf} and returns the dataset.
func writeFixture(t *testing.T, dir, name string, kind shp.ShapeType, fields []shp.Field, rows []fixtureRow) Dataset {
	t.Helper()

	base := filepath.Join(dir, name)
	w, err := shp.Create(base+ExtSHP, kind)
	require.NoError(t, err)
	require.NoError(t, w.SetFields(fields))

	for _, row := range rows {
		n := int(w.Write(row.shape))
		for i, v := range row.values {
			require.NoError(t, w.WriteAttribute(n, i, v))
		}
	}
	w.Close()

	// go-shp v0.1.1 writes the table to "<base>dbf".
	require.NoError(t, os.Rename(base+"dbf", base+ExtDBF))

	return Dataset{Dir: dir, Name: name}
}

func readAll(t *testing.T, ds Dataset, opts Options) ([]orb.Geometry, []map[string]any) {
	t.Helper()

	r, err := Open(ds, opts)
	require.NoError(t, err)
	defer r.Close()

	var geoms []orb.Geometry
	var rows []map[string]any
	for r.Next() {
		g, a := r.Record()
		geoms = append(geoms, g)
		rows = append(rows, a.Map())
	}
	require.NoError(t, r.Err())
	return geoms, rows
}

func TestReadPoints(t *testing.T) {
	ds := writeFixture(t, t.TempDir(), "test", shp.POINT,
		[]shp.Field{shp.StringField("NOME", 20), shp.FloatField("AREA", 10, 2)},
		[]fixtureRow{
			{&shp.Point{X: -46.63, Y: -23.55}, []any{"Praça Central", 12.5}},
			{&shp.Point{X: -46.60, Y: -23.50}, []any{"", 0.0}},
		})

	geoms, rows := readAll(t, ds, Options{Encoding: "utf-8"})

	require.Len(t, geoms, 2)
	assert.Equal(t, orb.Point{-46.63, -23.55}, geoms[0])
	assert.Equal(t, "Praça Central", rows[0]["NOME"])
	assert.Equal(t, 12.5, rows[0]["AREA"])
	assert.Nil(t, rows[1]["NOME"])
}

func TestReadWindows1252(t *testing.T) {
	// "Praça" in windows-1252.
	raw := string([]byte{'P', 'r', 'a', 0xE7, 'a'})
	ds := writeFixture(t, t.TempDir(), "latin", shp.POINT,
		[]shp.Field{shp.StringField("NOME", 10)},
		[]fixtureRow{{&shp.Point{X: 1, Y: 2}, []any{raw}}})

	_, rows := readAll(t, ds, Options{})
	assert.Equal(t, "Praça", rows[0]["NOME"])
}

func TestReadTypedValues(t *testing.T) {
	ds := writeFixture(t, t.TempDir(), "typed", shp.POINT,
		[]shp.Field{shp.NumberField("ID", 5), shp.DateField("DATA")},
		[]fixtureRow{{&shp.Point{X: 1, Y: 2}, []any{7, "20240315"}}})

	_, rows := readAll(t, ds, Options{})
	assert.Equal(t, 7.0, rows[0]["ID"])
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), rows[0]["DATA"])
}

func TestReadPolyline(t *testing.T) {
	ds := writeFixture(t, t.TempDir(), "roads", shp.POLYLINE,
		[]shp.Field{shp.StringField("ID", 4)},
		[]fixtureRow{
			{shp.NewPolyLine([][]shp.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}}}), []any{"a"}},
			{shp.NewPolyLine([][]shp.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}}, {{X: 5, Y: 5}, {X: 6, Y: 6}}}), []any{"b"}},
		})

	geoms, _ := readAll(t, ds, Options{})
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}}, geoms[0])
	assert.Equal(t, orb.MultiLineString{{{0, 0}, {1, 1}}, {{5, 5}, {6, 6}}}, geoms[1])
}

func TestReadPolygonWithHole(t *testing.T) {
	shell := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{shell, hole}))

	ds := writeFixture(t, t.TempDir(), "lots", shp.POLYGON,
		[]shp.Field{shp.StringField("ID", 4)},
		[]fixtureRow{{&poly, []any{"a"}}})

	geoms, _ := readAll(t, ds, Options{})
	p, ok := geoms[0].(orb.Polygon)
	require.True(t, ok, "got %T", geoms[0])
	require.Len(t, p, 2)
	assert.Len(t, p[0], 5)
	assert.Equal(t, orb.Point{2, 2}, p[1][0])
}

func TestReadMultiPolygon(t *testing.T) {
	a := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	b := []shp.Point{{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 5}, {X: 5, Y: 5}}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{a, b}))

	ds := writeFixture(t, t.TempDir(), "islands", shp.POLYGON,
		[]shp.Field{shp.StringField("ID", 4)},
		[]fixtureRow{{&poly, []any{"a"}}})

	geoms, _ := readAll(t, ds, Options{})
	mp, ok := geoms[0].(orb.MultiPolygon)
	require.True(t, ok, "got %T", geoms[0])
	assert.Len(t, mp, 2)
}

func TestOpenMissingParts(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(Dataset{Dir: dir, Name: "nothing"}, Options{})
	assert.ErrorIs(t, err, ErrNotFound)

	ds := writeFixture(t, dir, "nodbf", shp.POINT,
		[]shp.Field{shp.StringField("ID", 4)},
		[]fixtureRow{{&shp.Point{}, []any{"a"}}})
	require.NoError(t, os.Remove(ds.Path(ExtDBF)))

	_, err = Open(ds, Options{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadUnknownEncoding(t *testing.T) {
	ds := writeFixture(t, t.TempDir(), "enc", shp.POINT,
		[]shp.Field{shp.StringField("ID", 4)},
		[]fixtureRow{{&shp.Point{}, []any{"a"}}})

	_, err := Open(ds, Options{Encoding: "klingon"})
	assert.Error(t, err)
}

func TestReaderFields(t *testing.T) {
	ds := writeFixture(t, t.TempDir(), "fields", shp.POINT,
		[]shp.Field{shp.StringField("NOME", 30), shp.FloatField("AREA", 12, 3)},
		[]fixtureRow{{&shp.Point{}, []any{"a", 1.0}}})

	r, err := Open(ds, Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []Field{
		{Name: "NOME", Type: "C", Size: 30},
		{Name: "AREA", Type: "F", Size: 12, Precision: 3},
	}, r.Fields())
}

func TestSidecars(t *testing.T) {
	dir := t.TempDir()
	ds := Dataset{Dir: dir, Name: "x"}

	_, ok, err := ReadProjection(ds)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(ds.Path(ExtCPG), []byte("UTF-8\n"), 0o644))
	enc, ok, err := ReadEncoding(ds)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "UTF-8", enc)
}

func TestLookupEncoding(t *testing.T) {
	for _, label := range []string{"UTF-8", "utf8", "1252", "ANSI 1252", "ISO-8859-1", "windows-1252", "latin1"} {
		t.Run(label, func(t *testing.T) {
			enc, err := LookupEncoding(label)
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}

	_, err := LookupEncoding("no-such-charset")
	assert.Error(t, err)
}

func TestToGeometryNullAndUnsupported(t *testing.T) {
	g, err := toGeometry(&shp.Null{})
	require.NoError(t, err)
	assert.Nil(t, g)

	_, err = toGeometry(&shp.MultiPatch{})
	assert.ErrorIs(t, err, ErrMalformedGeometry)
}

func TestSplitPartsOutOfRange(t *testing.T) {
	_, err := splitParts([]int32{0, 5}, []shp.Point{{}, {}})
	assert.ErrorIs(t, err, ErrMalformedGeometry)
}

func TestDecodeValue(t *testing.T) {
	enc, err := LookupEncoding(DefaultEncoding)
	require.NoError(t, err)
	dec := enc.NewDecoder()

	assert.Nil(t, decodeValue('N', "   ", dec))
	assert.Equal(t, 3.25, decodeValue('N', " 3.25", dec))
	assert.Nil(t, decodeValue('D', "00000000", dec))
	assert.Equal(t, true, decodeValue('L', "T", dec))
	assert.Nil(t, decodeValue('L', "?", dec))
	assert.Equal(t, "abc", decodeValue('C', "abc  \x00\x00", dec))
}

// mixedDataset pairs the geometry of shapes with the table of records.
func mixedDataset(t *testing.T, shapes, records Dataset) Dataset {
	t.Helper()

	ds := Dataset{Dir: t.TempDir(), Name: "mixed"}
	for _, src := range []struct {
		from Dataset
		ext  string
	}{{shapes, ExtSHP}, {shapes, ".shx"}, {records, ExtDBF}} {
		data, err := os.ReadFile(src.from.Path(src.ext))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(ds.Path(src.ext), data, 0o644))
	}
	return ds
}

func TestReadCountMismatch(t *testing.T) {
	dir := t.TempDir()
	fields := []shp.Field{shp.StringField("NOME", 10)}
	one := writeFixture(t, dir, "one", shp.POINT, fields, []fixtureRow{
		{shape: &shp.Point{X: 1, Y: 1}, values: []any{"a"}},
	})
	two := writeFixture(t, dir, "two", shp.POINT, fields, []fixtureRow{
		{shape: &shp.Point{X: 1, Y: 1}, values: []any{"a"}},
		{shape: &shp.Point{X: 2, Y: 2}, values: []any{"b"}},
	})

	tests := []struct {
		name           string
		shapes, record Dataset
	}{
		{"fewer shapes than records", one, two},
		{"more shapes than records", two, one},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Open(mixedDataset(t, tt.shapes, tt.record), Options{})
			require.NoError(t, err)
			defer r.Close()

			for r.Next() {
			}
			require.Error(t, r.Err())
			assert.True(t, errors.Is(r.Err(), feature.ErrLengthMismatch), r.Err())
		})
	}
}
