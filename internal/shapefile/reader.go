package shapefile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"golang.org/x/text/encoding"

	"github.com/woozymasta/kmzgen/internal/feature"
)

// DefaultEncoding is used for text fields when no .cpg file is present.
const DefaultEncoding = "windows-1252"

// Options controls how dataset attributes are decoded.
type Options struct {
	// Encoding is the charset label used for text fields, e.g. "windows-1252".
	Encoding string
}

// Reader iterates over the records of a dataset, pairing each shape with
// its attribute row.
type Reader struct {
	sr     shp.SequentialReader
	dec    *encoding.Decoder
	fields []shp.Field
	names  []string
	geom   orb.Geometry
	attrs  feature.Attributes
	err    error
	total  int
	index  int
}

// Open opens the dataset for reading. A missing .shp or .dbf yields ErrNotFound.
func Open(ds Dataset, opts Options) (*Reader, error) {
	if err := ds.Check(); err != nil {
		return nil, err
	}

	label := opts.Encoding
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := LookupEncoding(label)
	if err != nil {
		return nil, err
	}

	shpFile, err := os.Open(ds.Path(ExtSHP))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ds.Name, err)
	}
	dbfFile, err := os.Open(ds.Path(ExtDBF))
	if err != nil {
		shpFile.Close()
		return nil, fmt.Errorf("open %s: %w", ds.Name, err)
	}

	total, err := recordCount(dbfFile)
	if err != nil {
		shpFile.Close()
		dbfFile.Close()
		return nil, fmt.Errorf("%s%s: %w", ds.Name, ExtDBF, err)
	}

	sr := shp.SequentialReaderFromExt(shpFile, dbfFile)
	if err := sr.Err(); err != nil {
		sr.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedGeometry, ds.Name, err)
	}

	r := &Reader{
		sr:     sr,
		dec:    enc.NewDecoder(),
		fields: sr.Fields(),
		total:  total,
	}

	r.names = make([]string, len(r.fields))
	for i, f := range r.fields {
		name := f.String()
		if decoded, err := r.dec.String(name); err == nil {
			name = decoded
		}
		r.names[i] = strings.TrimSpace(name)
	}

	return r, nil
}

// recordCount reads the record count from a .dbf header and rewinds the file.
func recordCount(f *os.File) (int, error) {
	var head [8]byte
	if _, err := io.ReadFull(f, head[:]); err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(head[4:8])), nil
}

// Next advances to the next record. It returns false at the end of the
// dataset or on error; check Err afterwards.
func (r *Reader) Next() (ok bool) {
	if r.err != nil {
		return false
	}

	// go-shp panics on some corrupt part counts.
	defer func() {
		if p := recover(); p != nil {
			r.err = fmt.Errorf("%w: record %d: %v", ErrMalformedGeometry, r.index, p)
			ok = false
		}
	}()

	if !r.sr.Next() {
		err := r.sr.Err()
		switch {
		case err != nil && r.index >= r.total:
			r.err = fmt.Errorf("%w: more shapes than %d records", feature.ErrLengthMismatch, r.total)
		case err != nil:
			r.err = fmt.Errorf("%w: record %d: %v", ErrMalformedGeometry, r.index, err)
		case r.index < r.total:
			r.err = fmt.Errorf("%w: %d shapes, %d records", feature.ErrLengthMismatch, r.index, r.total)
		}
		return false
	}

	if r.index >= r.total {
		r.err = fmt.Errorf("%w: more shapes than %d records", feature.ErrLengthMismatch, r.total)
		return false
	}

	_, s := r.sr.Shape()
	geom, err := toGeometry(s)
	if err != nil {
		r.err = fmt.Errorf("record %d: %w", r.index, err)
		return false
	}

	attrs := feature.NewAttributes(len(r.fields))
	for i, f := range r.fields {
		attrs.Set(r.names[i], decodeValue(f.Fieldtype, r.sr.Attribute(i), r.dec))
	}

	r.geom, r.attrs = geom, attrs
	r.index++
	return true
}

// Record returns the geometry and attributes read by the last call to Next.
// The geometry is nil for null shapes.
func (r *Reader) Record() (orb.Geometry, feature.Attributes) {
	return r.geom, r.attrs
}

// Err returns the first error met while iterating.
func (r *Reader) Err() error {
	return r.err
}

// Len returns the number of attribute records declared by the .dbf.
func (r *Reader) Len() int {
	return r.total
}

// Fields describes the attribute columns.
func (r *Reader) Fields() []Field {
	out := make([]Field, len(r.fields))
	for i, f := range r.fields {
		out[i] = Field{
			Name:      r.names[i],
			Type:      string(rune(f.Fieldtype)),
			Size:      int(f.Size),
			Precision: int(f.Precision),
		}
	}
	return out
}

// Close releases the underlying files.
func (r *Reader) Close() error {
	return r.sr.Close()
}
