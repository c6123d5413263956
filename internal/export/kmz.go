package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
)

// DocName is the single archive entry of a KMZ file.
const DocName = "doc.kml"

// ErrPackaging is returned when the KMZ archive cannot be produced.
var ErrPackaging = errors.New("kmz packaging failed")

// KMZ packs a KML document into a zip archive with one deflated doc.kml entry.
func KMZ(doc string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   DocName,
		Method: zip.Deflate,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackaging, err)
	}
	if _, err := w.Write([]byte(doc)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackaging, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackaging, err)
	}

	return buf.Bytes(), nil
}
