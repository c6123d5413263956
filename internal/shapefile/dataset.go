// Package shapefile reads ESRI shapefile datasets into features.
package shapefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when the .shp or .dbf part of a dataset is missing.
// It also matches fs.ErrNotExist.
var ErrNotFound = fmt.Errorf("shapefile not found: %w", fs.ErrNotExist)

// File extensions of a dataset.
const (
	ExtSHP = ".shp"
	ExtDBF = ".dbf"
	ExtPRJ = ".prj"
	ExtCPG = ".cpg"
)

// Dataset names a shapefile set <Dir>/<Name>.{shp,dbf,prj,cpg}.
type Dataset struct {
	Dir  string
	Name string
}

// Path returns the path of the dataset file with extension ext.
func (d Dataset) Path(ext string) string {
	return filepath.Join(d.Dir, d.Name+ext)
}

// Check reports ErrNotFound unless both required files exist.
func (d Dataset) Check() error {
	for _, ext := range []string{ExtSHP, ExtDBF} {
		info, err := os.Stat(d.Path(ext))
		if err != nil || info.IsDir() {
			return fmt.Errorf("%s%s: %w", d.Name, ext, ErrNotFound)
		}
	}
	return nil
}

// ReadProjection returns the .prj text; ok is false when there is no .prj file.
func ReadProjection(d Dataset) (text string, ok bool, err error) {
	return readSidecar(d.Path(ExtPRJ))
}

// ReadEncoding returns the charset declared in the .cpg file; ok is false
// when there is no .cpg file.
func ReadEncoding(d Dataset) (name string, ok bool, err error) {
	return readSidecar(d.Path(ExtCPG))
}

func readSidecar(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}
