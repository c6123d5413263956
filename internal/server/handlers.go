// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/woozymasta/kmzgen/internal/export"
	"github.com/woozymasta/kmzgen/internal/processor"
	"github.com/woozymasta/kmzgen/internal/shapefile"
)

const etagCap = 64

// Content types of served artifacts.
const (
	ContentTypeKMZ     = "application/vnd.google-earth.kmz"
	ContentTypeGeoJSON = "application/geo+json"
	ContentTypeWebP    = "image/webp"
)

// Plain text bodies of the conversion endpoints.
const (
	msgFileRequired  = "file param required"
	msgNotFound      = "shapefile not found"
	msgConvertFailed = "failed to convert shapefile"
)

// artifactTypes lists the files HandleArtifact may serve.
var artifactTypes = map[string]string{
	processor.ExtKMZ:     ContentTypeKMZ,
	processor.ExtGeoJSON: ContentTypeGeoJSON,
	processor.ExtPreview: ContentTypeWebP,
}

// HandleKMZ converts a dataset on demand: GET /api/mapa/kmz?file=<name>.
func (s *ServerContext) HandleKMZ(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	art, err := s.Converter.Convert(r.Context(), ds)
	if err != nil {
		s.conversionError(w, r, ds, err)
		return
	}

	w.Header().Set("Content-Type", ContentTypeKMZ)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.kmz"`, ds.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	_, _ = w.Write(art.Data)
}

// HandleGeoJSON returns a dataset as GeoJSON: GET /api/mapa/geojson?file=<name>.
func (s *ServerContext) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	fc, err := s.Converter.Load(r.Context(), ds)
	if err != nil {
		s.conversionError(w, r, ds, err)
		return
	}

	data, err := export.GeoJSON(fc)
	if err != nil {
		s.conversionError(w, r, ds, err)
		return
	}

	w.Header().Set("Content-Type", ContentTypeGeoJSON)
	_, _ = w.Write(data)
}

// HandleKMZList serves the URLs of pre-generated archives as a JSON array.
func (s *ServerContext) HandleKMZList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.Config.OutputDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to list archives")
		http.Error(w, "failed to list archives", http.StatusInternalServerError)
		return
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), processor.ExtKMZ) {
			continue
		}
		urls = append(urls, "/kmz/"+url.PathEscape(e.Name()))
	}
	sort.Strings(urls)

	writeJSON(w, urls)
}

// HandleDatasets lists the dataset names available for conversion.
func (s *ServerContext) HandleDatasets(w http.ResponseWriter, r *http.Request) {
	names := []string{}

	datasets, err := processor.Discover(s.Config.DataDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to list datasets")
		http.Error(w, "failed to list datasets", http.StatusInternalServerError)
		return
	}

	for _, ds := range datasets {
		names = append(names, ds.Name)
	}
	writeJSON(w, names)
}

// HandleArtifact serves a pre-generated file: GET /kmz/<name>.<ext>.
func (s *ServerContext) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	name := processor.SanitizeName(strings.TrimPrefix(r.URL.Path, "/kmz/"))

	contentType, ok := artifactTypes[strings.ToLower(path.Ext(name))]
	if !ok || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}

	if !s.serveFile(w, r, filepath.Join(s.Config.OutputDir, name), contentType) {
		http.NotFound(w, r)
	}
}

// dataset resolves the file query parameter, answering 400 when it is absent
// or names nothing once sanitized.
func (s *ServerContext) dataset(w http.ResponseWriter, r *http.Request) (shapefile.Dataset, bool) {
	name := processor.SanitizeName(r.URL.Query().Get("file"))
	if strings.Trim(name, ".") == "" {
		http.Error(w, msgFileRequired, http.StatusBadRequest)
		return shapefile.Dataset{}, false
	}

	return shapefile.Dataset{
		Dir:  s.Config.DataDir,
		Name: name,
	}, true
}

func (s *ServerContext) conversionError(w http.ResponseWriter, r *http.Request, ds shapefile.Dataset, err error) {
	if errors.Is(err, shapefile.ErrNotFound) {
		http.Error(w, msgNotFound, http.StatusNotFound)
		return
	}

	zerolog.Ctx(r.Context()).Error().
		Err(err).
		Str("dataset", ds.Name).
		Msg("Conversion failed")
	http.Error(w, msgConvertFailed, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	w.Header().Set("Content-Type", contentType)

	http.ServeFile(w, r, path)
	return true
}
