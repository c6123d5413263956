package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/kmzgen/internal/export"
	"github.com/woozymasta/kmzgen/internal/shapefile"
)

// Output file extensions.
const (
	ExtKMZ     = ".kmz"
	ExtGeoJSON = ".geojson"
	ExtPreview = ".webp"
)

// BatchOptions controls batch output.
type BatchOptions struct {
	OutputDir   string
	Concurrency int
	PreviewSize int
	GeoJSON     bool
	Preview     bool
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Failed    map[string]error
	Written   []string
	Total     int
	Succeeded int
}

type job struct {
	Dataset shapefile.Dataset
}

type result struct {
	Err   error
	Name  string
	Files []string
}

// ProcessBatch converts every dataset and writes the artifacts to the output
// directory. A failing dataset is logged and counted; it never stops the run.
func ProcessBatch(ctx context.Context, conv *Converter, datasets []shapefile.Dataset, opts BatchOptions) Summary {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan job, len(datasets))
	results := make(chan result, len(datasets))

	go func() {
		for _, ds := range datasets {
			jobs <- job{Dataset: ds}
		}
		close(jobs)
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				start := time.Now()
				files, err := processDataset(ctx, conv, j.Dataset, opts)
				if err != nil {
					log.Error().
						Err(err).
						Str("dataset", j.Dataset.Name).
						Msg("Failed to convert dataset")
				} else {
					log.Info().
						Str("dataset", j.Dataset.Name).
						Strs("files", files).
						Dur("took", time.Since(start)).
						Msg("Dataset converted")
				}
				results <- result{Name: j.Dataset.Name, Files: files, Err: err}
			}
		}()
	}
	wg.Wait()
	close(results)

	sum := Summary{Total: len(datasets), Failed: make(map[string]error)}
	for res := range results {
		if res.Err != nil {
			sum.Failed[res.Name] = res.Err
			continue
		}
		sum.Succeeded++
		sum.Written = append(sum.Written, res.Files...)
	}

	return sum
}

func processDataset(ctx context.Context, conv *Converter, ds shapefile.Dataset, opts BatchOptions) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	art, err := conv.Convert(ctx, ds)
	if err != nil {
		return nil, err
	}

	base := filepath.Join(opts.OutputDir, art.Name)
	files := []string{base + ExtKMZ}
	if err := writeFile(base+ExtKMZ, art.Data); err != nil {
		return nil, err
	}

	if opts.GeoJSON {
		data, err := export.GeoJSON(art.Collection)
		if err != nil {
			return files, err
		}
		if err := writeFile(base+ExtGeoJSON, data); err != nil {
			return files, err
		}
		files = append(files, base+ExtGeoJSON)
	}

	if opts.Preview {
		data, err := export.Preview(art.Collection, opts.PreviewSize)
		switch {
		case errors.Is(err, export.ErrEmptyPreview):
			log.Debug().Str("dataset", ds.Name).Msg("No geometry, preview skipped")
		case err != nil:
			return files, err
		default:
			if err := writeFile(base+ExtPreview, data); err != nil {
				return files, err
			}
			files = append(files, base+ExtPreview)
		}
	}

	return files, nil
}

// writeFile writes data through a temporary file so readers never see a
// partial artifact.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
