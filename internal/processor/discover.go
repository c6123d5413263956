package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/woozymasta/kmzgen/internal/shapefile"
)

// Discover lists every dataset in dir, identified by a *.shp file of any case.
func Discover(dir string) ([]shapefile.Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var out []shapefile.Dataset
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, shapefile.ExtSHP) {
			continue
		}
		out = append(out, shapefile.Dataset{Dir: dir, Name: strings.TrimSuffix(name, ext)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SanitizeName removes path separators from a client supplied dataset id.
func SanitizeName(id string) string {
	return strings.NewReplacer("/", "", "\\", "").Replace(id)
}

// Filter keeps the datasets named in names, in the order given. Unknown
// names are returned separately.
func Filter(datasets []shapefile.Dataset, names []string) (found []shapefile.Dataset, missing []string) {
	byName := make(map[string]shapefile.Dataset, len(datasets))
	for _, ds := range datasets {
		byName[ds.Name] = ds
	}

	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true

		if ds, ok := byName[n]; ok {
			found = append(found, ds)
		} else {
			missing = append(missing, n)
		}
	}
	return found, missing
}
