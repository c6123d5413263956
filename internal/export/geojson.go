package export

import (
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/kmzgen/internal/feature"
)

// GeoJSON renders fc as a GeoJSON FeatureCollection. Null shapes are kept
// with a null geometry.
func GeoJSON(fc *feature.Collection) ([]byte, error) {
	out := geojson.NewFeatureCollection()

	for _, f := range fc.Features {
		gf := geojson.NewFeature(f.Geometry)
		for _, k := range f.Properties.Keys() {
			v, _ := f.Properties.Get(k)
			if t, ok := v.(time.Time); ok {
				v = t.Format(time.DateOnly)
			}
			gf.Properties[k] = v
		}
		out.Append(gf)
	}

	data, err := out.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}
