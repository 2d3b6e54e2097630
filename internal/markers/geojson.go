package markers

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection encodes markers as GeoJSON points. GeoJSON orders
// positions as [lng, lat].
func FeatureCollection(ms []Marker) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(ms))}
	for _, m := range ms {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       m.ID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{m.Position.Lng(), m.Position.Lat()}),
			Properties: map[string]interface{}{
				"name":  m.Name,
				"type":  string(m.Type),
				"color": m.Icon.Color,
				"glyph": m.Icon.Glyph,
				"class": m.Icon.Class,
				"size":  m.Icon.Size,
				"popup": m.Popup,
			},
		})
	}
	return fc
}
