package output

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func _WriteGeoJSON(file string, table *_Table) error {
	fc := geojson.FeatureCollection{
		Features: make([]*geojson.Feature, len(table.Geoms)),
	}
	for i, g := range table.Geoms {
		properties := make(map[string]any, len(table.Columns))
		for j, column := range table.Columns {
			properties[column] = table.Records[i][j]
		}
		fc.Features[i] = &geojson.Feature{
			ID:         table.FeatureID[i],
			Geometry:   g,
			Properties: properties,
		}
	}
	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrapf(err, "output: encode %s", file)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return eris.Wrapf(err, "output: write %s", file)
	}
	return nil
}
