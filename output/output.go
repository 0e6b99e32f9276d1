package output

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/isochrone"
	"github.com/ttpr0/go-walkshed/overlay"
)

//*******************************************
// output formats
//*******************************************

const (
	SHAPEFILE = "shp"
	GEOJSON   = "geojson"
)

// IsochroneSchema decides which columns an isochrone record carries.
type IsochroneSchema struct {
	IDField    string `yaml:"id_field" mapstructure:"id_field"`
	BreakField string `yaml:"break_field" mapstructure:"break_field"`
	// empty to omit the batch column
	BatchField string `yaml:"batch_field" mapstructure:"batch_field"`
	// joined attributes in output order
	Fields []string `yaml:"fields" mapstructure:"fields"`
}

// Columns returns the output column names in order.
func (self *IsochroneSchema) Columns() []string {
	columns := make([]string, 0, len(self.Fields)+3)
	columns = append(columns, self._IDField())
	for _, f := range self.Fields {
		if f != self._IDField() {
			columns = append(columns, f)
		}
	}
	columns = append(columns, self._BreakField())
	if self.BatchField != "" {
		columns = append(columns, self.BatchField)
	}
	return columns
}

// Record returns the values of iso in column order.
func (self *IsochroneSchema) Record(iso *isochrone.Isochrone) []any {
	values := make([]any, 0, len(self.Fields)+3)
	values = append(values, iso.OriginID)
	for _, f := range self.Fields {
		if f != self._IDField() {
			values = append(values, iso.Attributes[f])
		}
	}
	values = append(values, iso.Break)
	if self.BatchField != "" {
		values = append(values, iso.Batch)
	}
	return values
}

func (self *IsochroneSchema) _IDField() string {
	if self.IDField == "" {
		return "origin_id"
	}
	return self.IDField
}

func (self *IsochroneSchema) _BreakField() string {
	if self.BreakField == "" {
		return "break"
	}
	return self.BreakField
}

//*******************************************
// writer
//*******************************************

// Writer stores isochrones and layers in a directory in every configured format.
type Writer struct {
	Dir     string
	Formats []string
	Schema  IsochroneSchema
}

func NewWriter(dir string, formats []string, schema IsochroneSchema) (*Writer, error) {
	for _, format := range formats {
		if format != SHAPEFILE && format != GEOJSON {
			return nil, eris.Errorf("output: unknown format %q", format)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "output: create %s", dir)
	}
	return &Writer{Dir: dir, Formats: formats, Schema: schema}, nil
}

// WriteIsochrones writes non empty isochrones and returns the written files.
func (self *Writer) WriteIsochrones(name string, isochrones []isochrone.Isochrone) ([]string, error) {
	table := _Table{
		Columns:   self.Schema.Columns(),
		Records:   make([][]any, 0, len(isochrones)),
		Geoms:     make([]*geom.MultiPolygon, 0, len(isochrones)),
		FeatureID: make([]string, 0, len(isochrones)),
	}
	for i := range isochrones {
		iso := &isochrones[i]
		if iso.IsEmpty() {
			continue
		}
		table.Records = append(table.Records, self.Schema.Record(iso))
		table.Geoms = append(table.Geoms, iso.Geometry)
		table.FeatureID = append(table.FeatureID, iso.OriginID)
	}
	return self._Write(name, &table)
}

// WriteLayer writes a polygon layer with its attributes in field order.
func (self *Writer) WriteLayer(layer overlay.Layer) ([]string, error) {
	table := _Table{
		Columns:   layer.Fields,
		Records:   make([][]any, 0, layer.Len()),
		Geoms:     make([]*geom.MultiPolygon, 0, layer.Len()),
		FeatureID: make([]string, 0, layer.Len()),
	}
	for _, feature := range layer.Features {
		record := make([]any, len(layer.Fields))
		for i, f := range layer.Fields {
			record[i] = feature.Attributes[f]
		}
		table.Records = append(table.Records, record)
		table.Geoms = append(table.Geoms, feature.Geometry)
		table.FeatureID = append(table.FeatureID, strconv.FormatInt(feature.ID, 10))
	}
	return self._Write(layer.Name, &table)
}

func (self *Writer) _Write(name string, table *_Table) ([]string, error) {
	files := make([]string, 0, len(self.Formats))
	for _, format := range self.Formats {
		var file string
		var err error
		switch format {
		case SHAPEFILE:
			file = filepath.Join(self.Dir, name+".shp")
			err = _WriteShapefile(file, table)
		case GEOJSON:
			file = filepath.Join(self.Dir, name+".geojson")
			err = _WriteGeoJSON(file, table)
		}
		if err != nil {
			return nil, err
		}
		zap.L().Info("wrote output",
			zap.String("file", file),
			zap.Int("features", len(table.Geoms)),
		)
		files = append(files, file)
	}
	return files, nil
}
