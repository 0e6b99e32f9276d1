package output

import (
	"errors"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// _Table is a feature set prepared for writing.
type _Table struct {
	Columns   []string
	Records   [][]any
	Geoms     []*geom.MultiPolygon
	FeatureID []string
}

const (
	_MAX_FIELD_NAME = 10
	_MAX_STRING_LEN = 254
)

// _WriteShapefile writes a polygon shapefile.
//
// Column types are taken from the first non nil value of a column, columns
// without any value become text.
func _WriteShapefile(file string, table *_Table) error {
	fields, err := _ShapefileFields(table)
	if err != nil {
		return err
	}
	writer, err := shp.Create(file, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "output: create shapefile %s", file)
	}
	closed := false
	defer func() {
		if !closed {
			writer.Close()
		}
	}()
	if err := writer.SetFields(fields); err != nil {
		return eris.Wrapf(err, "output: set fields of %s", file)
	}

	for i, g := range table.Geoms {
		row := int(writer.Write(_ToShapePolygon(g)))
		for j, value := range table.Records[i] {
			dbf_value, ok := _DBFValue(value, fields[j])
			if !ok {
				continue
			}
			if err := writer.WriteAttribute(row, j, dbf_value); err != nil {
				return eris.Wrapf(err, "output: write %s of feature %s", table.Columns[j], table.FeatureID[i])
			}
		}
	}
	writer.Close()
	closed = true

	// go-shp names the attribute table "<base>dbf" when the file ends with .shp
	base := strings.TrimSuffix(file, ".shp")
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "output: finish attribute table of %s", file)
	}
	return nil
}

func _ShapefileFields(table *_Table) ([]shp.Field, error) {
	fields := make([]shp.Field, len(table.Columns))
	names := make(map[string]bool, len(table.Columns))
	for j, column := range table.Columns {
		name := column
		if len(name) > _MAX_FIELD_NAME {
			name = name[:_MAX_FIELD_NAME]
		}
		if names[strings.ToLower(name)] {
			return nil, eris.Errorf("output: column %q collides with another column after truncation", column)
		}
		names[strings.ToLower(name)] = true

		var sample any
		max_len := 1
		for _, record := range table.Records {
			value := record[j]
			if value == nil {
				continue
			}
			if sample == nil {
				sample = value
			}
			if s, ok := value.(string); ok {
				max_len = max(max_len, len(s))
			}
		}
		switch sample.(type) {
		case int, int32, int64:
			fields[j] = shp.NumberField(name, 20)
		case float32, float64:
			fields[j] = shp.FloatField(name, 24, 6)
		case bool:
			fields[j] = shp.StringField(name, 1)
		default:
			fields[j] = shp.StringField(name, uint8(min(max_len, _MAX_STRING_LEN)))
		}
	}
	return fields, nil
}

// _DBFValue converts value to one of the types go-shp can write.
func _DBFValue(value any, field shp.Field) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return "T", true
		}
		return "F", true
	case string:
		if len(v) > int(field.Size) {
			v = v[:field.Size]
		}
		return v, true
	}
	return nil, false
}

// _ToShapePolygon orients shells clockwise and holes counter clockwise.
func _ToShapePolygon(g *geom.MultiPolygon) *shp.Polygon {
	parts := make([][]shp.Point, 0, g.NumPolygons())
	for p := 0; p < g.NumPolygons(); p++ {
		polygon := g.Polygon(p)
		for r := 0; r < polygon.NumLinearRings(); r++ {
			ring := polygon.LinearRing(r)
			points := make([]shp.Point, ring.NumCoords())
			for i := range points {
				c := ring.Coord(i)
				points[i] = shp.Point{X: c.X(), Y: c.Y()}
			}
			// go-geom areas are positive for counter clockwise rings
			ccw := ring.Area() > 0
			if (r == 0) == ccw {
				for a, b := 0, len(points)-1; a < b; a, b = a+1, b-1 {
					points[a], points[b] = points[b], points[a]
				}
			}
			parts = append(parts, points)
		}
	}
	polygon := shp.Polygon(*shp.NewPolyLine(parts))
	return &polygon
}
